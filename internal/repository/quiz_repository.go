package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/query"
)

// QuizQuerySchema lists the quiz fields clients may filter, select and sort on.
var QuizQuerySchema = query.Schema{
	Columns: map[string]string{
		"id":         "q.id",
		"topic_id":   "q.topic_id",
		"duration":   "q.duration",
		"level":      "q.level",
		"content":    "q.content",
		"created_at": "q.created_at",
		"updated_at": "q.updated_at",
		"created_by": "q.created_by",
	},
	DefaultSelect: []string{"id", "topic_id", "duration", "level", "content", "created_at", "updated_at", "created_by"},
	DefaultSort:   []query.SortField{{Field: "created_at", Column: "q.created_at", Desc: true}},
}

const (
	quizColumns     = `q.id, q.topic_id, q.duration, q.level, q.content, q.created_at, q.updated_at, q.created_by`
	topicRefColumns = `t.id AS topic_ref_id, t.lesson_id AS topic_ref_lesson_id, t.title AS topic_ref_title, t.description AS topic_ref_description`
	quizFrom        = ` FROM quiz q JOIN topic t ON t.id = q.topic_id`
)

type quizRow struct {
	models.Quiz
	TopicRefID          int64  `db:"topic_ref_id"`
	TopicRefLessonID    int64  `db:"topic_ref_lesson_id"`
	TopicRefTitle       string `db:"topic_ref_title"`
	TopicRefDescription string `db:"topic_ref_description"`
}

func (row quizRow) toModel() models.Quiz {
	quiz := row.Quiz
	quiz.Topic = &models.Topic{
		ID:          row.TopicRefID,
		LessonID:    row.TopicRefLessonID,
		Title:       row.TopicRefTitle,
		Description: row.TopicRefDescription,
	}
	return quiz
}

// QuizRepository persists quizzes and their allocation to students.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs a QuizRepository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

func quizProjection(columns []string) string {
	if len(columns) == 0 {
		return quizColumns
	}
	for _, c := range columns {
		if c == "q.id" {
			return strings.Join(columns, ", ")
		}
	}
	return strings.Join(append([]string{"q.id"}, columns...), ", ")
}

// List returns one page of quizzes with their topics.
func (r *QuizRepository) List(ctx context.Context, req *query.Request) ([]models.Quiz, error) {
	where, args := req.Predicate.Where(1)
	stmt := fmt.Sprintf("SELECT %s, %s%s%s%s LIMIT %d OFFSET %d",
		quizProjection(req.Select), topicRefColumns, quizFrom, where, query.OrderBy(req.Sort), req.Limit, req.Offset())
	var rows []quizRow
	if err := r.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	quizzes := make([]models.Quiz, len(rows))
	for i, row := range rows {
		quizzes[i] = row.toModel()
	}
	return quizzes, nil
}

// Count returns how many quizzes match the predicate.
func (r *QuizRepository) Count(ctx context.Context, pred query.Predicate) (int, error) {
	where, args := pred.Where(1)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+quizFrom+where, args...); err != nil {
		return 0, fmt.Errorf("count quizzes: %w", err)
	}
	return total, nil
}

// ListByTopic returns the quizzes attached to a topic.
func (r *QuizRepository) ListByTopic(ctx context.Context, topicID int64) ([]models.Quiz, error) {
	stmt := `SELECT ` + quizColumns + ` FROM quiz q WHERE q.topic_id = $1 ORDER BY q.created_at DESC`
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, stmt, topicID); err != nil {
		return nil, fmt.Errorf("list topic quizzes: %w", err)
	}
	return quizzes, nil
}

// FindByID returns a quiz by identifier.
func (r *QuizRepository) FindByID(ctx context.Context, id int64) (*models.Quiz, error) {
	stmt := `SELECT ` + quizColumns + ` FROM quiz q WHERE q.id = $1`
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find quiz: %w", err)
	}
	return &quiz, nil
}

// Create inserts a quiz and fills in its identifier.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}
	const stmt = `INSERT INTO quiz (topic_id, duration, level, content, created_by, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, stmt, quiz.TopicID, quiz.Duration, quiz.Level, quiz.Content, quiz.CreatedBy, quiz.CreatedAt).Scan(&quiz.ID); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

// Update writes duration, level and content of a quiz.
func (r *QuizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	now := time.Now().UTC()
	quiz.UpdatedAt = &now
	const stmt = `UPDATE quiz SET duration = $2, level = $3, content = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, stmt, quiz.ID, quiz.Duration, quiz.Level, quiz.Content, now)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return requireAffected("update quiz", res)
}

// Allocate assigns the quiz to every student id, skipping existing assignments. It returns
// the number of new assignments.
func (r *QuizRepository) Allocate(ctx context.Context, quizID int64, studentIDs []int64) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	const stmt = `INSERT INTO student_quizzes (student_id, quiz_id)
SELECT s, $2 FROM unnest($1::int[]) AS s
ON CONFLICT (student_id, quiz_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, stmt, pq.Array(studentIDs), quizID)
	if err != nil {
		return 0, fmt.Errorf("allocate quiz: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("allocate quiz rows affected: %w", err)
	}
	return affected, nil
}

type studentQuizRow struct {
	OwnerID int64 `db:"owner_id"`
	models.Quiz
	TopicRefID           int64   `db:"topic_ref_id"`
	TopicRefLessonID     int64   `db:"topic_ref_lesson_id"`
	TopicRefTitle        string  `db:"topic_ref_title"`
	TopicRefDescription  string  `db:"topic_ref_description"`
	LessonRefID          int64   `db:"lesson_ref_id"`
	LessonRefTitle       string  `db:"lesson_ref_title"`
	LessonRefDescription *string `db:"lesson_ref_description"`
}

// QuizzesOf returns the quizzes allocated to each student with topic and lesson attached.
func (r *QuizRepository) QuizzesOf(ctx context.Context, studentIDs []int64) (map[int64][]models.Quiz, error) {
	result := make(map[int64][]models.Quiz, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}
	stmt := `SELECT sq.student_id AS owner_id, ` + quizColumns + `, ` + topicRefColumns + `,
l.id AS lesson_ref_id, l.title AS lesson_ref_title, l.description AS lesson_ref_description
FROM student_quizzes sq
JOIN quiz q ON q.id = sq.quiz_id
JOIN topic t ON t.id = q.topic_id
JOIN lesson l ON l.id = t.lesson_id
WHERE sq.student_id = ANY($1)
ORDER BY q.created_at DESC`
	var rows []studentQuizRow
	if err := r.db.SelectContext(ctx, &rows, stmt, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list student quizzes: %w", err)
	}
	for _, row := range rows {
		quiz := row.Quiz
		quiz.Topic = &models.Topic{
			ID:          row.TopicRefID,
			LessonID:    row.TopicRefLessonID,
			Title:       row.TopicRefTitle,
			Description: row.TopicRefDescription,
			Lesson:      &models.Lesson{ID: row.LessonRefID, Title: row.LessonRefTitle, Description: row.LessonRefDescription},
		}
		result[row.OwnerID] = append(result[row.OwnerID], quiz)
	}
	return result, nil
}

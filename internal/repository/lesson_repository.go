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

// LessonQuerySchema lists the lesson fields clients may filter, select and sort on.
var LessonQuerySchema = query.Schema{
	Columns: map[string]string{
		"id":          "l.id",
		"title":       "l.title",
		"description": "l.description",
		"created_by":  "l.created_by",
		"created_at":  "l.created_at",
		"updated_at":  "l.updated_at",
	},
	DefaultSelect: []string{"id", "title", "description", "created_at", "created_by"},
	DefaultSort:   []query.SortField{{Field: "created_at", Column: "l.created_at", Desc: true}},
}

const (
	lessonColumns  = `l.id, l.title, l.description, l.created_by, l.created_at, l.updated_at`
	creatorColumns = `c.id AS creator_id, c.firstname AS creator_firstname, c.lastname AS creator_lastname, c.email AS creator_email`
	lessonFrom     = ` FROM lesson l LEFT JOIN users c ON c.id = l.created_by`
	topicColumns   = `t.id, t.lesson_id, t.title, t.description, t.created_at, t.updated_at`
)

type lessonRow struct {
	models.Lesson
	CreatorID        sql.NullInt64  `db:"creator_id"`
	CreatorFirstname sql.NullString `db:"creator_firstname"`
	CreatorLastname  sql.NullString `db:"creator_lastname"`
	CreatorEmail     sql.NullString `db:"creator_email"`
}

func (row lessonRow) toModel() models.Lesson {
	lesson := row.Lesson
	if row.CreatorID.Valid {
		lesson.Creator = &models.UserSummary{
			ID:        row.CreatorID.Int64,
			Firstname: row.CreatorFirstname.String,
			Lastname:  row.CreatorLastname.String,
			Email:     row.CreatorEmail.String,
		}
	}
	return lesson
}

// LessonRepository persists lessons and their teacher assignments.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func lessonProjection(columns []string) string {
	if len(columns) == 0 {
		return lessonColumns
	}
	for _, c := range columns {
		if c == "l.id" {
			return strings.Join(columns, ", ")
		}
	}
	return strings.Join(append([]string{"l.id"}, columns...), ", ")
}

// List returns one page of lessons with their creators.
func (r *LessonRepository) List(ctx context.Context, req *query.Request) ([]models.Lesson, error) {
	where, args := req.Predicate.Where(1)
	stmt := fmt.Sprintf("SELECT %s, %s%s%s%s LIMIT %d OFFSET %d",
		lessonProjection(req.Select), creatorColumns, lessonFrom, where, query.OrderBy(req.Sort), req.Limit, req.Offset())
	var rows []lessonRow
	if err := r.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	lessons := make([]models.Lesson, len(rows))
	for i, row := range rows {
		lessons[i] = row.toModel()
	}
	return lessons, nil
}

// Count returns how many lessons match the predicate.
func (r *LessonRepository) Count(ctx context.Context, pred query.Predicate) (int, error) {
	where, args := pred.Where(1)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+lessonFrom+where, args...); err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return total, nil
}

// FindByID returns a lesson with its creator.
func (r *LessonRepository) FindByID(ctx context.Context, id int64) (*models.Lesson, error) {
	stmt := `SELECT ` + lessonColumns + `, ` + creatorColumns + lessonFrom + ` WHERE l.id = $1`
	var row lessonRow
	if err := r.db.GetContext(ctx, &row, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	lesson := row.toModel()
	return &lesson, nil
}

// Create inserts a lesson and fills in its identifier.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now().UTC()
	}
	const stmt = `INSERT INTO lesson (title, description, created_by, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, stmt, lesson.Title, lesson.Description, lesson.CreatedBy, lesson.CreatedAt).Scan(&lesson.ID); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update writes the title and description of a lesson.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	now := time.Now().UTC()
	lesson.UpdatedAt = &now
	const stmt = `UPDATE lesson SET title = $2, description = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, stmt, lesson.ID, lesson.Title, lesson.Description, now)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return requireAffected("update lesson", res)
}

// Delete removes a lesson. Topics, quizzes and teacher links cascade in the schema.
func (r *LessonRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lesson WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return requireAffected("delete lesson", res)
}

// Teachers returns the users assigned to teach the lesson.
func (r *LessonRepository) Teachers(ctx context.Context, lessonID int64) ([]models.User, error) {
	stmt := `SELECT ` + userColumns + ` FROM user_lesson ul JOIN users u ON u.id = ul.user_id WHERE ul.lesson_id = $1 ORDER BY u.lastname, u.firstname`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, stmt, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson teachers: %w", err)
	}
	return users, nil
}

// TeachersOf returns the teachers of each lesson keyed by lesson id.
func (r *LessonRepository) TeachersOf(ctx context.Context, lessonIDs []int64) (map[int64][]models.User, error) {
	result := make(map[int64][]models.User, len(lessonIDs))
	if len(lessonIDs) == 0 {
		return result, nil
	}
	stmt := `SELECT ul.lesson_id AS owner_id, ` + userColumns + ` FROM user_lesson ul JOIN users u ON u.id = ul.user_id WHERE ul.lesson_id = ANY($1) ORDER BY u.lastname, u.firstname`
	var rows []linkedUserRow
	if err := r.db.SelectContext(ctx, &rows, stmt, pq.Array(lessonIDs)); err != nil {
		return nil, fmt.Errorf("list teachers of lessons: %w", err)
	}
	for _, row := range rows {
		result[row.OwnerID] = append(result[row.OwnerID], row.User)
	}
	return result, nil
}

// AddTeacher links a user to the lesson; an existing link is left untouched.
func (r *LessonRepository) AddTeacher(ctx context.Context, lessonID, userID int64) error {
	const stmt = `INSERT INTO user_lesson (user_id, lesson_id) VALUES ($1, $2) ON CONFLICT (user_id, lesson_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, stmt, userID, lessonID); err != nil {
		return fmt.Errorf("add lesson teacher: %w", err)
	}
	return nil
}

// RemoveTeacher unlinks a user from the lesson.
func (r *LessonRepository) RemoveTeacher(ctx context.Context, lessonID, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_lesson WHERE user_id = $1 AND lesson_id = $2`, userID, lessonID); err != nil {
		return fmt.Errorf("remove lesson teacher: %w", err)
	}
	return nil
}

type ownedLessonRow struct {
	OwnerID int64 `db:"owner_id"`
	models.Lesson
}

// LessonsOf returns the lessons taught by each user keyed by user id.
func (r *LessonRepository) LessonsOf(ctx context.Context, userIDs []int64) (map[int64][]models.Lesson, error) {
	result := make(map[int64][]models.Lesson, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	stmt := `SELECT ul.user_id AS owner_id, ` + lessonColumns + ` FROM user_lesson ul JOIN lesson l ON l.id = ul.lesson_id WHERE ul.user_id = ANY($1) ORDER BY l.created_at DESC`
	var rows []ownedLessonRow
	if err := r.db.SelectContext(ctx, &rows, stmt, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("list lessons of users: %w", err)
	}
	for _, row := range rows {
		result[row.OwnerID] = append(result[row.OwnerID], row.Lesson)
	}
	return result, nil
}

// TopicRepository persists lesson topics.
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository constructs a TopicRepository.
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// ListAll returns every topic ordered by lesson.
func (r *TopicRepository) ListAll(ctx context.Context) ([]models.Topic, error) {
	stmt := `SELECT ` + topicColumns + ` FROM topic t ORDER BY t.lesson_id, t.id`
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, stmt); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// ListByLessons returns the topics of each lesson keyed by lesson id.
func (r *TopicRepository) ListByLessons(ctx context.Context, lessonIDs []int64) (map[int64][]models.Topic, error) {
	result := make(map[int64][]models.Topic, len(lessonIDs))
	if len(lessonIDs) == 0 {
		return result, nil
	}
	stmt := `SELECT ` + topicColumns + ` FROM topic t WHERE t.lesson_id = ANY($1) ORDER BY t.id`
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, stmt, pq.Array(lessonIDs)); err != nil {
		return nil, fmt.Errorf("list topics of lessons: %w", err)
	}
	for _, topic := range topics {
		result[topic.LessonID] = append(result[topic.LessonID], topic)
	}
	return result, nil
}

// FindByID returns a topic by identifier.
func (r *TopicRepository) FindByID(ctx context.Context, id int64) (*models.Topic, error) {
	stmt := `SELECT ` + topicColumns + ` FROM topic t WHERE t.id = $1`
	var topic models.Topic
	if err := r.db.GetContext(ctx, &topic, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find topic: %w", err)
	}
	return &topic, nil
}

// Create inserts a topic and fills in its identifier.
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now().UTC()
	}
	const stmt = `INSERT INTO topic (lesson_id, title, description, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, stmt, topic.LessonID, topic.Title, topic.Description, topic.CreatedAt).Scan(&topic.ID); err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

// Update writes the title and description of a topic.
func (r *TopicRepository) Update(ctx context.Context, topic *models.Topic) error {
	now := time.Now().UTC()
	topic.UpdatedAt = &now
	const stmt = `UPDATE topic SET title = $2, description = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, stmt, topic.ID, topic.Title, topic.Description, now)
	if err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	return requireAffected("update topic", res)
}

// Delete removes a topic and, through the schema, its quizzes.
func (r *TopicRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM topic WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	return requireAffected("delete topic", res)
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/jobs"
	"github.com/noah-isme/classroom-api/pkg/pagination"
	"github.com/noah-isme/classroom-api/pkg/query"
)

// JobTypeQuizAllocation assigns a new quiz to the students of the lesson's teachers.
const JobTypeQuizAllocation = "quiz.allocate"

type quizRepository interface {
	List(ctx context.Context, req *query.Request) ([]models.Quiz, error)
	Count(ctx context.Context, pred query.Predicate) (int, error)
	ListByTopic(ctx context.Context, topicID int64) ([]models.Quiz, error)
	FindByID(ctx context.Context, id int64) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, quiz *models.Quiz) error
	Allocate(ctx context.Context, quizID int64, studentIDs []int64) (int64, error)
}

type quizTopicRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Topic, error)
}

type lessonStudentRepository interface {
	StudentIDsForLesson(ctx context.Context, lessonID int64) ([]int64, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// QuizAllocation is the payload of a quiz allocation job.
type QuizAllocation struct {
	QuizID   int64
	LessonID int64
}

// QuizService manages quizzes and their allocation to students.
type QuizService struct {
	quizzes   quizRepository
	topics    quizTopicRepository
	links     lessonStudentRepository
	queue     jobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewQuizService constructs a QuizService. Without a queue allocation runs inline.
func NewQuizService(quizzes quizRepository, topics quizTopicRepository, links lessonStudentRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &QuizService{quizzes: quizzes, topics: topics, links: links, validator: validate, logger: logger, metrics: metrics}
}

// UseQueue routes allocation through q.
func (s *QuizService) UseQueue(q jobEnqueuer) {
	s.queue = q
}

// List returns one page of quizzes with their topics.
func (s *QuizService) List(ctx context.Context, values url.Values) ([]models.Quiz, *pagination.Window, error) {
	req, err := query.Parse(values, repository.QuizQuerySchema)
	if err != nil {
		return nil, nil, err
	}
	return listPage[models.Quiz](ctx, s.quizzes, req, "quizzes")
}

// ListByTopic returns the quizzes of a topic.
func (s *QuizService) ListByTopic(ctx context.Context, topicID int64) ([]models.Quiz, error) {
	if _, err := s.topics.FindByID(ctx, topicID); err != nil {
		return nil, topicError(err, "failed to load topic")
	}
	quizzes, err := s.quizzes.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}
	if quizzes == nil {
		quizzes = []models.Quiz{}
	}
	return quizzes, nil
}

// Create stores a quiz on a topic and schedules its allocation.
func (s *QuizService) Create(ctx context.Context, topicID int64, req models.CreateQuizRequest, createdBy int64) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "duration, level and content are required")
	}
	if err := ValidateQuizContent(req.Content); err != nil {
		return nil, err
	}
	topic, err := s.topics.FindByID(ctx, topicID)
	if err != nil {
		return nil, topicError(err, "failed to load topic")
	}

	quiz := &models.Quiz{TopicID: topic.ID, Duration: req.Duration, Level: req.Level, Content: req.Content}
	if createdBy != 0 {
		quiz.CreatedBy = &createdBy
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}

	s.scheduleAllocation(ctx, QuizAllocation{QuizID: quiz.ID, LessonID: topic.LessonID})
	return quiz, nil
}

func (s *QuizService) scheduleAllocation(ctx context.Context, alloc QuizAllocation) {
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{Type: JobTypeQuizAllocation, Payload: alloc})
		if err == nil {
			return
		}
		s.logger.Warn("quiz allocation enqueue failed, allocating inline", zap.Int64("quiz_id", alloc.QuizID), zap.Error(err))
	}
	if err := s.allocate(ctx, alloc); err != nil {
		s.logger.Error("quiz allocation failed", zap.Int64("quiz_id", alloc.QuizID), zap.Error(err))
	}
}

// HandleAllocation is the queue handler for quiz allocation jobs.
func (s *QuizService) HandleAllocation(ctx context.Context, job jobs.Job) error {
	alloc, ok := job.Payload.(QuizAllocation)
	if !ok {
		s.logger.Error("unexpected quiz allocation payload", zap.String("job_id", job.ID), zap.Any("payload", job.Payload))
		return nil
	}
	return s.allocate(ctx, alloc)
}

// AllocationExhausted records a job that ran out of retries.
func (s *QuizService) AllocationExhausted(job jobs.Job, err error) {
	s.logger.Error("quiz allocation gave up", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
	s.metrics.RecordQuizAllocation(false)
}

func (s *QuizService) allocate(ctx context.Context, alloc QuizAllocation) error {
	students, err := s.links.StudentIDsForLesson(ctx, alloc.LessonID)
	if err != nil {
		return fmt.Errorf("resolve students for quiz %d: %w", alloc.QuizID, err)
	}
	created, err := s.quizzes.Allocate(ctx, alloc.QuizID, students)
	if err != nil {
		return fmt.Errorf("allocate quiz %d: %w", alloc.QuizID, err)
	}
	s.metrics.RecordQuizAllocation(true)
	s.logger.Info("quiz allocated", zap.Int64("quiz_id", alloc.QuizID), zap.Int("students", len(students)), zap.Int64("created", created))
	return nil
}

// Update applies the provided quiz fields. Content must be a well-formed question list.
func (s *QuizService) Update(ctx context.Context, id int64, req models.UpdateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		return nil, quizError(err, "failed to load quiz")
	}
	if req.Duration != nil {
		quiz.Duration = *req.Duration
	}
	if req.Level != nil {
		quiz.Level = *req.Level
	}
	if len(req.Content) > 0 {
		if err := ValidateQuizContent(req.Content); err != nil {
			return nil, err
		}
		quiz.Content = req.Content
	}
	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, quizError(err, "failed to update quiz")
	}
	return quiz, nil
}

func quizError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "Quiz not found.")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// ValidateQuizContent checks that content is an array of questions, each with a question,
// an options array and a correct answer.
func ValidateQuizContent(content types.JSONText) error {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(content, &items); err != nil || items == nil {
		return appErrors.Clone(appErrors.ErrValidation, "Content must be an array of questions")
	}
	for i, item := range items {
		if isBlank(item["question"]) || isBlank(item["options"]) || isBlank(item["correct_answer"]) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("Invalid question format at index %d", i))
		}
		var options []interface{}
		if err := json.Unmarshal(item["options"], &options); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("Options must be an array at question %d", i))
		}
	}
	return nil
}

func isBlank(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", `""`, "false", "0":
		return true
	}
	return false
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/pagination"
	"github.com/noah-isme/classroom-api/pkg/query"
)

type lessonRepository interface {
	List(ctx context.Context, req *query.Request) ([]models.Lesson, error)
	Count(ctx context.Context, pred query.Predicate) (int, error)
	FindByID(ctx context.Context, id int64) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id int64) error
	Teachers(ctx context.Context, lessonID int64) ([]models.User, error)
	AddTeacher(ctx context.Context, lessonID, userID int64) error
	RemoveTeacher(ctx context.Context, lessonID, userID int64) error
}

type topicRepository interface {
	ListAll(ctx context.Context) ([]models.Topic, error)
	ListByLessons(ctx context.Context, lessonIDs []int64) (map[int64][]models.Topic, error)
	FindByID(ctx context.Context, id int64) (*models.Topic, error)
	Create(ctx context.Context, topic *models.Topic) error
	Update(ctx context.Context, topic *models.Topic) error
	Delete(ctx context.Context, id int64) error
}

type userLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

func lessonError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "Lesson not found.")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func topicError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "Topic not found.")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// LessonService manages lessons and the teachers assigned to them.
type LessonService struct {
	lessons   lessonRepository
	topics    topicRepository
	users     userLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs a LessonService.
func NewLessonService(lessons lessonRepository, topics topicRepository, users userLookup, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LessonService{lessons: lessons, topics: topics, users: users, validator: validate, logger: logger}
}

// List returns one page of lessons.
func (s *LessonService) List(ctx context.Context, values url.Values) ([]models.Lesson, *pagination.Window, error) {
	req, err := query.Parse(values, repository.LessonQuerySchema)
	if err != nil {
		return nil, nil, err
	}
	return listPage[models.Lesson](ctx, s.lessons, req, "lessons")
}

// Get returns a lesson with its creator and topics.
func (s *LessonService) Get(ctx context.Context, id int64) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, lessonError(err, "failed to load lesson")
	}
	topics, err := s.topics.ListByLessons(ctx, []int64{id})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson topics")
	}
	lesson.Topics = topics[id]
	return lesson, nil
}

// Create stores a lesson owned by the caller.
func (s *LessonService) Create(ctx context.Context, req models.LessonRequest, createdBy int64) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	lesson := &models.Lesson{Title: strings.TrimSpace(req.Title), Description: req.Description}
	if createdBy != 0 {
		lesson.CreatedBy = &createdBy
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, lessonError(err, "failed to create lesson")
	}
	created, err := s.lessons.FindByID(ctx, lesson.ID)
	if err != nil {
		return nil, lessonError(err, "failed to load lesson")
	}
	return created, nil
}

// Update replaces the title and, when given, the description of a lesson.
func (s *LessonService) Update(ctx context.Context, id int64, req models.LessonRequest) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, lessonError(err, "failed to load lesson")
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		lesson.Title = title
	}
	if req.Description != nil && *req.Description != "" {
		lesson.Description = req.Description
	}
	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, lessonError(err, "failed to update lesson")
	}
	return lesson, nil
}

// Delete removes a lesson with its topics and quizzes.
func (s *LessonService) Delete(ctx context.Context, id int64) error {
	if err := s.lessons.Delete(ctx, id); err != nil {
		return lessonError(err, "failed to delete lesson")
	}
	return nil
}

// Teachers lists the teachers assigned to a lesson.
func (s *LessonService) Teachers(ctx context.Context, lessonID int64) ([]models.User, error) {
	if _, err := s.lessons.FindByID(ctx, lessonID); err != nil {
		return nil, lessonError(err, "failed to load lesson")
	}
	teachers, err := s.lessons.Teachers(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teachers")
	}
	if teachers == nil {
		teachers = []models.User{}
	}
	return teachers, nil
}

func (s *LessonService) resolveLessonUser(ctx context.Context, lessonID int64, req models.LessonTeacherRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "userId is required")
	}
	if _, err := s.lessons.FindByID(ctx, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Lesson or User not found")
		}
		return lessonError(err, "failed to load lesson")
	}
	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Lesson or User not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return nil
}

// AddTeacher assigns a user to teach a lesson. Repeated assignment is a no-op.
func (s *LessonService) AddTeacher(ctx context.Context, lessonID int64, req models.LessonTeacherRequest) error {
	if err := s.resolveLessonUser(ctx, lessonID, req); err != nil {
		return err
	}
	if err := s.lessons.AddTeacher(ctx, lessonID, req.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to add teacher")
	}
	return nil
}

// RemoveTeacher unassigns a user from a lesson.
func (s *LessonService) RemoveTeacher(ctx context.Context, lessonID int64, req models.LessonTeacherRequest) error {
	if err := s.resolveLessonUser(ctx, lessonID, req); err != nil {
		return err
	}
	if err := s.lessons.RemoveTeacher(ctx, lessonID, req.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to remove teacher")
	}
	return nil
}

// TopicService manages the topics of lessons.
type TopicService struct {
	topics    topicRepository
	lessons   lessonRepository
	validator *validator.Validate
}

// NewTopicService constructs a TopicService.
func NewTopicService(topics topicRepository, lessons lessonRepository, validate *validator.Validate) *TopicService {
	if validate == nil {
		validate = validator.New()
	}
	return &TopicService{topics: topics, lessons: lessons, validator: validate}
}

// ListAll returns every topic.
func (s *TopicService) ListAll(ctx context.Context) ([]models.Topic, error) {
	topics, err := s.topics.ListAll(ctx)
	if err != nil {
		return nil, topicError(err, "failed to list topics")
	}
	if topics == nil {
		topics = []models.Topic{}
	}
	return topics, nil
}

// ListByLesson returns the topics of one lesson.
func (s *TopicService) ListByLesson(ctx context.Context, lessonID int64) ([]models.Topic, error) {
	if _, err := s.lessons.FindByID(ctx, lessonID); err != nil {
		return nil, lessonError(err, "failed to load lesson")
	}
	byLesson, err := s.topics.ListByLessons(ctx, []int64{lessonID})
	if err != nil {
		return nil, topicError(err, "failed to list topics")
	}
	topics := byLesson[lessonID]
	if topics == nil {
		topics = []models.Topic{}
	}
	return topics, nil
}

// Get returns a topic by ID.
func (s *TopicService) Get(ctx context.Context, id int64) (*models.Topic, error) {
	topic, err := s.topics.FindByID(ctx, id)
	if err != nil {
		return nil, topicError(err, "failed to load topic")
	}
	return topic, nil
}

// Create adds a topic to a lesson.
func (s *TopicService) Create(ctx context.Context, lessonID int64, req models.TopicRequest) (*models.Topic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topic payload")
	}
	if _, err := s.lessons.FindByID(ctx, lessonID); err != nil {
		return nil, lessonError(err, "failed to load lesson")
	}
	topic := &models.Topic{LessonID: lessonID, Title: strings.TrimSpace(req.Title), Description: req.Description}
	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, topicError(err, "failed to create topic")
	}
	return topic, nil
}

// Update replaces the non-empty fields of a topic.
func (s *TopicService) Update(ctx context.Context, id int64, req models.TopicRequest) (*models.Topic, error) {
	topic, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		topic.Title = title
	}
	if req.Description != "" {
		topic.Description = req.Description
	}
	if err := s.topics.Update(ctx, topic); err != nil {
		return nil, topicError(err, "failed to update topic")
	}
	return topic, nil
}

// Delete removes a topic and its quizzes.
func (s *TopicService) Delete(ctx context.Context, id int64) error {
	if err := s.topics.Delete(ctx, id); err != nil {
		return topicError(err, "failed to delete topic")
	}
	return nil
}

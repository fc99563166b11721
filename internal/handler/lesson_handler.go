package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/pagination"
	"github.com/noah-isme/classroom-api/pkg/response"
)

type lessonService interface {
	List(ctx context.Context, values url.Values) ([]models.Lesson, *pagination.Window, error)
	Get(ctx context.Context, id int64) (*models.Lesson, error)
	Create(ctx context.Context, req models.LessonRequest, createdBy int64) (*models.Lesson, error)
	Update(ctx context.Context, id int64, req models.LessonRequest) (*models.Lesson, error)
	Delete(ctx context.Context, id int64) error
	Teachers(ctx context.Context, lessonID int64) ([]models.User, error)
	AddTeacher(ctx context.Context, lessonID int64, req models.LessonTeacherRequest) error
	RemoveTeacher(ctx context.Context, lessonID int64, req models.LessonTeacherRequest) error
}

type topicService interface {
	ListAll(ctx context.Context) ([]models.Topic, error)
	ListByLesson(ctx context.Context, lessonID int64) ([]models.Topic, error)
	Get(ctx context.Context, id int64) (*models.Topic, error)
	Create(ctx context.Context, lessonID int64, req models.TopicRequest) (*models.Topic, error)
	Update(ctx context.Context, id int64, req models.TopicRequest) (*models.Topic, error)
	Delete(ctx context.Context, id int64) error
}

// LessonHandler exposes lessons, their topics and their teachers.
type LessonHandler struct {
	lessons lessonService
	topics  topicService
}

// NewLessonHandler constructs a LessonHandler.
func NewLessonHandler(lessons lessonService, topics topicService) *LessonHandler {
	return &LessonHandler{lessons: lessons, topics: topics}
}

// List godoc
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Param page query int false "page number"
// @Param limit query int false "page size"
// @Success 200 {object} map[string]interface{}
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	lessons, window, err := h.lessons.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "lessons", lessons, window)
}

// Get godoc
// @Summary Lesson with creator and topics
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /lesson/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	lesson, err := h.lessons.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"lesson": lesson})
}

// Create godoc
// @Summary Create lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.LessonRequest true "Lesson"
// @Success 201 {object} map[string]interface{}
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req models.LessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.lessons.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"lesson": lesson, "message": "Successfully created lesson"})
}

// Update godoc
// @Summary Update lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Param payload body models.LessonRequest true "Lesson"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /lesson/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.LessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.lessons.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"lesson": lesson})
}

// Delete godoc
// @Summary Delete lesson
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /lesson/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.lessons.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Lesson successfully deleted.")
}

// Teachers godoc
// @Summary Teachers of a lesson
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} map[string]interface{}
// @Router /lesson/{id}/teachers [get]
func (h *LessonHandler) Teachers(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	teachers, err := h.lessons.Teachers(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"teachers": teachers})
}

// AddTeacher godoc
// @Summary Assign a teacher to a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Param payload body models.LessonTeacherRequest true "Teacher"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /lesson/{id}/teachers [post]
func (h *LessonHandler) AddTeacher(c *gin.Context) {
	h.changeTeacher(c, h.lessons.AddTeacher, "Teacher added to lesson successfully")
}

// RemoveTeacher godoc
// @Summary Unassign a teacher from a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Param payload body models.LessonTeacherRequest true "Teacher"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /lesson/{id}/teachers [delete]
func (h *LessonHandler) RemoveTeacher(c *gin.Context) {
	h.changeTeacher(c, h.lessons.RemoveTeacher, "Teacher removed from lesson successfully")
}

func (h *LessonHandler) changeTeacher(c *gin.Context, apply func(context.Context, int64, models.LessonTeacherRequest) error, message string) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.LessonTeacherRequest
	if !bindJSON(c, &req, "userId is required") {
		return
	}
	if err := apply(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, message)
}

// AllTopics godoc
// @Summary List every topic
// @Tags Topics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /topics [get]
func (h *LessonHandler) AllTopics(c *gin.Context) {
	topics, err := h.topics.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"topics": topics})
}

// Topics godoc
// @Summary Topics of a lesson
// @Tags Topics
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /lesson/{id}/topics [get]
func (h *LessonHandler) Topics(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	topics, err := h.topics.ListByLesson(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"topics": topics})
}

// Topic godoc
// @Summary Get topic
// @Tags Topics
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /topic/{id} [get]
func (h *LessonHandler) Topic(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	topic, err := h.topics.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"topic": topic})
}

// CreateTopic godoc
// @Summary Create topic
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Param payload body models.TopicRequest true "Topic"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /lesson/{id}/topics [post]
func (h *LessonHandler) CreateTopic(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.TopicRequest
	if !bindJSON(c, &req, "invalid topic payload") {
		return
	}
	topic, err := h.topics.Create(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"topic": topic})
}

// UpdateTopic godoc
// @Summary Update topic
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Param payload body models.TopicRequest true "Topic"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /topic/{id} [put]
func (h *LessonHandler) UpdateTopic(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.TopicRequest
	if !bindJSON(c, &req, "invalid topic payload") {
		return
	}
	topic, err := h.topics.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"topic": topic})
}

// DeleteTopic godoc
// @Summary Delete topic
// @Tags Topics
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /topic/{id} [delete]
func (h *LessonHandler) DeleteTopic(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.topics.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Topic successfully deleted.")
}

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

type quizService interface {
	List(ctx context.Context, values url.Values) ([]models.Quiz, *pagination.Window, error)
	ListByTopic(ctx context.Context, topicID int64) ([]models.Quiz, error)
	Create(ctx context.Context, topicID int64, req models.CreateQuizRequest, createdBy int64) (*models.Quiz, error)
	Update(ctx context.Context, id int64, req models.UpdateQuizRequest) (*models.Quiz, error)
}

// QuizHandler exposes quiz endpoints.
type QuizHandler struct {
	service quizService
}

// NewQuizHandler constructs a QuizHandler.
func NewQuizHandler(svc quizService) *QuizHandler {
	return &QuizHandler{service: svc}
}

// ByTopic godoc
// @Summary Quizzes of a topic
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /topic/{id}/quiz [get]
func (h *QuizHandler) ByTopic(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	quizzes, err := h.service.ListByTopic(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"quizzes": quizzes})
}

// Create godoc
// @Summary Create quiz
// @Description Stores the quiz and assigns it to the students of the lesson's teachers in the background
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Param payload body models.CreateQuizRequest true "Quiz"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /topic/{id}/quiz [post]
func (h *QuizHandler) Create(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateQuizRequest
	if !bindJSON(c, &req, "invalid quiz payload") {
		return
	}
	quiz, err := h.service.Create(c.Request.Context(), id, req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"quiz": quiz, "message": "Quiz successfully created and assigned to students."})
}

// List godoc
// @Summary List quizzes
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Param page query int false "page number"
// @Param limit query int false "page size"
// @Success 200 {object} map[string]interface{}
// @Router /quizzes [get]
func (h *QuizHandler) List(c *gin.Context) {
	quizzes, window, err := h.service.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "quizzes", quizzes, window)
}

// Update godoc
// @Summary Update quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quiz ID"
// @Param payload body models.UpdateQuizRequest true "Changes"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /quiz/{id} [put]
func (h *QuizHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateQuizRequest
	if !bindJSON(c, &req, "invalid quiz payload") {
		return
	}
	quiz, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"quiz": quiz})
}

package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/pkg/pagination"
	"github.com/noah-isme/classroom-api/pkg/response"
)

type rosterService interface {
	Teachers(ctx context.Context) ([]models.User, error)
	Students(ctx context.Context) ([]models.User, error)
	AllTeachers(ctx context.Context, values url.Values) ([]models.User, *pagination.Window, error)
	AllStudents(ctx context.Context, values url.Values) ([]models.User, *pagination.Window, error)
	StudentsOf(ctx context.Context, teacherID int64) (*models.User, []models.User, error)
	Assign(ctx context.Context, req models.TeacherStudentRequest) (bool, error)
	Remove(ctx context.Context, req models.TeacherStudentRequest) error
	ExportRoster(ctx context.Context, teacherID int64, format string) (*service.RosterExport, error)
}

// TeacherHandler exposes teacher and student rosters.
type TeacherHandler struct {
	service rosterService
}

// NewTeacherHandler constructs a TeacherHandler.
func NewTeacherHandler(svc rosterService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

// Teachers godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /core/teachers [get]
func (h *TeacherHandler) Teachers(c *gin.Context) {
	teachers, err := h.service.Teachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"teachers": teachers})
}

// AllTeachers godoc
// @Summary Paginated teachers with lessons and students
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param page query int false "page number"
// @Param limit query int false "page size"
// @Success 200 {object} map[string]interface{}
// @Router /core/all-teachers [get]
func (h *TeacherHandler) AllTeachers(c *gin.Context) {
	teachers, window, err := h.service.AllTeachers(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "teachers", teachers, window)
}

// Students godoc
// @Summary List students
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /core/students [get]
func (h *TeacherHandler) Students(c *gin.Context) {
	students, err := h.service.Students(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"students": students})
}

// AllStudents godoc
// @Summary Paginated students with their teachers
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param page query int false "page number"
// @Param limit query int false "page size"
// @Success 200 {object} map[string]interface{}
// @Router /core/all-students [get]
func (h *TeacherHandler) AllStudents(c *gin.Context) {
	students, window, err := h.service.AllStudents(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "students", students, window)
}

// StudentsOf godoc
// @Summary Students of a teacher
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /core/teachers/{id}/students [get]
func (h *TeacherHandler) StudentsOf(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	teacher, students, err := h.service.StudentsOf(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"teacher": teacher, "students": students})
}

// Export godoc
// @Summary Export a teacher's student roster
// @Tags Teachers
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "Teacher ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /core/teachers/{id}/students/export [get]
func (h *TeacherHandler) Export(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.ExportRoster(c.Request.Context(), id, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// AddStudent godoc
// @Summary Assign a student to a teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.TeacherStudentRequest true "Teacher and student"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /core/add-student-to-teacher [post]
func (h *TeacherHandler) AddStudent(c *gin.Context) {
	var req models.TeacherStudentRequest
	if !bindJSON(c, &req, "Teacher ID and Student ID are required.") {
		return
	}
	created, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !created {
		response.Message(c, "Student is already assigned to this teacher.")
		return
	}
	response.Message(c, "Student successfully assigned to teacher.")
}

// RemoveStudent godoc
// @Summary Remove a student from a teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.TeacherStudentRequest true "Teacher and student"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /core/remove-student [post]
func (h *TeacherHandler) RemoveStudent(c *gin.Context) {
	var req models.TeacherStudentRequest
	if !bindJSON(c, &req, "Teacher ID and Student ID are required.") {
		return
	}
	if err := h.service.Remove(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Student successfully removed from the teacher.")
}

package handler

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/service"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/pagination"
)

type stubRosterService struct {
	created    bool
	err        error
	export     *service.RosterExport
	exportArgs []string
	window     *pagination.Window
}

func (s *stubRosterService) Teachers(context.Context) ([]models.User, error) {
	return []models.User{{ID: 10, Username: "tea"}}, s.err
}

func (s *stubRosterService) Students(context.Context) ([]models.User, error) {
	return []models.User{}, s.err
}

func (s *stubRosterService) AllTeachers(context.Context, url.Values) ([]models.User, *pagination.Window, error) {
	return []models.User{{ID: 10}}, s.window, s.err
}

func (s *stubRosterService) AllStudents(context.Context, url.Values) ([]models.User, *pagination.Window, error) {
	return []models.User{}, s.window, s.err
}

func (s *stubRosterService) StudentsOf(_ context.Context, teacherID int64) (*models.User, []models.User, error) {
	return &models.User{ID: teacherID}, []models.User{}, s.err
}

func (s *stubRosterService) Assign(context.Context, models.TeacherStudentRequest) (bool, error) {
	return s.created, s.err
}

func (s *stubRosterService) Remove(context.Context, models.TeacherStudentRequest) error {
	return s.err
}

func (s *stubRosterService) ExportRoster(_ context.Context, teacherID int64, format string) (*service.RosterExport, error) {
	s.exportArgs = append(s.exportArgs, format)
	return s.export, s.err
}

func TestTeacherHandlerExport(t *testing.T) {
	svc := &stubRosterService{export: &service.RosterExport{
		Filename:    "teacher_10_students.csv",
		ContentType: "text/csv; charset=utf-8",
		Body:        []byte("ID,Username\n20,stu\n"),
	}}
	h := NewTeacherHandler(svc)

	c, w := newTestContext(http.MethodGet, "/api/core/teachers/10/students/export?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "10"}}
	h.Export(c)

	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, []string{"csv"}, svc.exportArgs)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="teacher_10_students.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID,Username\n20,stu\n", w.Body.String())
}

func TestTeacherHandlerExportRejectsBadID(t *testing.T) {
	svc := &stubRosterService{}
	h := NewTeacherHandler(svc)

	c, w := newTestContext(http.MethodGet, "/api/core/teachers/abc/students/export", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Export(c)

	assertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "invalid id", decodeBody(t, w)["message"])
	assert.Empty(t, svc.exportArgs)
}

func TestTeacherHandlerAddStudentMessages(t *testing.T) {
	payload := map[string]int64{"teacherId": 10, "studentId": 20}

	c, w := newTestContext(http.MethodPost, "/api/core/add-student-to-teacher", payload)
	NewTeacherHandler(&stubRosterService{created: true}).AddStudent(c)
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "Student successfully assigned to teacher.", decodeBody(t, w)["message"])

	c, w = newTestContext(http.MethodPost, "/api/core/add-student-to-teacher", payload)
	NewTeacherHandler(&stubRosterService{}).AddStudent(c)
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "Student is already assigned to this teacher.", decodeBody(t, w)["message"])

	c, w = newTestContext(http.MethodPost, "/api/core/add-student-to-teacher", payload)
	NewTeacherHandler(&stubRosterService{err: appErrors.Clone(appErrors.ErrValidation, "user is not a student")}).AddStudent(c)
	assertStatus(t, w, http.StatusBadRequest)
}

func TestTeacherHandlerRemoveStudentNotAssigned(t *testing.T) {
	svc := &stubRosterService{err: appErrors.Clone(appErrors.ErrNotFound, "Student not assigned to this teacher")}

	c, w := newTestContext(http.MethodPost, "/api/core/remove-student", map[string]int64{"teacherId": 10, "studentId": 20})
	NewTeacherHandler(svc).RemoveStudent(c)

	assertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Student not assigned to this teacher", decodeBody(t, w)["message"])
}

func TestTeacherHandlerAllTeachersIncludesPagination(t *testing.T) {
	svc := &stubRosterService{window: pagination.New(1, 1, 25)}

	c, w := newTestContext(http.MethodGet, "/api/core/all-teachers", nil)
	NewTeacherHandler(svc).AllTeachers(c)

	assertStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	window, ok := body["pagination"].(map[string]interface{})
	assert.True(t, ok)
	assert.EqualValues(t, 1, window["total"])
	assert.Len(t, body["teachers"], 1)
}

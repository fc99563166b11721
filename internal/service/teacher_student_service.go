package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/export"
	"github.com/noah-isme/classroom-api/pkg/pagination"
	"github.com/noah-isme/classroom-api/pkg/query"
)

type rosterUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	List(ctx context.Context, req *query.Request) ([]models.User, error)
	Count(ctx context.Context, pred query.Predicate) (int, error)
}

type rosterLinkRepository interface {
	Assign(ctx context.Context, teacherID, studentID int64) (bool, error)
	Remove(ctx context.Context, teacherID, studentID int64) (bool, error)
	StudentsOf(ctx context.Context, teacherIDs []int64) (map[int64][]models.User, error)
}

type rosterEnricher interface {
	EnrichTeachers(ctx context.Context, teachers []models.User) error
	EnrichStudents(ctx context.Context, students []models.User) error
}

type rosterRenderer interface {
	Render(format export.Format, data export.Dataset) ([]byte, error)
}

// RosterExport is a rendered student roster.
type RosterExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// TeacherStudentService manages which students are assigned to which teachers.
type TeacherStudentService struct {
	users     rosterUserRepository
	links     rosterLinkRepository
	profiles  rosterEnricher
	exporter  rosterRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherStudentService constructs a TeacherStudentService.
func NewTeacherStudentService(users rosterUserRepository, links rosterLinkRepository, profiles rosterEnricher, exporter rosterRenderer, validate *validator.Validate, logger *zap.Logger) *TeacherStudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if exporter == nil {
		exporter = export.NewExporter()
	}
	return &TeacherStudentService{users: users, links: links, profiles: profiles, exporter: exporter, validator: validate, logger: logger}
}

func (s *TeacherStudentService) byRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users by role")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// Teachers returns every user holding the Teacher role.
func (s *TeacherStudentService) Teachers(ctx context.Context) ([]models.User, error) {
	return s.byRole(ctx, models.RoleTeacher)
}

// Students returns every user holding the Student role.
func (s *TeacherStudentService) Students(ctx context.Context) ([]models.User, error) {
	return s.byRole(ctx, models.RoleStudent)
}

// AllTeachers returns one page of teachers with their lessons and students attached.
func (s *TeacherStudentService) AllTeachers(ctx context.Context, values url.Values) ([]models.User, *pagination.Window, error) {
	req, err := roleScoped(values, models.RoleTeacher)
	if err != nil {
		return nil, nil, err
	}
	teachers, window, err := listPage[models.User](ctx, s.users, req, "teachers")
	if err != nil {
		return nil, nil, err
	}
	if err := s.profiles.EnrichTeachers(ctx, teachers); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher relations")
	}
	return teachers, window, nil
}

// AllStudents returns one page of students with their teachers attached.
func (s *TeacherStudentService) AllStudents(ctx context.Context, values url.Values) ([]models.User, *pagination.Window, error) {
	req, err := roleScoped(values, models.RoleStudent)
	if err != nil {
		return nil, nil, err
	}
	students, window, err := listPage[models.User](ctx, s.users, req, "students")
	if err != nil {
		return nil, nil, err
	}
	if err := s.profiles.EnrichStudents(ctx, students); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student relations")
	}
	return students, window, nil
}

func (s *TeacherStudentService) findUser(ctx context.Context, id int64, label string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, label+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+strings.ToLower(label))
	}
	return user, nil
}

// StudentsOf returns the teacher and the students assigned to it.
func (s *TeacherStudentService) StudentsOf(ctx context.Context, teacherID int64) (*models.User, []models.User, error) {
	teacher, err := s.findUser(ctx, teacherID, "Teacher")
	if err != nil {
		return nil, nil, err
	}
	links, err := s.links.StudentsOf(ctx, []int64{teacherID})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	students := links[teacherID]
	if students == nil {
		students = []models.User{}
	}
	teacher.Students = students
	return teacher, students, nil
}

// Assign links a student to a teacher. It reports false when the link already existed.
func (s *TeacherStudentService) Assign(ctx context.Context, req models.TeacherStudentRequest) (bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Teacher ID and Student ID are required.")
	}
	teacher, err := s.findUser(ctx, req.TeacherID, "Teacher")
	if err != nil {
		return false, err
	}
	student, err := s.findUser(ctx, req.StudentID, "Student")
	if err != nil {
		return false, err
	}
	if teacher.RoleName() != models.RoleTeacher {
		return false, appErrors.Clone(appErrors.ErrValidation, "user is not a teacher")
	}
	if student.RoleName() != models.RoleStudent {
		return false, appErrors.Clone(appErrors.ErrValidation, "user is not a student")
	}

	created, err := s.links.Assign(ctx, teacher.ID, student.ID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign student")
	}
	if created {
		s.logger.Info("student assigned", zap.Int64("teacher_id", teacher.ID), zap.Int64("student_id", student.ID))
	}
	return created, nil
}

// Remove unlinks a student from a teacher.
func (s *TeacherStudentService) Remove(ctx context.Context, req models.TeacherStudentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Teacher ID and Student ID are required.")
	}
	if _, err := s.findUser(ctx, req.TeacherID, "Teacher"); err != nil {
		return err
	}
	removed, err := s.links.Remove(ctx, req.TeacherID, req.StudentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "Student not assigned to this teacher")
	}
	s.logger.Info("student removed", zap.Int64("teacher_id", req.TeacherID), zap.Int64("student_id", req.StudentID))
	return nil
}

var rosterHeaders = []string{"ID", "Username", "First name", "Last name", "Email", "Phone"}

// ExportRoster renders the students of a teacher in the requested format.
func (s *TeacherStudentService) ExportRoster(ctx context.Context, teacherID int64, rawFormat string) (*RosterExport, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	teacher, students, err := s.StudentsOf(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:   fmt.Sprintf("Students of %s %s", teacher.Firstname, teacher.Lastname),
		Headers: rosterHeaders,
		Rows:    make([]map[string]string, 0, len(students)),
	}
	for _, st := range students {
		phone := ""
		if st.Phone != nil {
			phone = *st.Phone
		}
		data.Rows = append(data.Rows, map[string]string{
			"ID":         strconv.FormatInt(st.ID, 10),
			"Username":   st.Username,
			"First name": st.Firstname,
			"Last name":  st.Lastname,
			"Email":      st.Email,
			"Phone":      phone,
		})
	}

	body, err := s.exporter.Render(format, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	return &RosterExport{
		Filename:    fmt.Sprintf("teacher_%d_students.%s", teacherID, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

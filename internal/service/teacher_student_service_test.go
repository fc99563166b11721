package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

type fakeLinkStore struct {
	users *fakeUserStore
	pairs map[[2]int64]bool
}

func (f *fakeLinkStore) Assign(_ context.Context, teacherID, studentID int64) (bool, error) {
	key := [2]int64{teacherID, studentID}
	if f.pairs[key] {
		return false, nil
	}
	f.pairs[key] = true
	return true, nil
}

func (f *fakeLinkStore) Remove(_ context.Context, teacherID, studentID int64) (bool, error) {
	key := [2]int64{teacherID, studentID}
	if !f.pairs[key] {
		return false, nil
	}
	delete(f.pairs, key)
	return true, nil
}

func (f *fakeLinkStore) StudentsOf(_ context.Context, teacherIDs []int64) (map[int64][]models.User, error) {
	out := map[int64][]models.User{}
	for _, teacherID := range teacherIDs {
		for _, u := range f.users.sorted() {
			if f.pairs[[2]int64{teacherID, u.ID}] {
				out[teacherID] = append(out[teacherID], u)
			}
		}
	}
	return out, nil
}

type countingRosterEnricher struct {
	teachers int
	students int
}

func (c *countingRosterEnricher) EnrichTeachers(_ context.Context, teachers []models.User) error {
	c.teachers += len(teachers)
	return nil
}

func (c *countingRosterEnricher) EnrichStudents(_ context.Context, students []models.User) error {
	c.students += len(students)
	return nil
}

func newRosterFixture() (*TeacherStudentService, *fakeUserStore, *fakeLinkStore, *countingRosterEnricher) {
	phone := "555-0100"
	student := newUser(20, "stu", models.RoleStudent)
	student.Firstname = "Stu"
	student.Lastname = "Dent"
	student.Phone = &phone
	teacher := newUser(10, "tea", models.RoleTeacher)
	teacher.Firstname = "Tea"
	teacher.Lastname = "Cher"

	users := newFakeUserStore(newUser(1, "admin", models.RoleAdmin), teacher, student, newUser(21, "other", models.RoleStudent))
	links := &fakeLinkStore{users: users, pairs: map[[2]int64]bool{}}
	enricher := &countingRosterEnricher{}
	svc := NewTeacherStudentService(users, links, enricher, nil, nil, nil)
	return svc, users, links, enricher
}

func TestTeacherStudentServiceAssignIsIdempotent(t *testing.T) {
	svc, _, links, _ := newRosterFixture()
	req := models.TeacherStudentRequest{TeacherID: 10, StudentID: 20}

	created, err := svc.Assign(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Assign(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, links.pairs, 1)
}

func TestTeacherStudentServiceAssignChecksRoles(t *testing.T) {
	svc, _, links, _ := newRosterFixture()

	tests := []struct {
		name    string
		req     models.TeacherStudentRequest
		wantErr *appErrors.Error
		message string
	}{
		{name: "student as teacher", req: models.TeacherStudentRequest{TeacherID: 21, StudentID: 20}, wantErr: appErrors.ErrValidation, message: "user is not a teacher"},
		{name: "admin as student", req: models.TeacherStudentRequest{TeacherID: 10, StudentID: 1}, wantErr: appErrors.ErrValidation, message: "user is not a student"},
		{name: "unknown teacher", req: models.TeacherStudentRequest{TeacherID: 99, StudentID: 20}, wantErr: appErrors.ErrNotFound, message: "Teacher not found"},
		{name: "unknown student", req: models.TeacherStudentRequest{TeacherID: 10, StudentID: 99}, wantErr: appErrors.ErrNotFound, message: "Student not found"},
		{name: "missing ids", req: models.TeacherStudentRequest{TeacherID: 10}, wantErr: appErrors.ErrValidation, message: "Teacher ID and Student ID are required."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Assign(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.message, appErrors.FromError(err).Message)
		})
	}
	assert.Empty(t, links.pairs)
}

func TestTeacherStudentServiceRemove(t *testing.T) {
	svc, _, links, _ := newRosterFixture()
	req := models.TeacherStudentRequest{TeacherID: 10, StudentID: 20}

	err := svc.Remove(context.Background(), req)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "Student not assigned to this teacher", appErrors.FromError(err).Message)

	_, err = svc.Assign(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(context.Background(), req))
	assert.Empty(t, links.pairs)
}

func TestTeacherStudentServiceStudentsOf(t *testing.T) {
	svc, _, _, _ := newRosterFixture()

	teacher, students, err := svc.StudentsOf(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "tea", teacher.Username)
	assert.NotNil(t, students)
	assert.Empty(t, students)

	_, err = svc.Assign(context.Background(), models.TeacherStudentRequest{TeacherID: 10, StudentID: 20})
	require.NoError(t, err)
	teacher, students, err = svc.StudentsOf(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, students, teacher.Students)
}

func TestTeacherStudentServiceExportRosterCSV(t *testing.T) {
	svc, _, _, _ := newRosterFixture()
	_, err := svc.Assign(context.Background(), models.TeacherStudentRequest{TeacherID: 10, StudentID: 20})
	require.NoError(t, err)

	out, err := svc.ExportRoster(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Equal(t, "teacher_10_students.csv", out.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", out.ContentType)
	assert.Equal(t, "ID,Username,First name,Last name,Email,Phone\n20,stu,Stu,Dent,stu@example.com,555-0100\n", string(out.Body))
}

func TestTeacherStudentServiceExportRosterPDF(t *testing.T) {
	svc, _, _, _ := newRosterFixture()

	out, err := svc.ExportRoster(context.Background(), 10, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.Equal(t, "teacher_10_students.pdf", out.Filename)
	assert.True(t, len(out.Body) > 4 && string(out.Body[:4]) == "%PDF")
}

func TestTeacherStudentServiceExportRosterRejectsFormat(t *testing.T) {
	svc, _, _, _ := newRosterFixture()

	_, err := svc.ExportRoster(context.Background(), 10, "xlsx")
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ExportRoster(context.Background(), 99, "csv")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTeacherStudentServiceListings(t *testing.T) {
	svc, _, _, enricher := newRosterFixture()

	teachers, err := svc.Teachers(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 1)

	students, err := svc.Students(context.Background())
	require.NoError(t, err)
	assert.Len(t, students, 2)

	_, window, err := svc.AllStudents(context.Background(), url.Values{"page": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, window.Page)
	assert.Positive(t, enricher.students)

	_, _, err = svc.AllTeachers(context.Background(), url.Values{"sort": {"shoe_size"}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
)

type stubProfileLessons map[int64][]models.Lesson

func (s stubProfileLessons) LessonsOf(_ context.Context, userIDs []int64) (map[int64][]models.Lesson, error) {
	out := map[int64][]models.Lesson{}
	for _, id := range userIDs {
		if lessons, ok := s[id]; ok {
			out[id] = append([]models.Lesson(nil), lessons...)
		}
	}
	return out, nil
}

type stubProfileLinks struct {
	students map[int64][]models.User
	teachers map[int64][]models.User
}

func (s stubProfileLinks) StudentsOf(context.Context, []int64) (map[int64][]models.User, error) {
	return s.students, nil
}

func (s stubProfileLinks) TeachersOf(context.Context, []int64) (map[int64][]models.User, error) {
	return s.teachers, nil
}

type stubProfileQuizzes map[int64][]models.Quiz

func (s stubProfileQuizzes) QuizzesOf(context.Context, []int64) (map[int64][]models.Quiz, error) {
	return s, nil
}

func newProfileFixture() *ProfileService {
	lessons := stubProfileLessons{10: {{ID: 2, Title: "Math"}}}
	topics := newFakeTopicStore(&models.Topic{ID: 5, LessonID: 2, Title: "Fractions"})
	teacher := newUser(10, "tea", models.RoleTeacher)
	links := stubProfileLinks{
		students: map[int64][]models.User{10: {*newUser(20, "stu", models.RoleStudent)}},
		teachers: map[int64][]models.User{20: {*teacher}},
	}
	quizzes := stubProfileQuizzes{20: {{ID: 301, TopicID: 5}}}
	return NewProfileService(lessons, topics, links, quizzes)
}

func TestProfileServiceEnrichTeacher(t *testing.T) {
	svc := newProfileFixture()
	teacher := newUser(10, "tea", models.RoleTeacher)

	require.NoError(t, svc.Enrich(context.Background(), teacher))
	require.Len(t, teacher.Lessons, 1)
	require.Len(t, teacher.Lessons[0].Topics, 1)
	assert.Equal(t, "Fractions", teacher.Lessons[0].Topics[0].Title)
	assert.Empty(t, teacher.Quizzes)
}

func TestProfileServiceEnrichStudent(t *testing.T) {
	svc := newProfileFixture()
	student := newUser(20, "stu", models.RoleStudent)

	require.NoError(t, svc.Enrich(context.Background(), student))
	require.Len(t, student.Teachers, 1)
	assert.Equal(t, "tea", student.Teachers[0].Username)
	require.Len(t, student.Teachers[0].Lessons, 1)
	require.Len(t, student.Quizzes, 1)
	assert.Equal(t, int64(301), student.Quizzes[0].ID)
}

func TestProfileServiceEnrichAdminIsUntouched(t *testing.T) {
	svc := newProfileFixture()
	admin := newUser(1, "admin", models.RoleAdmin)

	require.NoError(t, svc.Enrich(context.Background(), admin))
	assert.Nil(t, admin.Lessons)
	assert.Nil(t, admin.Teachers)
	assert.NoError(t, svc.Enrich(context.Background(), nil))
}

func TestProfileServiceEnrichTeachersAttachesStudents(t *testing.T) {
	svc := newProfileFixture()
	teachers := []models.User{*newUser(10, "tea", models.RoleTeacher)}

	require.NoError(t, svc.EnrichTeachers(context.Background(), teachers))
	require.Len(t, teachers[0].Students, 1)
	assert.Equal(t, "stu", teachers[0].Students[0].Username)
	assert.Len(t, teachers[0].Lessons, 1)
}

package service

import (
	"context"
	"fmt"

	"github.com/noah-isme/classroom-api/internal/models"
)

type profileLessonRepository interface {
	LessonsOf(ctx context.Context, userIDs []int64) (map[int64][]models.Lesson, error)
}

type profileTopicRepository interface {
	ListByLessons(ctx context.Context, lessonIDs []int64) (map[int64][]models.Topic, error)
}

type profileLinkRepository interface {
	StudentsOf(ctx context.Context, teacherIDs []int64) (map[int64][]models.User, error)
	TeachersOf(ctx context.Context, studentIDs []int64) (map[int64][]models.User, error)
}

type profileQuizRepository interface {
	QuizzesOf(ctx context.Context, studentIDs []int64) (map[int64][]models.Quiz, error)
}

type profileLoader func(ctx context.Context, users []models.User) error

// ProfileService attaches role-dependent relations to users.
type ProfileService struct {
	lessons profileLessonRepository
	topics  profileTopicRepository
	links   profileLinkRepository
	quizzes profileQuizRepository
	loaders map[models.UserRole]profileLoader
}

// NewProfileService constructs a ProfileService.
func NewProfileService(lessons profileLessonRepository, topics profileTopicRepository, links profileLinkRepository, quizzes profileQuizRepository) *ProfileService {
	s := &ProfileService{lessons: lessons, topics: topics, links: links, quizzes: quizzes}
	s.loaders = map[models.UserRole]profileLoader{
		models.RoleTeacher: s.attachLessons,
		models.RoleStudent: s.attachStudentProfile,
	}
	return s
}

// Enrich loads the relations registered for the user's role. Roles without a loader are left as is.
func (s *ProfileService) Enrich(ctx context.Context, user *models.User) error {
	if user == nil {
		return nil
	}
	loader, ok := s.loaders[user.RoleName()]
	if !ok {
		return nil
	}
	users := []models.User{*user}
	if err := loader(ctx, users); err != nil {
		return err
	}
	*user = users[0]
	return nil
}

// EnrichTeachers attaches lessons with topics and the assigned students.
func (s *ProfileService) EnrichTeachers(ctx context.Context, teachers []models.User) error {
	if err := s.attachLessons(ctx, teachers); err != nil {
		return err
	}
	students, err := s.links.StudentsOf(ctx, userIDs(teachers))
	if err != nil {
		return fmt.Errorf("load teacher students: %w", err)
	}
	for i := range teachers {
		teachers[i].Students = students[teachers[i].ID]
	}
	return nil
}

// EnrichStudents attaches each student's teachers with their lessons.
func (s *ProfileService) EnrichStudents(ctx context.Context, students []models.User) error {
	return s.attachTeachers(ctx, students)
}

func (s *ProfileService) attachStudentProfile(ctx context.Context, students []models.User) error {
	if err := s.attachTeachers(ctx, students); err != nil {
		return err
	}
	quizzes, err := s.quizzes.QuizzesOf(ctx, userIDs(students))
	if err != nil {
		return fmt.Errorf("load student quizzes: %w", err)
	}
	for i := range students {
		students[i].Quizzes = quizzes[students[i].ID]
	}
	return nil
}

func (s *ProfileService) attachTeachers(ctx context.Context, students []models.User) error {
	teachersByStudent, err := s.links.TeachersOf(ctx, userIDs(students))
	if err != nil {
		return fmt.Errorf("load student teachers: %w", err)
	}

	seen := make(map[int64]struct{})
	var teachers []models.User
	for _, list := range teachersByStudent {
		for _, t := range list {
			if _, ok := seen[t.ID]; !ok {
				seen[t.ID] = struct{}{}
				teachers = append(teachers, t)
			}
		}
	}
	if err := s.attachLessons(ctx, teachers); err != nil {
		return err
	}
	enriched := make(map[int64]models.User, len(teachers))
	for _, t := range teachers {
		enriched[t.ID] = t
	}

	for i := range students {
		list := teachersByStudent[students[i].ID]
		attached := make([]models.User, len(list))
		for j, t := range list {
			attached[j] = enriched[t.ID]
		}
		students[i].Teachers = attached
	}
	return nil
}

func (s *ProfileService) attachLessons(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	lessonsByUser, err := s.lessons.LessonsOf(ctx, userIDs(users))
	if err != nil {
		return fmt.Errorf("load lessons: %w", err)
	}

	var lessonIDs []int64
	for _, lessons := range lessonsByUser {
		for _, l := range lessons {
			lessonIDs = append(lessonIDs, l.ID)
		}
	}
	topics, err := s.topics.ListByLessons(ctx, lessonIDs)
	if err != nil {
		return fmt.Errorf("load lesson topics: %w", err)
	}

	for i := range users {
		lessons := lessonsByUser[users[i].ID]
		for j := range lessons {
			lessons[j].Topics = topics[lessons[j].ID]
		}
		users[i].Lessons = lessons
	}
	return nil
}

func userIDs(users []models.User) []int64 {
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

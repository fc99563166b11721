package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/jobs"
	"github.com/noah-isme/classroom-api/pkg/query"
)

type fakeLessonStore struct {
	lessons  map[int64]*models.Lesson
	teachers map[int64][]int64
	users    *fakeUserStore
	nextID   int64
}

func newFakeLessonStore(users *fakeUserStore, lessons ...*models.Lesson) *fakeLessonStore {
	s := &fakeLessonStore{lessons: map[int64]*models.Lesson{}, teachers: map[int64][]int64{}, users: users, nextID: 10}
	for _, l := range lessons {
		s.lessons[l.ID] = l
	}
	return s
}

func (s *fakeLessonStore) List(context.Context, *query.Request) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, l := range s.lessons {
		out = append(out, *l)
	}
	return out, nil
}

func (s *fakeLessonStore) Count(context.Context, query.Predicate) (int, error) {
	return len(s.lessons), nil
}

func (s *fakeLessonStore) FindByID(_ context.Context, id int64) (*models.Lesson, error) {
	l, ok := s.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (s *fakeLessonStore) Create(_ context.Context, lesson *models.Lesson) error {
	s.nextID++
	lesson.ID = s.nextID
	cp := *lesson
	s.lessons[lesson.ID] = &cp
	return nil
}

func (s *fakeLessonStore) Update(_ context.Context, lesson *models.Lesson) error {
	cp := *lesson
	s.lessons[lesson.ID] = &cp
	return nil
}

func (s *fakeLessonStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.lessons[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.lessons, id)
	return nil
}

func (s *fakeLessonStore) Teachers(_ context.Context, lessonID int64) ([]models.User, error) {
	var out []models.User
	for _, id := range s.teachers[lessonID] {
		u, err := s.users.FindByID(context.Background(), id)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeLessonStore) AddTeacher(_ context.Context, lessonID, userID int64) error {
	for _, id := range s.teachers[lessonID] {
		if id == userID {
			return nil
		}
	}
	s.teachers[lessonID] = append(s.teachers[lessonID], userID)
	return nil
}

func (s *fakeLessonStore) RemoveTeacher(_ context.Context, lessonID, userID int64) error {
	kept := s.teachers[lessonID][:0]
	for _, id := range s.teachers[lessonID] {
		if id != userID {
			kept = append(kept, id)
		}
	}
	s.teachers[lessonID] = kept
	return nil
}

type fakeTopicStore struct {
	topics map[int64]*models.Topic
	nextID int64
}

func newFakeTopicStore(topics ...*models.Topic) *fakeTopicStore {
	s := &fakeTopicStore{topics: map[int64]*models.Topic{}, nextID: 50}
	for _, tp := range topics {
		s.topics[tp.ID] = tp
	}
	return s
}

func (s *fakeTopicStore) ListAll(context.Context) ([]models.Topic, error) {
	var out []models.Topic
	for _, tp := range s.topics {
		out = append(out, *tp)
	}
	return out, nil
}

func (s *fakeTopicStore) ListByLessons(_ context.Context, lessonIDs []int64) (map[int64][]models.Topic, error) {
	out := map[int64][]models.Topic{}
	for _, lessonID := range lessonIDs {
		for _, tp := range s.topics {
			if tp.LessonID == lessonID {
				out[lessonID] = append(out[lessonID], *tp)
			}
		}
	}
	return out, nil
}

func (s *fakeTopicStore) FindByID(_ context.Context, id int64) (*models.Topic, error) {
	tp, ok := s.topics[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *tp
	return &cp, nil
}

func (s *fakeTopicStore) Create(_ context.Context, topic *models.Topic) error {
	s.nextID++
	topic.ID = s.nextID
	cp := *topic
	s.topics[topic.ID] = &cp
	return nil
}

func (s *fakeTopicStore) Update(_ context.Context, topic *models.Topic) error {
	cp := *topic
	s.topics[topic.ID] = &cp
	return nil
}

func (s *fakeTopicStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.topics[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.topics, id)
	return nil
}

// fakeQuizStore is safe for use from queue workers.
type fakeQuizStore struct {
	mu          sync.Mutex
	quizzes     map[int64]*models.Quiz
	nextID      int64
	allocated   map[int64][]int64
	allocateErr error
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{quizzes: map[int64]*models.Quiz{}, nextID: 300, allocated: map[int64][]int64{}}
}

func (s *fakeQuizStore) List(context.Context, *query.Request) ([]models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Quiz
	for _, q := range s.quizzes {
		out = append(out, *q)
	}
	return out, nil
}

func (s *fakeQuizStore) Count(context.Context, query.Predicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.quizzes), nil
}

func (s *fakeQuizStore) ListByTopic(_ context.Context, topicID int64) ([]models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Quiz
	for _, q := range s.quizzes {
		if q.TopicID == topicID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (s *fakeQuizStore) FindByID(_ context.Context, id int64) (*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *q
	return &cp, nil
}

func (s *fakeQuizStore) Create(_ context.Context, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	quiz.ID = s.nextID
	cp := *quiz
	s.quizzes[quiz.ID] = &cp
	return nil
}

func (s *fakeQuizStore) Update(_ context.Context, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *quiz
	s.quizzes[quiz.ID] = &cp
	return nil
}

func (s *fakeQuizStore) Allocate(_ context.Context, quizID int64, studentIDs []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allocateErr != nil {
		return 0, s.allocateErr
	}
	s.allocated[quizID] = append(s.allocated[quizID], studentIDs...)
	return int64(len(studentIDs)), nil
}

func (s *fakeQuizStore) allocations(quizID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.allocated[quizID]...)
}

type stubLessonStudents struct {
	students map[int64][]int64
	err      error
}

func (s stubLessonStudents) StudentIDsForLesson(_ context.Context, lessonID int64) ([]int64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.students[lessonID], nil
}

type failingEnqueuer struct {
	calls int
}

func (f *failingEnqueuer) Enqueue(jobs.Job) error {
	f.calls++
	return errors.New("queue full")
}

package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Lesson is a course unit created by an administrator and taught by teachers.
type Lesson struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description"`
	CreatedBy   *int64     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	Creator  *UserSummary `db:"-" json:"creator,omitempty"`
	Topics   []Topic      `db:"-" json:"topic,omitempty"`
	Teachers []User       `db:"-" json:"teachers,omitempty"`
}

// LessonRequest is the payload for creating or updating a lesson.
type LessonRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
}

// Topic is a chapter of a lesson.
type Topic struct {
	ID          int64      `db:"id" json:"id"`
	LessonID    int64      `db:"lesson_id" json:"lesson_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	Lesson *Lesson `db:"-" json:"lesson,omitempty"`
}

// TopicRequest is the payload for creating or updating a topic.
type TopicRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
}

// LessonTeacherRequest links a teacher to a lesson.
type LessonTeacherRequest struct {
	UserID int64 `json:"userId" validate:"required"`
}

// Quiz is a set of questions attached to a topic.
type Quiz struct {
	ID        int64          `db:"id" json:"id"`
	TopicID   int64          `db:"topic_id" json:"topic_id"`
	Duration  int            `db:"duration" json:"duration"`
	Level     int            `db:"level" json:"level"`
	Content   types.JSONText `db:"content" json:"content"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
	CreatedBy *int64         `db:"created_by" json:"created_by,omitempty"`

	Topic *Topic `db:"-" json:"topic,omitempty"`
}

// QuizQuestion is one entry of a quiz's content array.
type QuizQuestion struct {
	Question      string        `json:"question"`
	Options       []interface{} `json:"options"`
	CorrectAnswer interface{}   `json:"correct_answer"`
}

// CreateQuizRequest is the payload for creating a quiz on a topic.
type CreateQuizRequest struct {
	Duration int            `json:"duration" validate:"required,min=1"`
	Level    int            `json:"level" validate:"required,min=1"`
	Content  types.JSONText `json:"content" validate:"required"`
}

// UpdateQuizRequest carries optional quiz changes.
type UpdateQuizRequest struct {
	Duration *int           `json:"duration" validate:"omitempty,min=1"`
	Level    *int           `json:"level" validate:"omitempty,min=1"`
	Content  types.JSONText `json:"content"`
}

// StudentQuiz assigns a quiz to a student.
type StudentQuiz struct {
	ID          int64      `db:"id" json:"id"`
	StudentID   int64      `db:"student_id" json:"student_id"`
	QuizID      int64      `db:"quiz_id" json:"quiz_id"`
	Score       *int       `db:"score" json:"score,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

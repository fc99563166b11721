package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/classroom-api/internal/models"
)

// TeacherStudentRepository manages the teacher_students link table.
type TeacherStudentRepository struct {
	db *sqlx.DB
}

// NewTeacherStudentRepository constructs a TeacherStudentRepository.
func NewTeacherStudentRepository(db *sqlx.DB) *TeacherStudentRepository {
	return &TeacherStudentRepository{db: db}
}

// Assign links a student to a teacher. It reports false when the link already existed.
func (r *TeacherStudentRepository) Assign(ctx context.Context, teacherID, studentID int64) (bool, error) {
	const stmt = `INSERT INTO teacher_students (teacher_id, student_id) VALUES ($1, $2)
ON CONFLICT (teacher_id, student_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, stmt, teacherID, studentID)
	if err != nil {
		return false, fmt.Errorf("assign student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign student rows affected: %w", err)
	}
	return affected > 0, nil
}

// Remove unlinks a student from a teacher. It reports false when no link existed.
func (r *TeacherStudentRepository) Remove(ctx context.Context, teacherID, studentID int64) (bool, error) {
	const stmt = `DELETE FROM teacher_students WHERE teacher_id = $1 AND student_id = $2`
	res, err := r.db.ExecContext(ctx, stmt, teacherID, studentID)
	if err != nil {
		return false, fmt.Errorf("remove student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove student rows affected: %w", err)
	}
	return affected > 0, nil
}

type linkedUserRow struct {
	OwnerID int64 `db:"owner_id"`
	models.User
}

func (r *TeacherStudentRepository) linked(ctx context.Context, op, ownerColumn, otherColumn string, ownerIDs []int64) (map[int64][]models.User, error) {
	result := make(map[int64][]models.User, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}
	stmt := fmt.Sprintf(`SELECT ts.%s AS owner_id, %s
FROM teacher_students ts
JOIN users u ON u.id = ts.%s
WHERE ts.%s = ANY($1)
ORDER BY u.lastname, u.firstname`, ownerColumn, userColumns, otherColumn, ownerColumn)
	var rows []linkedUserRow
	if err := r.db.SelectContext(ctx, &rows, stmt, pq.Array(ownerIDs)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, row := range rows {
		result[row.OwnerID] = append(result[row.OwnerID], row.User)
	}
	return result, nil
}

// StudentsOf returns the students of each teacher keyed by teacher id.
func (r *TeacherStudentRepository) StudentsOf(ctx context.Context, teacherIDs []int64) (map[int64][]models.User, error) {
	return r.linked(ctx, "list students of teachers", "teacher_id", "student_id", teacherIDs)
}

// TeachersOf returns the teachers of each student keyed by student id.
func (r *TeacherStudentRepository) TeachersOf(ctx context.Context, studentIDs []int64) (map[int64][]models.User, error) {
	return r.linked(ctx, "list teachers of students", "student_id", "teacher_id", studentIDs)
}

// StudentIDsForLesson returns the distinct students of every teacher assigned to the lesson.
func (r *TeacherStudentRepository) StudentIDsForLesson(ctx context.Context, lessonID int64) ([]int64, error) {
	const stmt = `SELECT DISTINCT ts.student_id
FROM user_lesson ul
JOIN teacher_students ts ON ts.teacher_id = ul.user_id
WHERE ul.lesson_id = $1
ORDER BY ts.student_id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, stmt, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson students: %w", err)
	}
	return ids, nil
}

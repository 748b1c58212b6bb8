package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core/grade"
)

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

type gradeRow struct {
	ID           string       `db:"id"`
	TeacherNIP   string       `db:"teacher_nip"`
	ClassID      string       `db:"class_id"`
	SubjectID    string       `db:"subject_id"`
	Semester     string       `db:"semester"`
	AcademicYear string       `db:"academic_year"`
	StudentID    string       `db:"student_id"`
	Category     string       `db:"category"`
	UnitLabel    string       `db:"unit_label"`
	ColumnLabel  string       `db:"column_label"`
	Value        null.Float64 `db:"value"`
	Topic        string       `db:"topic"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r gradeRow) domain() grade.Entry {
	return grade.Entry{
		ID: r.ID,
		Scope: grade.Scope{
			TeacherNIP:   r.TeacherNIP,
			ClassID:      r.ClassID,
			SubjectID:    r.SubjectID,
			Semester:     r.Semester,
			AcademicYear: r.AcademicYear,
		},
		StudentID:   r.StudentID,
		Category:    grade.Category(r.Category),
		UnitLabel:   r.UnitLabel,
		ColumnLabel: r.ColumnLabel,
		Value:       r.Value,
		Topic:       r.Topic,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func rowFromEntry(e grade.Entry) gradeRow {
	return gradeRow{
		ID:           e.ID,
		TeacherNIP:   e.Scope.TeacherNIP,
		ClassID:      e.Scope.ClassID,
		SubjectID:    e.Scope.SubjectID,
		Semester:     e.Scope.Semester,
		AcademicYear: e.Scope.AcademicYear,
		StudentID:    e.StudentID,
		Category:     string(e.Category),
		UnitLabel:    e.UnitLabel,
		ColumnLabel:  e.ColumnLabel,
		Value:        e.Value,
		Topic:        e.Topic,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

const gradeColumns = `id, teacher_nip, class_id, subject_id, semester, academic_year, student_id, category, unit_label, column_label, value, topic, created_at, updated_at`

const scopeWhere = `teacher_nip = $1 AND class_id = $2 AND subject_id = $3 AND semester = $4 AND academic_year = $5`

func scopeArgs(sc grade.Scope) []interface{} {
	return []interface{}{sc.TeacherNIP, sc.ClassID, sc.SubjectID, sc.Semester, sc.AcademicYear}
}

func (repo *gradeRepository) FilterEntries(scope grade.Scope) ([]grade.Entry, error) {
	var rows []gradeRow
	query := `SELECT ` + gradeColumns + ` FROM grade_entry WHERE ` + scopeWhere + ` ORDER BY created_at`
	if err := repo.db.Select(&rows, query, scopeArgs(scope)...); err != nil {
		return nil, errors.Wrap(err, "filtering grade entries")
	}
	res := make([]grade.Entry, 0, len(rows))
	for _, r := range rows {
		res = append(res, r.domain())
	}
	return res, nil
}

// UpsertEntry relies on the unique coordinate index; concurrent writes to
// the same cell serialize on it, making last-write-wins explicit.
func (repo *gradeRepository) UpsertEntry(e grade.Entry) (grade.Entry, error) {
	const query = `
		INSERT INTO grade_entry (` + gradeColumns + `)
		VALUES (:id, :teacher_nip, :class_id, :subject_id, :semester, :academic_year, :student_id, :category, :unit_label, :column_label, :value, :topic, :created_at, :updated_at)
		ON CONFLICT (teacher_nip, class_id, subject_id, semester, academic_year, student_id, category, unit_label, column_label)
		DO UPDATE SET value = EXCLUDED.value,
			topic = CASE WHEN EXCLUDED.topic <> '' THEN EXCLUDED.topic ELSE grade_entry.topic END,
			updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExec(query, rowFromEntry(e)); err != nil {
		return grade.Entry{}, errors.Wrap(err, "upserting grade entry")
	}
	return e, nil
}

func (repo *gradeRepository) SetColumnTopic(scope grade.Scope, category grade.Category, unit, label, topic string) error {
	args := append(scopeArgs(scope), string(category), unit, label, topic)
	res, err := repo.db.Exec(
		`UPDATE grade_entry SET topic = $9, updated_at = NOW()
		 WHERE `+scopeWhere+` AND category = $6 AND unit_label = $7 AND column_label = $8`,
		args...,
	)
	if err != nil {
		return errors.Wrap(err, "setting column topic")
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	// no rows yet: a placeholder keeps the column and its topic visible
	placeholder := grade.Entry{
		ID:          uuid.New().String(),
		Scope:       scope,
		Category:    category,
		UnitLabel:   unit,
		ColumnLabel: label,
		Topic:       topic,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	const insert = `
		INSERT INTO grade_entry (` + gradeColumns + `)
		VALUES (:id, :teacher_nip, :class_id, :subject_id, :semester, :academic_year, :student_id, :category, :unit_label, :column_label, :value, :topic, :created_at, :updated_at)
		ON CONFLICT DO NOTHING`
	_, err = repo.db.NamedExec(insert, rowFromEntry(placeholder))
	return errors.Wrap(err, "inserting topic placeholder")
}

func (repo *gradeRepository) DeleteColumnEntries(scope grade.Scope, category grade.Category, unit, label string) error {
	args := append(scopeArgs(scope), string(category), unit, label)
	_, err := repo.db.Exec(
		`DELETE FROM grade_entry WHERE `+scopeWhere+` AND category = $6 AND unit_label = $7 AND column_label = $8`,
		args...,
	)
	return errors.Wrap(err, "deleting column entries")
}

func (repo *gradeRepository) FilterEntriesInRange(teacherNIP string, from, to time.Time) ([]grade.Entry, error) {
	var rows []gradeRow
	const query = `
		SELECT ` + gradeColumns + ` FROM grade_entry
		WHERE teacher_nip = $1 AND updated_at >= $2 AND updated_at <= $3
		ORDER BY updated_at`
	if err := repo.db.Select(&rows, query, teacherNIP, from, to); err != nil {
		return nil, errors.Wrap(err, "filtering grade entries by range")
	}
	res := make([]grade.Entry, 0, len(rows))
	for _, r := range rows {
		res = append(res, r.domain())
	}
	return res, nil
}

type weightConfigRow struct {
	ID               string    `db:"id"`
	TeacherNIP       string    `db:"teacher_nip"`
	ClassID          string    `db:"class_id"`
	SubjectID        string    `db:"subject_id"`
	Semester         string    `db:"semester"`
	AcademicYear     string    `db:"academic_year"`
	QuizWeight       float64   `db:"quiz_weight"`
	AssignmentWeight float64   `db:"assignment_weight"`
	DailyTestWeight  float64   `db:"daily_test_weight"`
	SumAverageWeight float64   `db:"sum_average_weight"`
	FinalExamWeight  float64   `db:"final_exam_weight"`
	SumUnitCount     int       `db:"sum_unit_count"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r weightConfigRow) domain() grade.WeightConfig {
	return grade.WeightConfig{
		ID: r.ID,
		Scope: grade.Scope{
			TeacherNIP:   r.TeacherNIP,
			ClassID:      r.ClassID,
			SubjectID:    r.SubjectID,
			Semester:     r.Semester,
			AcademicYear: r.AcademicYear,
		},
		DailyWeights: grade.DailyWeights{
			Quiz:       r.QuizWeight,
			Assignment: r.AssignmentWeight,
			DailyTest:  r.DailyTestWeight,
		},
		ReportWeights: grade.ReportWeights{
			SumAverage: r.SumAverageWeight,
			FinalExam:  r.FinalExamWeight,
		},
		SumUnitCount: r.SumUnitCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

const weightConfigColumns = `id, teacher_nip, class_id, subject_id, semester, academic_year, quiz_weight, assignment_weight, daily_test_weight, sum_average_weight, final_exam_weight, sum_unit_count, created_at, updated_at`

func (repo *gradeRepository) GetWeightConfig(scope grade.Scope) (grade.WeightConfig, error) {
	var row weightConfigRow
	query := `SELECT ` + weightConfigColumns + ` FROM weight_config WHERE ` + scopeWhere
	if err := repo.db.Get(&row, query, scopeArgs(scope)...); err != nil {
		if err == sql.ErrNoRows {
			return grade.WeightConfig{}, grade.ErrConfigNotFound
		}
		return grade.WeightConfig{}, errors.Wrap(err, "getting weight config")
	}
	return row.domain(), nil
}

func (repo *gradeRepository) SaveWeightConfig(wc grade.WeightConfig) (grade.WeightConfig, error) {
	row := weightConfigRow{
		ID:               wc.ID,
		TeacherNIP:       wc.Scope.TeacherNIP,
		ClassID:          wc.Scope.ClassID,
		SubjectID:        wc.Scope.SubjectID,
		Semester:         wc.Scope.Semester,
		AcademicYear:     wc.Scope.AcademicYear,
		QuizWeight:       wc.DailyWeights.Quiz,
		AssignmentWeight: wc.DailyWeights.Assignment,
		DailyTestWeight:  wc.DailyWeights.DailyTest,
		SumAverageWeight: wc.ReportWeights.SumAverage,
		FinalExamWeight:  wc.ReportWeights.FinalExam,
		SumUnitCount:     wc.SumUnitCount,
		CreatedAt:        wc.CreatedAt,
		UpdatedAt:        wc.UpdatedAt,
	}
	const query = `
		INSERT INTO weight_config (` + weightConfigColumns + `)
		VALUES (:id, :teacher_nip, :class_id, :subject_id, :semester, :academic_year, :quiz_weight, :assignment_weight, :daily_test_weight, :sum_average_weight, :final_exam_weight, :sum_unit_count, :created_at, :updated_at)
		ON CONFLICT (teacher_nip, class_id, subject_id, semester, academic_year)
		DO UPDATE SET quiz_weight = EXCLUDED.quiz_weight,
			assignment_weight = EXCLUDED.assignment_weight,
			daily_test_weight = EXCLUDED.daily_test_weight,
			sum_average_weight = EXCLUDED.sum_average_weight,
			final_exam_weight = EXCLUDED.final_exam_weight,
			sum_unit_count = EXCLUDED.sum_unit_count,
			updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExec(query, row); err != nil {
		return grade.WeightConfig{}, errors.Wrap(err, "saving weight config")
	}
	return wc, nil
}

package grade

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core"
)

// Category is the assessment category of a ledger column.
type Category string

const (
	CategoryQuiz       Category = "QUIZ"
	CategoryAssignment Category = "TUGAS"
	CategoryDailyTest  Category = "UH"
	CategorySum        Category = "SUM"
	CategoryFinalExam  Category = "PAS"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryQuiz, CategoryAssignment, CategoryDailyTest, CategorySum, CategoryFinalExam:
		return true
	default:
		return false
	}
}

// Prefix is the column-label prefix of the category, eg. "QUIZ" in "QUIZ_3".
func (c Category) Prefix() string { return string(c) }

// FinalExamUnit is the pseudo-unit grouping final-exam (PAS) columns.
const FinalExamUnit = "PAS"

// SumUnitLabel returns the label of the k-th sumatif unit (1-based), eg. "SUM 2".
func SumUnitLabel(k int) string { return "SUM " + strconv.Itoa(k) }

// Scope identifies one ledger: one teacher grading one subject for one class
// in one semester of one academic year. Weight configs share the same scoping.
type Scope struct {
	TeacherNIP   string `json:"teacher_nip" query:"teacher_nip" validate:"required"`
	ClassID      string `json:"class_id" query:"class_id" validate:"required"`
	SubjectID    string `json:"subject_id" query:"subject_id" validate:"required"`
	Semester     string `json:"semester" query:"semester" validate:"required"`
	AcademicYear string `json:"academic_year" query:"academic_year" validate:"required"`
}

func (sc *Scope) Validate() error {
	sc.TeacherNIP = core.CleanString(sc.TeacherNIP)
	sc.ClassID = core.CleanString(sc.ClassID)
	sc.SubjectID = core.CleanString(sc.SubjectID)
	sc.Semester = core.CleanString(sc.Semester)
	sc.AcademicYear = core.CleanString(sc.AcademicYear)
	return core.Validate.Struct(sc)
}

// Entry is one raw score cell. A row exists per (student, category, unit,
// column) coordinate; Value is null for an empty cell. Rows with an empty
// StudentID are column placeholders carrying only the topic text.
type Entry struct {
	ID          string       `json:"id"`
	Scope       Scope        `json:"scope"`
	StudentID   string       `json:"student_id"`
	Category    Category     `json:"category"`
	UnitLabel   string       `json:"unit_label"`
	ColumnLabel string       `json:"column_label"`
	Value       null.Float64 `json:"value"`
	Topic       string       `json:"topic"`
	CreatedAt   time.Time    `json:"created_at"` // UTC
	UpdatedAt   time.Time    `json:"updated_at"` // UTC
}

// DailyWeights drive the in-unit combination of category averages.
type DailyWeights struct {
	Quiz       float64 `json:"quiz" validate:"gte=0"`
	Assignment float64 `json:"assignment" validate:"gte=0"`
	DailyTest  float64 `json:"daily_test" validate:"gte=0"`
}

// ReportWeights drive the final report-score combination.
type ReportWeights struct {
	SumAverage float64 `json:"sum_average" validate:"gte=0"`
	FinalExam  float64 `json:"final_exam" validate:"gte=0"`
}

// WeightConfig is the weighting configuration of one ledger Scope.
type WeightConfig struct {
	ID            string        `json:"id"`
	Scope         Scope         `json:"scope"`
	DailyWeights  DailyWeights  `json:"daily_weights"`
	ReportWeights ReportWeights `json:"report_weights"`
	SumUnitCount  int           `json:"sum_unit_count" validate:"min=1,max=12"`
	CreatedAt     time.Time     `json:"created_at"` // UTC
	UpdatedAt     time.Time     `json:"updated_at"` // UTC
}

func (wc *WeightConfig) Validate() error {
	if err := wc.Scope.Validate(); err != nil {
		return err
	}
	if err := core.Validate.Struct(wc); err != nil {
		return err
	}
	if wc.DailyWeights.Quiz+wc.DailyWeights.Assignment+wc.DailyWeights.DailyTest <= 0 {
		return core.NewValidationError(errZeroWeights, core.FieldError{Field: "daily_weights", Error: errZeroWeights.Error()})
	}
	if wc.ReportWeights.SumAverage+wc.ReportWeights.FinalExam <= 0 {
		return core.NewValidationError(errZeroWeights, core.FieldError{Field: "report_weights", Error: errZeroWeights.Error()})
	}
	return nil
}

// DefaultWeightConfig mirrors the school's standing convention:
// quiz/assignment/daily-test 1:1:2, sum-average/final-exam 3:2, 4 units.
func DefaultWeightConfig(scope Scope) WeightConfig {
	return WeightConfig{
		Scope:         scope,
		DailyWeights:  DailyWeights{Quiz: 1, Assignment: 1, DailyTest: 2},
		ReportWeights: ReportWeights{SumAverage: 3, FinalExam: 2},
		SumUnitCount:  4,
	}
}

var (
	errZeroWeights   = errors.New("weights cannot sum to zero")
	errScoreFormat   = errors.New("score must be a number between 0 and 100 with at most 2 decimals")
	scoreFormatRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,2})?$`)
)

// ParseScore validates and parses a raw score string: empty means an empty
// cell; otherwise the value must be in [0, 100] with at most 2 decimals.
func ParseScore(raw string) (null.Float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return null.Float64{}, nil
	}
	if !scoreFormatRegex.MatchString(raw) {
		return null.Float64{}, core.NewValidationError(errScoreFormat, core.FieldError{Field: "value", Error: errScoreFormat.Error()})
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val > 100 {
		return null.Float64{}, core.NewValidationError(errScoreFormat, core.FieldError{Field: "value", Error: errScoreFormat.Error()})
	}
	return null.Float64From(val), nil
}

// SetValueInput stages one cell write.
type SetValueInput struct {
	StudentID   string   `json:"student_id" validate:"required"`
	Category    Category `json:"category" validate:"required,gradecat"`
	UnitLabel   string   `json:"unit_label" validate:"required"`
	ColumnLabel string   `json:"column_label" validate:"required"`
	Value       string   `json:"value"`
	Topic       string   `json:"topic"`
}

func (in *SetValueInput) Validate() error {
	in.StudentID = core.CleanString(in.StudentID)
	in.UnitLabel = core.CleanString(in.UnitLabel)
	in.ColumnLabel = core.CleanString(in.ColumnLabel)
	in.Topic = core.CleanString(in.Topic)
	return core.Validate.Struct(in)
}

package grade

import (
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core"
)

var columnLabelRegex = regexp.MustCompile(`^([A-Z]+)_(\d+)$`)

type columnKey struct {
	category Category
	unit     string
	label    string
}

// Ledger is an immutable snapshot of one Scope's entries and weights, with
// all derived-score computations on top. Both the grid rendering and the
// aggregation read column activeness from the same place, so they can never
// diverge.
type Ledger struct {
	scope   Scope
	weights WeightConfig

	cells    map[columnKey]map[string]null.Float64 // column -> studentID -> value
	topics   map[columnKey]string
	students []string
}

func NewLedger(scope Scope, weights WeightConfig, entries []Entry) *Ledger {
	l := &Ledger{
		scope:   scope,
		weights: weights,
		cells:   make(map[columnKey]map[string]null.Float64),
		topics:  make(map[columnKey]string),
	}

	studentSet := make(map[string]struct{})
	for _, e := range entries {
		key := columnKey{category: e.Category, unit: e.UnitLabel, label: e.ColumnLabel}
		if e.Topic != "" {
			l.topics[key] = e.Topic
		}
		if e.StudentID == "" { // column placeholder
			if _, ok := l.cells[key]; !ok {
				l.cells[key] = make(map[string]null.Float64)
			}
			continue
		}
		if _, ok := studentSet[e.StudentID]; !ok {
			studentSet[e.StudentID] = struct{}{}
			l.students = append(l.students, e.StudentID)
		}
		cells, ok := l.cells[key]
		if !ok {
			cells = make(map[string]null.Float64)
			l.cells[key] = cells
		}
		cells[e.StudentID] = e.Value
	}
	sort.Strings(l.students)
	return l
}

func (l *Ledger) Scope() Scope          { return l.scope }
func (l *Ledger) Weights() WeightConfig { return l.weights }
func (l *Ledger) Students() []string    { return l.students }

// SumUnitLabels lists the sumatif unit labels configured for this scope,
// "SUM 1" through "SUM n".
func (l *Ledger) SumUnitLabels() []string {
	labels := make([]string, 0, l.weights.SumUnitCount)
	for k := 1; k <= l.weights.SumUnitCount; k++ {
		labels = append(labels, SumUnitLabel(k))
	}
	return labels
}

func (l *Ledger) columnActive(key columnKey) bool {
	for _, val := range l.cells[key] {
		if val.Valid {
			return true
		}
	}
	return false
}

func (l *Ledger) columnVisible(key columnKey) bool {
	return l.topics[key] != "" || l.columnActive(key)
}

func (l *Ledger) sortedLabels(category Category, unit string, keep func(columnKey) bool) []string {
	labels := make([]string, 0)
	for key := range l.cells {
		if key.category == category && key.unit == unit && keep(key) {
			labels = append(labels, key.label)
		}
	}
	for key := range l.topics {
		if key.category != category || key.unit != unit {
			continue
		}
		if _, ok := l.cells[key]; ok {
			continue
		}
		if keep(key) {
			labels = append(labels, key.label)
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		return columnLabelIndex(labels[i]) < columnLabelIndex(labels[j]) ||
			(columnLabelIndex(labels[i]) == columnLabelIndex(labels[j]) && labels[i] < labels[j])
	})
	return labels
}

// ActiveColumns lists the column labels of (category, unit) in which at least
// one student has a non-empty value. Activeness is column-wide, never
// per-student.
func (l *Ledger) ActiveColumns(category Category, unit string) []string {
	return l.sortedLabels(category, unit, l.columnActive)
}

// VisibleColumns lists the column labels of (category, unit) that carry topic
// text or at least one non-empty value.
func (l *Ledger) VisibleColumns(category Category, unit string) []string {
	return l.sortedLabels(category, unit, l.columnVisible)
}

// Value returns the student's raw cell value at (category, unit, label).
// Null for an empty or absent cell.
func (l *Ledger) Value(studentID string, category Category, unit, label string) null.Float64 {
	return l.cells[columnKey{category: category, unit: unit, label: label}][studentID]
}

func (l *Ledger) Topic(category Category, unit, label string) string {
	return l.topics[columnKey{category: category, unit: unit, label: label}]
}

// CategoryAverage averages the student's values over all active columns of
// (category, unit). An empty cell on an active column counts as 0, not
// excluded. Returns null iff the category has no active column for the unit,
// in which case the category is ignored by downstream weighting.
func (l *Ledger) CategoryAverage(studentID string, category Category, unit string) null.Float64 {
	active := l.ActiveColumns(category, unit)
	if len(active) == 0 {
		return null.Float64{}
	}
	var sum float64
	for _, label := range active {
		if val, ok := l.cells[columnKey{category: category, unit: unit, label: label}][studentID]; ok && val.Valid {
			sum += val.Float64
		}
	}
	return null.Float64From(core.Round2(sum / float64(len(active))))
}

// UnitScore combines the assignment, quiz and daily-test category averages of
// one sumatif unit using the daily weights. Only active categories
// contribute, and the denominator is the weight sum of active categories
// only; a single active category therefore scores at its full value. Returns
// null when no category is active.
func (l *Ledger) UnitScore(studentID, unit string) null.Float64 {
	comps := []struct {
		avg    null.Float64
		weight float64
	}{
		{l.CategoryAverage(studentID, CategoryAssignment, unit), l.weights.DailyWeights.Assignment},
		{l.CategoryAverage(studentID, CategoryQuiz, unit), l.weights.DailyWeights.Quiz},
		{l.CategoryAverage(studentID, CategoryDailyTest, unit), l.weights.DailyWeights.DailyTest},
	}

	var num, den float64
	for _, comp := range comps {
		if comp.avg.Valid {
			num += comp.avg.Float64 * comp.weight
			den += comp.weight
		}
	}
	if den == 0 {
		return null.Float64{}
	}
	return null.Float64From(core.Round2(num / den))
}

// FinalExamAverage averages the student's active final-exam (PAS) columns.
func (l *Ledger) FinalExamAverage(studentID string) null.Float64 {
	return l.CategoryAverage(studentID, CategoryFinalExam, FinalExamUnit)
}

// ReportScore combines the mean of the student's non-null unit scores with
// their final-exam average using the report weights. When only one side is
// present the denominator re-normalizes to that side's weight, so it applies
// at full value. Returns 0 when neither side is present. Rounded to the
// nearest integer.
func (l *Ledger) ReportScore(studentID string) int {
	var unitSum float64
	var unitCount int
	for _, unit := range l.SumUnitLabels() {
		if score := l.UnitScore(studentID, unit); score.Valid {
			unitSum += score.Float64
			unitCount++
		}
	}

	var num, den float64
	if unitCount > 0 {
		num += (unitSum / float64(unitCount)) * l.weights.ReportWeights.SumAverage
		den += l.weights.ReportWeights.SumAverage
	}
	if pas := l.FinalExamAverage(studentID); pas.Valid {
		num += pas.Float64 * l.weights.ReportWeights.FinalExam
		den += l.weights.ReportWeights.FinalExam
	}
	if den == 0 {
		return 0
	}
	return int(math.Round(num / den))
}

// NextColumnLabel derives the default label of a new (category, unit) column:
// `{PREFIX}_{max visible index + 1}`. Only currently visible columns are
// scanned, so labels freed by deletions are reused without colliding with a
// column anyone can still see.
func (l *Ledger) NextColumnLabel(category Category, unit string) string {
	var max int
	for _, label := range l.VisibleColumns(category, unit) {
		if idx := columnLabelIndex(label); idx > max {
			max = idx
		}
	}
	return category.Prefix() + "_" + strconv.Itoa(max+1)
}

func columnLabelIndex(label string) int {
	m := columnLabelRegex.FindStringSubmatch(label)
	if m == nil {
		return 0
	}
	idx, _ := strconv.Atoi(m[2])
	return idx
}

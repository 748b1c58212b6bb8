package grade

import (
	"testing"

	"github.com/volatiletech/null/v8"
)

var testScope = Scope{
	TeacherNIP:   "196512241990031003",
	ClassID:      "X-IPA-1",
	SubjectID:    "MTK",
	Semester:     "1",
	AcademicYear: "2025/2026",
}

func cell(student string, cat Category, unit, label string, val float64) Entry {
	return Entry{
		Scope:       testScope,
		StudentID:   student,
		Category:    cat,
		UnitLabel:   unit,
		ColumnLabel: label,
		Value:       null.Float64From(val),
	}
}

func emptyCell(student string, cat Category, unit, label string) Entry {
	e := cell(student, cat, unit, label, 0)
	e.Value = null.Float64{}
	return e
}

func newTestLedger(entries []Entry) *Ledger {
	return NewLedger(testScope, DefaultWeightConfig(testScope), entries)
}

func TestLedgerCategoryAverage(t *testing.T) {
	unit := SumUnitLabel(1)
	tests := []struct {
		name    string
		entries []Entry
		student string
		want    null.Float64
	}{
		{
			name:    "no columns",
			student: "s1",
			want:    null.Float64{},
		},
		{
			name: "no active columns",
			entries: []Entry{
				emptyCell("s1", CategoryQuiz, unit, "QUIZ_1"),
				emptyCell("s2", CategoryQuiz, unit, "QUIZ_1"),
			},
			student: "s1",
			want:    null.Float64{},
		},
		{
			// a column counts for every student once any student has a value;
			// the empty cells count as zero.
			name: "empty cell on active column scores zero",
			entries: []Entry{
				cell("s1", CategoryQuiz, unit, "QUIZ_1", 80),
				cell("s1", CategoryQuiz, unit, "QUIZ_3", 90),
				cell("s2", CategoryQuiz, unit, "QUIZ_2", 75),
			},
			student: "s1",
			want:    null.Float64From(56.67), // (80 + 0 + 90) / 3
		},
		{
			name: "single active column",
			entries: []Entry{
				cell("s1", CategoryAssignment, unit, "TUGAS_1", 85),
			},
			student: "s1",
			want:    null.Float64From(85),
		},
		{
			name: "rounds to 2 decimals",
			entries: []Entry{
				cell("s1", CategoryDailyTest, unit, "UH_1", 80),
				cell("s1", CategoryDailyTest, unit, "UH_2", 85),
				cell("s1", CategoryDailyTest, unit, "UH_3", 85),
			},
			student: "s1",
			want:    null.Float64From(83.33),
		},
		{
			name: "other units do not bleed in",
			entries: []Entry{
				cell("s1", CategoryQuiz, unit, "QUIZ_1", 80),
				cell("s1", CategoryQuiz, SumUnitLabel(2), "QUIZ_1", 20),
			},
			student: "s1",
			want:    null.Float64From(80),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := CategoryQuiz
			if len(tt.entries) > 0 {
				cat = tt.entries[0].Category
			}
			got := newTestLedger(tt.entries).CategoryAverage(tt.student, cat, unit)
			if got != tt.want {
				t.Errorf("CategoryAverage() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestLedgerUnitScore(t *testing.T) {
	unit := SumUnitLabel(1)
	tests := []struct {
		name    string
		entries []Entry
		want    null.Float64
	}{
		{
			name: "empty unit",
			want: null.Float64{},
		},
		{
			// weights renormalize over the components that have data; a lone
			// quiz average is the unit score.
			name: "single component carries full weight",
			entries: []Entry{
				cell("s1", CategoryQuiz, unit, "QUIZ_1", 70),
			},
			want: null.Float64From(70),
		},
		{
			name: "two components renormalized",
			entries: []Entry{
				cell("s1", CategoryQuiz, unit, "QUIZ_1", 60),
				cell("s1", CategoryDailyTest, unit, "UH_1", 90),
			},
			want: null.Float64From(80), // (60*1 + 90*2) / 3
		},
		{
			name: "all components",
			entries: []Entry{
				cell("s1", CategoryQuiz, unit, "QUIZ_1", 80),
				cell("s1", CategoryAssignment, unit, "TUGAS_1", 60),
				cell("s1", CategoryDailyTest, unit, "UH_1", 70),
			},
			want: null.Float64From(70), // (80*1 + 60*1 + 70*2) / 4
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestLedger(tt.entries).UnitScore("s1", unit)
			if got != tt.want {
				t.Errorf("UnitScore() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestLedgerReportScore(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    int
	}{
		{
			name: "no data",
			want: 0,
		},
		{
			name: "sum units only",
			entries: []Entry{
				cell("s1", CategoryQuiz, SumUnitLabel(1), "QUIZ_1", 60),
				cell("s1", CategoryQuiz, SumUnitLabel(2), "QUIZ_1", 80),
			},
			want: 70, // PAS weight drops out
		},
		{
			name: "final exam only",
			entries: []Entry{
				cell("s1", CategoryFinalExam, FinalExamUnit, "PAS_1", 75),
			},
			want: 75,
		},
		{
			name: "sum average and final exam weighted 3:2",
			entries: []Entry{
				cell("s1", CategoryQuiz, SumUnitLabel(1), "QUIZ_1", 80),
				cell("s1", CategoryQuiz, SumUnitLabel(1), "QUIZ_3", 90),
				cell("s2", CategoryQuiz, SumUnitLabel(1), "QUIZ_2", 75),
				cell("s1", CategoryFinalExam, FinalExamUnit, "PAS_1", 70),
			},
			// quiz avg (80+0+90)/3 = 56.67 is the only unit score;
			// (56.67*3 + 70*2) / 5 = 62.002 rounds to 62.
			want: 62,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newTestLedger(tt.entries).ReportScore("s1"); got != tt.want {
				t.Errorf("ReportScore() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestLedgerColumns(t *testing.T) {
	unit := SumUnitLabel(1)
	entries := []Entry{
		cell("s1", CategoryQuiz, unit, "QUIZ_2", 80),
		emptyCell("s1", CategoryQuiz, unit, "QUIZ_1"),
		emptyCell("s2", CategoryQuiz, unit, "QUIZ_1"),
		cell("s2", CategoryQuiz, unit, "QUIZ_10", 75),
	}
	// a topic-only placeholder row keeps its column visible but not active
	topicOnly := Entry{Scope: testScope, Category: CategoryQuiz, UnitLabel: unit, ColumnLabel: "QUIZ_3", Topic: "Aljabar"}
	l := newTestLedger(append(entries, topicOnly))

	assertLabels := func(t *testing.T, got, want []string) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("got %v; want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v; want %v", got, want)
			}
		}
	}

	t.Run("active excludes empty and topic-only columns", func(t *testing.T) {
		assertLabels(t, l.ActiveColumns(CategoryQuiz, unit), []string{"QUIZ_2", "QUIZ_10"})
	})
	t.Run("visible sorts by numeric suffix", func(t *testing.T) {
		assertLabels(t, l.VisibleColumns(CategoryQuiz, unit), []string{"QUIZ_1", "QUIZ_2", "QUIZ_3", "QUIZ_10"})
	})
	t.Run("topic lookup", func(t *testing.T) {
		if got := l.Topic(CategoryQuiz, unit, "QUIZ_3"); got != "Aljabar" {
			t.Errorf("Topic() = %q; want %q", got, "Aljabar")
		}
	})
	t.Run("next label continues past highest", func(t *testing.T) {
		if got := l.NextColumnLabel(CategoryQuiz, unit); got != "QUIZ_11" {
			t.Errorf("NextColumnLabel() = %q; want %q", got, "QUIZ_11")
		}
	})
	t.Run("next label on fresh category starts at 1", func(t *testing.T) {
		if got := l.NextColumnLabel(CategoryDailyTest, unit); got != "UH_1" {
			t.Errorf("NextColumnLabel() = %q; want %q", got, "UH_1")
		}
	})
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		raw     string
		want    null.Float64
		wantErr bool
	}{
		{raw: "80", want: null.Float64From(80)},
		{raw: "0", want: null.Float64From(0)},
		{raw: "100", want: null.Float64From(100)},
		{raw: "87.5", want: null.Float64From(87.5)},
		{raw: "87.55", want: null.Float64From(87.55)},
		{raw: "", want: null.Float64{}}, // blank clears the cell
		{raw: "  75 ", want: null.Float64From(75)},
		{raw: "100.01", wantErr: true},
		{raw: "101", wantErr: true},
		{raw: "-5", wantErr: true},
		{raw: "87.555", wantErr: true},
		{raw: "8O", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseScore(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseScore(%q) expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScore(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseScore(%q) = %v; want %v", tt.raw, got, tt.want)
			}
		})
	}
}

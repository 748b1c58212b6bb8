package dummydb

import (
	"sync"

	"github.com/trezcool/sikap/core/attendance"
	"github.com/trezcool/sikap/core/grade"
	"github.com/trezcool/sikap/core/journal"
	"github.com/trezcool/sikap/core/report"
	"github.com/trezcool/sikap/core/staff"
	"github.com/trezcool/sikap/core/workload"
)

// DB is a fully in-memory store. Every table takes a write lock for the
// whole mutation, which gives the one-writer-per-entity guarantee the
// domain services rely on.
type (
	DB struct {
		staff      *staffTable
		attendance *attendanceTable
		journal    *journalTable
		grade      *gradeTable
		workload   *workloadTable
		report     *reportTable
	}

	staffTable struct {
		sync.RWMutex
		table map[string]*staff.Staff
	}

	attendanceTable struct {
		sync.RWMutex
		sessions map[string]*attendance.Session
		records  map[string][]attendance.Record // by session ID
	}

	journalTable struct {
		sync.RWMutex
		table map[string]*journal.Entry
	}

	gradeTable struct {
		sync.RWMutex
		entries []grade.Entry
		configs map[string]*grade.WeightConfig // by scope key
	}

	workloadTable struct {
		sync.RWMutex
		assignments map[string]*workload.Assignment
		dutyLogs    map[string]*workload.DutyLog
	}

	reportTable struct {
		sync.RWMutex
		submissions map[string]*report.Submission
		logs        []report.ApprovalLog
	}
)

func Open() (*DB, error) {
	db := &DB{
		staff: &staffTable{table: make(map[string]*staff.Staff)},
		attendance: &attendanceTable{
			sessions: make(map[string]*attendance.Session),
			records:  make(map[string][]attendance.Record),
		},
		journal: &journalTable{table: make(map[string]*journal.Entry)},
		grade:   &gradeTable{configs: make(map[string]*grade.WeightConfig)},
		workload: &workloadTable{
			assignments: make(map[string]*workload.Assignment),
			dutyLogs:    make(map[string]*workload.DutyLog),
		},
		report: &reportTable{submissions: make(map[string]*report.Submission)},
	}
	return db, nil
}

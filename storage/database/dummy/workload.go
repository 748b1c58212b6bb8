package dummydb

import (
	"sort"
	"strings"
	"time"

	"github.com/trezcool/sikap/core/workload"
)

type workloadRepository struct {
	db *workloadTable
}

var _ workload.Repository = (*workloadRepository)(nil) // interface compliance check

func NewWorkloadRepository(db *DB) workload.Repository {
	return &workloadRepository{db: db.workload}
}

func assignmentKey(nip, semester, academicYear string) string {
	return strings.Join([]string{nip, semester, academicYear}, "\x00")
}

func (repo *workloadRepository) SaveAssignment(a workload.Assignment) (workload.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.assignments[assignmentKey(a.StaffNIP, a.Semester, a.AcademicYear)] = &a
	return a, nil
}

func (repo *workloadRepository) GetAssignment(staffNIP, semester, academicYear string) (workload.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.assignments[assignmentKey(staffNIP, semester, academicYear)]; ok {
		return *a, nil
	}
	return workload.Assignment{}, workload.ErrNotFound
}

func (repo *workloadRepository) FilterAssignments(filter workload.QueryFilter) ([]workload.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]workload.Assignment, 0)
	for _, a := range repo.db.assignments {
		if filter.StaffNIP != "" && a.StaffNIP != filter.StaffNIP {
			continue
		}
		if filter.Semester != "" && a.Semester != filter.Semester {
			continue
		}
		if filter.AcademicYear != "" && a.AcademicYear != filter.AcademicYear {
			continue
		}
		res = append(res, *a)
	}
	return res, nil
}

func (repo *workloadRepository) CreateDutyLog(dl workload.DutyLog) (workload.DutyLog, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.dutyLogs[dl.ID] = &dl
	return dl, nil
}

func (repo *workloadRepository) FilterDutyLogs(staffNIP string, from, to time.Time) ([]workload.DutyLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]workload.DutyLog, 0)
	for _, dl := range repo.db.dutyLogs {
		if dl.StaffNIP != staffNIP {
			continue
		}
		if !from.IsZero() && dl.Date.Before(from) {
			continue
		}
		if !to.IsZero() && dl.Date.After(to) {
			continue
		}
		res = append(res, *dl)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}

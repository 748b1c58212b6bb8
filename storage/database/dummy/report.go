package dummydb

import (
	"sort"
	"time"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/report"
)

type reportRepository struct {
	db *reportTable
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db.report}
}

func (repo *reportRepository) CreateSubmission(sub report.Submission) (report.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *reportRepository) GetSubmissionByID(id string) (report.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return *sub, nil
	}
	return report.Submission{}, report.ErrNotFound
}

func (repo *reportRepository) FilterSubmissions(filter report.QueryFilter) ([]report.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]report.Submission, 0)
	for _, sub := range repo.db.submissions {
		if filter.StaffNIP != "" && sub.StaffNIP != filter.StaffNIP {
			continue
		}
		if filter.PeriodCode != "" && sub.PeriodCode != filter.PeriodCode {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		res = append(res, *sub)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

// checkVersion must be called under the write lock.
func (repo *reportRepository) checkVersion(id string, version int) (*report.Submission, error) {
	cur, ok := repo.db.submissions[id]
	if !ok {
		return nil, report.ErrNotFound
	}
	if cur.Version != version {
		return nil, core.NewConflictError("submission was modified concurrently")
	}
	return cur, nil
}

func (repo *reportRepository) UpdateSubmissionDetails(sub report.Submission) (report.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cur, err := repo.checkVersion(sub.ID, sub.Version)
	if err != nil {
		return report.Submission{}, err
	}
	sub.Status = cur.Status // details only, never the lifecycle state
	sub.Version++
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *reportRepository) UpdateSubmissionStatus(id string, status report.Status, version int, at time.Time) (report.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cur, err := repo.checkVersion(id, version)
	if err != nil {
		return report.Submission{}, err
	}
	cur.Status = status
	cur.Version++
	cur.UpdatedAt = at
	return *cur, nil
}

func (repo *reportRepository) UpdateSubmissionDecision(sub report.Submission) (report.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cur, err := repo.checkVersion(sub.ID, sub.Version)
	if err != nil {
		return report.Submission{}, err
	}
	cur.Status = sub.Status
	cur.ReviewerNote = sub.ReviewerNote
	cur.ApprovalCode = sub.ApprovalCode
	cur.ApprovedAt = sub.ApprovedAt
	cur.Version++
	cur.UpdatedAt = sub.UpdatedAt
	return *cur, nil
}

func (repo *reportRepository) DeleteSubmission(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.submissions, id)
	return nil
}

func (repo *reportRepository) CreateApprovalLog(l report.ApprovalLog) (report.ApprovalLog, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.logs = append(repo.db.logs, l)
	return l, nil
}

func (repo *reportRepository) GetApprovalLogs(submissionID string) ([]report.ApprovalLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]report.ApprovalLog, 0)
	for _, l := range repo.db.logs {
		if l.SubmissionID == submissionID {
			res = append(res, l)
		}
	}
	return res, nil
}

package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/report"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &reportRepository{db: db}
}

// The snapshot travels as one JSON document; it is immutable once the
// submission leaves Draft so per-column access is never needed.
type submissionRow struct {
	ID           string          `db:"id"`
	StaffNIP     string          `db:"staff_nip"`
	PeriodCode   string          `db:"period_code"`
	Status       string          `db:"status"`
	Snapshot     json.RawMessage `db:"snapshot"`
	ReviewerNote string          `db:"reviewer_note"`
	ApprovalCode null.String     `db:"approval_code"`
	SubmittedAt  null.Time       `db:"submitted_at"`
	ApprovedAt   null.Time       `db:"approved_at"`
	Version      int             `db:"version"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r submissionRow) domain() (report.Submission, error) {
	sub := report.Submission{
		ID:           r.ID,
		StaffNIP:     r.StaffNIP,
		PeriodCode:   r.PeriodCode,
		Status:       report.Status(r.Status),
		ReviewerNote: r.ReviewerNote,
		ApprovalCode: r.ApprovalCode,
		SubmittedAt:  r.SubmittedAt,
		ApprovedAt:   r.ApprovedAt,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if len(r.Snapshot) > 0 {
		if err := json.Unmarshal(r.Snapshot, &sub.Snapshot); err != nil {
			return report.Submission{}, errors.Wrap(err, "decoding submission snapshot")
		}
	}
	return sub, nil
}

func rowFromSubmission(sub report.Submission) (submissionRow, error) {
	snap, err := json.Marshal(sub.Snapshot)
	if err != nil {
		return submissionRow{}, errors.Wrap(err, "encoding submission snapshot")
	}
	return submissionRow{
		ID:           sub.ID,
		StaffNIP:     sub.StaffNIP,
		PeriodCode:   sub.PeriodCode,
		Status:       string(sub.Status),
		Snapshot:     snap,
		ReviewerNote: sub.ReviewerNote,
		ApprovalCode: sub.ApprovalCode,
		SubmittedAt:  sub.SubmittedAt,
		ApprovedAt:   sub.ApprovedAt,
		Version:      sub.Version,
		CreatedAt:    sub.CreatedAt,
		UpdatedAt:    sub.UpdatedAt,
	}, nil
}

const submissionColumns = `id, staff_nip, period_code, status, snapshot, reviewer_note, approval_code, submitted_at, approved_at, version, created_at, updated_at`

func (repo *reportRepository) CreateSubmission(sub report.Submission) (report.Submission, error) {
	row, err := rowFromSubmission(sub)
	if err != nil {
		return report.Submission{}, err
	}
	const query = `
		INSERT INTO performance_submission (` + submissionColumns + `)
		VALUES (:id, :staff_nip, :period_code, :status, :snapshot, :reviewer_note, :approval_code, :submitted_at, :approved_at, :version, :created_at, :updated_at)`
	if _, err = repo.db.NamedExec(query, row); err != nil {
		return report.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo *reportRepository) GetSubmissionByID(id string) (report.Submission, error) {
	var row submissionRow
	if err := repo.db.Get(&row, `SELECT `+submissionColumns+` FROM performance_submission WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return report.Submission{}, report.ErrNotFound
		}
		return report.Submission{}, errors.Wrap(err, "getting submission")
	}
	return row.domain()
}

func (repo *reportRepository) FilterSubmissions(filter report.QueryFilter) ([]report.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM performance_submission WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.StaffNIP != "" {
		query += ` AND staff_nip = ` + arg(filter.StaffNIP)
	}
	if filter.PeriodCode != "" {
		query += ` AND period_code = ` + arg(filter.PeriodCode)
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	query += ` ORDER BY created_at`

	var rows []submissionRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering submissions")
	}
	res := make([]report.Submission, 0, len(rows))
	for _, r := range rows {
		sub, err := r.domain()
		if err != nil {
			return nil, err
		}
		res = append(res, sub)
	}
	return res, nil
}

// trapStaleWrite maps a zero-row update to the right domain error: conflict
// when the submission exists at another version, not-found otherwise.
func (repo *reportRepository) trapStaleWrite(id string) error {
	var exists bool
	if err := repo.db.Get(&exists, `SELECT true FROM performance_submission WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return report.ErrNotFound
		}
		return errors.Wrap(err, "checking submission")
	}
	return core.NewConflictError("submission was modified concurrently")
}

func (repo *reportRepository) UpdateSubmissionDetails(sub report.Submission) (report.Submission, error) {
	row, err := rowFromSubmission(sub)
	if err != nil {
		return report.Submission{}, err
	}
	const query = `
		UPDATE performance_submission
		SET snapshot = :snapshot, submitted_at = :submitted_at, version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version`
	res, err := repo.db.NamedExec(query, row)
	if err != nil {
		return report.Submission{}, errors.Wrap(err, "updating submission details")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return report.Submission{}, repo.trapStaleWrite(sub.ID)
	}
	return repo.GetSubmissionByID(sub.ID)
}

func (repo *reportRepository) UpdateSubmissionStatus(id string, status report.Status, version int, at time.Time) (report.Submission, error) {
	res, err := repo.db.Exec(
		`UPDATE performance_submission SET status = $1, version = version + 1, updated_at = $2
		 WHERE id = $3 AND version = $4`,
		string(status), at, id, version,
	)
	if err != nil {
		return report.Submission{}, errors.Wrap(err, "updating submission status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return report.Submission{}, repo.trapStaleWrite(id)
	}
	return repo.GetSubmissionByID(id)
}

func (repo *reportRepository) UpdateSubmissionDecision(sub report.Submission) (report.Submission, error) {
	row, err := rowFromSubmission(sub)
	if err != nil {
		return report.Submission{}, err
	}
	const query = `
		UPDATE performance_submission
		SET status = :status, reviewer_note = :reviewer_note, approval_code = :approval_code,
			approved_at = :approved_at, version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version`
	res, err := repo.db.NamedExec(query, row)
	if err != nil {
		return report.Submission{}, errors.Wrap(err, "updating submission decision")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return report.Submission{}, repo.trapStaleWrite(sub.ID)
	}
	return repo.GetSubmissionByID(sub.ID)
}

func (repo *reportRepository) DeleteSubmission(id string) error {
	if _, err := repo.db.Exec(`DELETE FROM performance_submission WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting submission")
	}
	return nil
}

type approvalLogRow struct {
	ID           string    `db:"id"`
	SubmissionID string    `db:"submission_id"`
	Level        int       `db:"level"`
	Decision     string    `db:"decision"`
	ActorNIP     string    `db:"actor_nip"`
	ActorName    string    `db:"actor_name"`
	Note         string    `db:"note"`
	CreatedAt    time.Time `db:"created_at"`
}

func (repo *reportRepository) CreateApprovalLog(l report.ApprovalLog) (report.ApprovalLog, error) {
	const query = `
		INSERT INTO approval_log (id, submission_id, level, decision, actor_nip, actor_name, note, created_at)
		VALUES (:id, :submission_id, :level, :decision, :actor_nip, :actor_name, :note, :created_at)`
	row := approvalLogRow{
		ID:           l.ID,
		SubmissionID: l.SubmissionID,
		Level:        l.Level,
		Decision:     string(l.Decision),
		ActorNIP:     l.ActorNIP,
		ActorName:    l.ActorName,
		Note:         l.Note,
		CreatedAt:    l.CreatedAt,
	}
	if _, err := repo.db.NamedExec(query, row); err != nil {
		return report.ApprovalLog{}, errors.Wrap(err, "inserting approval log")
	}
	return l, nil
}

func (repo *reportRepository) GetApprovalLogs(submissionID string) ([]report.ApprovalLog, error) {
	var rows []approvalLogRow
	const query = `
		SELECT id, submission_id, level, decision, actor_nip, actor_name, note, created_at
		FROM approval_log WHERE submission_id = $1 ORDER BY created_at`
	if err := repo.db.Select(&rows, query, submissionID); err != nil {
		return nil, errors.Wrap(err, "querying approval logs")
	}
	res := make([]report.ApprovalLog, 0, len(rows))
	for _, r := range rows {
		res = append(res, report.ApprovalLog{
			ID:           r.ID,
			SubmissionID: r.SubmissionID,
			Level:        r.Level,
			Decision:     report.Decision(r.Decision),
			ActorNIP:     r.ActorNIP,
			ActorName:    r.ActorName,
			Note:         r.Note,
			CreatedAt:    r.CreatedAt,
		})
	}
	return res, nil
}

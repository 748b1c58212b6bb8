package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/sikap/core/workload"
)

type workloadRepository struct {
	db *sqlx.DB
}

var _ workload.Repository = (*workloadRepository)(nil) // interface compliance check

func NewWorkloadRepository(db *sqlx.DB) workload.Repository {
	return &workloadRepository{db: db}
}

// Subject and duty allocations are stored as JSON documents; they are only
// ever read and written as a whole with their assignment.
type assignmentRow struct {
	ID           string          `db:"id"`
	StaffNIP     string          `db:"staff_nip"`
	Semester     string          `db:"semester"`
	AcademicYear string          `db:"academic_year"`
	Subjects     json.RawMessage `db:"subjects"`
	Duties       json.RawMessage `db:"duties"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r assignmentRow) domain() (workload.Assignment, error) {
	a := workload.Assignment{
		ID:           r.ID,
		StaffNIP:     r.StaffNIP,
		Semester:     r.Semester,
		AcademicYear: r.AcademicYear,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if len(r.Subjects) > 0 {
		if err := json.Unmarshal(r.Subjects, &a.Subjects); err != nil {
			return workload.Assignment{}, errors.Wrap(err, "decoding subject allocations")
		}
	}
	if len(r.Duties) > 0 {
		if err := json.Unmarshal(r.Duties, &a.Duties); err != nil {
			return workload.Assignment{}, errors.Wrap(err, "decoding duty allocations")
		}
	}
	return a, nil
}

func rowFromAssignment(a workload.Assignment) (assignmentRow, error) {
	subjects, err := json.Marshal(a.Subjects)
	if err != nil {
		return assignmentRow{}, errors.Wrap(err, "encoding subject allocations")
	}
	duties, err := json.Marshal(a.Duties)
	if err != nil {
		return assignmentRow{}, errors.Wrap(err, "encoding duty allocations")
	}
	return assignmentRow{
		ID:           a.ID,
		StaffNIP:     a.StaffNIP,
		Semester:     a.Semester,
		AcademicYear: a.AcademicYear,
		Subjects:     subjects,
		Duties:       duties,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}, nil
}

const assignmentColumns = `id, staff_nip, semester, academic_year, subjects, duties, created_at, updated_at`

func (repo *workloadRepository) SaveAssignment(a workload.Assignment) (workload.Assignment, error) {
	row, err := rowFromAssignment(a)
	if err != nil {
		return workload.Assignment{}, err
	}
	const query = `
		INSERT INTO workload_assignment (` + assignmentColumns + `)
		VALUES (:id, :staff_nip, :semester, :academic_year, :subjects, :duties, :created_at, :updated_at)
		ON CONFLICT (staff_nip, semester, academic_year)
		DO UPDATE SET subjects = EXCLUDED.subjects, duties = EXCLUDED.duties, updated_at = EXCLUDED.updated_at`
	if _, err = repo.db.NamedExec(query, row); err != nil {
		return workload.Assignment{}, errors.Wrap(err, "saving workload assignment")
	}
	return a, nil
}

func (repo *workloadRepository) GetAssignment(staffNIP, semester, academicYear string) (workload.Assignment, error) {
	var row assignmentRow
	const query = `
		SELECT ` + assignmentColumns + ` FROM workload_assignment
		WHERE staff_nip = $1 AND semester = $2 AND academic_year = $3`
	if err := repo.db.Get(&row, query, staffNIP, semester, academicYear); err != nil {
		if err == sql.ErrNoRows {
			return workload.Assignment{}, workload.ErrNotFound
		}
		return workload.Assignment{}, errors.Wrap(err, "getting workload assignment")
	}
	return row.domain()
}

func (repo *workloadRepository) FilterAssignments(filter workload.QueryFilter) ([]workload.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM workload_assignment WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.StaffNIP != "" {
		query += ` AND staff_nip = ` + arg(filter.StaffNIP)
	}
	if filter.Semester != "" {
		query += ` AND semester = ` + arg(filter.Semester)
	}
	if filter.AcademicYear != "" {
		query += ` AND academic_year = ` + arg(filter.AcademicYear)
	}
	query += ` ORDER BY staff_nip`

	var rows []assignmentRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering workload assignments")
	}
	res := make([]workload.Assignment, 0, len(rows))
	for _, r := range rows {
		a, err := r.domain()
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

type dutyLogRow struct {
	ID        string    `db:"id"`
	StaffNIP  string    `db:"staff_nip"`
	DutyID    string    `db:"duty_id"`
	Date      time.Time `db:"date"`
	Activity  string    `db:"activity"`
	Result    string    `db:"result"`
	Note      string    `db:"note"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const dutyLogColumns = `id, staff_nip, duty_id, date, activity, result, note, created_at, updated_at`

func (repo *workloadRepository) CreateDutyLog(dl workload.DutyLog) (workload.DutyLog, error) {
	const query = `
		INSERT INTO duty_log (` + dutyLogColumns + `)
		VALUES (:id, :staff_nip, :duty_id, :date, :activity, :result, :note, :created_at, :updated_at)`
	if _, err := repo.db.NamedExec(query, dutyLogRow(dl)); err != nil {
		return workload.DutyLog{}, errors.Wrap(err, "inserting duty log")
	}
	return dl, nil
}

func (repo *workloadRepository) FilterDutyLogs(staffNIP string, from, to time.Time) ([]workload.DutyLog, error) {
	var rows []dutyLogRow
	const query = `
		SELECT ` + dutyLogColumns + ` FROM duty_log
		WHERE staff_nip = $1 AND date >= $2 AND date <= $3
		ORDER BY date, created_at`
	if err := repo.db.Select(&rows, query, staffNIP, from, to); err != nil {
		return nil, errors.Wrap(err, "filtering duty logs")
	}
	res := make([]workload.DutyLog, 0, len(rows))
	for _, r := range rows {
		res = append(res, workload.DutyLog(r))
	}
	return res, nil
}

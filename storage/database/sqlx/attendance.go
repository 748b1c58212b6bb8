package sqlxrepos

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

type sessionRow struct {
	ID            string      `db:"id"`
	ClassID       string      `db:"class_id"`
	SubjectID     string      `db:"subject_id"`
	Date          time.Time   `db:"date"`
	PeriodLabel   string      `db:"period_label"`
	Status        string      `db:"status"`
	TeacherNIP    string      `db:"teacher_nip"`
	SubstituteNIP null.String `db:"substitute_nip"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r sessionRow) domain() attendance.Session {
	return attendance.Session{
		ID:            r.ID,
		ClassID:       r.ClassID,
		SubjectID:     r.SubjectID,
		Date:          r.Date,
		PeriodLabel:   r.PeriodLabel,
		Status:        attendance.SessionStatus(r.Status),
		TeacherNIP:    r.TeacherNIP,
		SubstituteNIP: r.SubstituteNIP,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type recordRow struct {
	ID        string      `db:"id"`
	SessionID string      `db:"session_id"`
	StudentID string      `db:"student_id"`
	Status    string      `db:"status"`
	Note      string      `db:"note"`
	SourceRef null.String `db:"source_ref"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r recordRow) domain() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		SessionID: r.SessionID,
		StudentID: r.StudentID,
		Status:    attendance.Status(r.Status),
		Note:      r.Note,
		SourceRef: r.SourceRef,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const sessionColumns = `id, class_id, subject_id, date, period_label, status, teacher_nip, substitute_nip, created_at, updated_at`

func (repo *attendanceRepository) CreateSession(s attendance.Session) (attendance.Session, error) {
	const query = `
		INSERT INTO attendance_session (` + sessionColumns + `)
		VALUES (:id, :class_id, :subject_id, :date, :period_label, :status, :teacher_nip, :substitute_nip, :created_at, :updated_at)`
	row := sessionRow{
		ID:            s.ID,
		ClassID:       s.ClassID,
		SubjectID:     s.SubjectID,
		Date:          s.Date,
		PeriodLabel:   s.PeriodLabel,
		Status:        string(s.Status),
		TeacherNIP:    s.TeacherNIP,
		SubstituteNIP: s.SubstituteNIP,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if _, err := repo.db.NamedExec(query, row); err != nil {
		return attendance.Session{}, errors.Wrap(err, "inserting attendance session")
	}
	return s, nil
}

func (repo *attendanceRepository) GetSessionByID(id string) (attendance.Session, error) {
	var row sessionRow
	if err := repo.db.Get(&row, `SELECT `+sessionColumns+` FROM attendance_session WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Session{}, attendance.ErrNotFound
		}
		return attendance.Session{}, errors.Wrap(err, "getting attendance session")
	}
	return row.domain(), nil
}

func (repo *attendanceRepository) FilterSessions(filter attendance.QueryFilter) ([]attendance.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_session WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.ClassID != "" {
		query += ` AND class_id = ` + arg(filter.ClassID)
	}
	if filter.SubjectID != "" {
		query += ` AND subject_id = ` + arg(filter.SubjectID)
	}
	if filter.TeacherNIP != "" {
		query += ` AND teacher_nip = ` + arg(filter.TeacherNIP)
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(filter.Status)
	}
	if !filter.DateFrom.IsZero() {
		query += ` AND date >= ` + arg(filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		query += ` AND date <= ` + arg(filter.DateTo)
	}
	query += ` ORDER BY date, created_at`

	var rows []sessionRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering attendance sessions")
	}
	res := make([]attendance.Session, 0, len(rows))
	for _, r := range rows {
		res = append(res, r.domain())
	}
	return res, nil
}

func (repo *attendanceRepository) UpdateSessionStatus(id string, status attendance.SessionStatus, at time.Time) (attendance.Session, error) {
	res, err := repo.db.Exec(
		`UPDATE attendance_session SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), at, id,
	)
	if err != nil {
		return attendance.Session{}, errors.Wrap(err, "updating session status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Session{}, attendance.ErrNotFound
	}
	return repo.GetSessionByID(id)
}

// ReplaceRecords swaps the full record set of a session in one transaction,
// serialized by a row lock on the session.
func (repo *attendanceRepository) ReplaceRecords(sessionID string, recs []attendance.Record) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	if err = tx.Get(&id, `SELECT id FROM attendance_session WHERE id = $1 FOR UPDATE`, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return attendance.ErrNotFound
		}
		return errors.Wrap(err, "locking session")
	}
	if _, err = tx.Exec(`DELETE FROM attendance_record WHERE session_id = $1`, sessionID); err != nil {
		return errors.Wrap(err, "clearing session records")
	}

	const insert = `
		INSERT INTO attendance_record (id, session_id, student_id, status, note, source_ref, created_at, updated_at)
		VALUES (:id, :session_id, :student_id, :status, :note, :source_ref, :created_at, :updated_at)`
	for _, rec := range recs {
		row := recordRow{
			ID:        rec.ID,
			SessionID: rec.SessionID,
			StudentID: rec.StudentID,
			Status:    string(rec.Status),
			Note:      rec.Note,
			SourceRef: rec.SourceRef,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		}
		if _, err = tx.NamedExec(insert, row); err != nil {
			return errors.Wrap(err, "inserting attendance record")
		}
	}
	return errors.Wrap(tx.Commit(), "committing session records")
}

func (repo *attendanceRepository) GetSessionRecords(sessionID string) ([]attendance.Record, error) {
	var rows []recordRow
	const query = `
		SELECT id, session_id, student_id, status, note, source_ref, created_at, updated_at
		FROM attendance_record WHERE session_id = $1 ORDER BY student_id`
	if err := repo.db.Select(&rows, query, sessionID); err != nil {
		return nil, errors.Wrap(err, "querying session records")
	}
	res := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		res = append(res, r.domain())
	}
	return res, nil
}

package sqlxrepos

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/sikap/core/journal"
)

type journalRepository struct {
	db *sqlx.DB
}

var _ journal.Repository = (*journalRepository)(nil) // interface compliance check

func NewJournalRepository(db *sqlx.DB) journal.Repository {
	return &journalRepository{db: db}
}

type journalRow struct {
	ID         string    `db:"id"`
	TeacherNIP string    `db:"teacher_nip"`
	ClassID    string    `db:"class_id"`
	SubjectID  string    `db:"subject_id"`
	Date       time.Time `db:"date"`
	Material   string    `db:"material"`
	Note       string    `db:"note"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r journalRow) domain() journal.Entry {
	return journal.Entry(r)
}

const journalColumns = `id, teacher_nip, class_id, subject_id, date, material, note, created_at, updated_at`

func (repo *journalRepository) CreateEntry(e journal.Entry) (journal.Entry, error) {
	const query = `
		INSERT INTO journal_entry (` + journalColumns + `)
		VALUES (:id, :teacher_nip, :class_id, :subject_id, :date, :material, :note, :created_at, :updated_at)`
	if _, err := repo.db.NamedExec(query, journalRow(e)); err != nil {
		return journal.Entry{}, errors.Wrap(err, "inserting journal entry")
	}
	return e, nil
}

func (repo *journalRepository) GetEntryByID(id string) (journal.Entry, error) {
	var row journalRow
	if err := repo.db.Get(&row, `SELECT `+journalColumns+` FROM journal_entry WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return journal.Entry{}, journal.ErrNotFound
		}
		return journal.Entry{}, errors.Wrap(err, "getting journal entry")
	}
	return row.domain(), nil
}

func (repo *journalRepository) FilterEntries(filter journal.QueryFilter) ([]journal.Entry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entry WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.TeacherNIP != "" {
		query += ` AND teacher_nip = ` + arg(filter.TeacherNIP)
	}
	if filter.ClassID != "" {
		query += ` AND class_id = ` + arg(filter.ClassID)
	}
	if filter.SubjectID != "" {
		query += ` AND subject_id = ` + arg(filter.SubjectID)
	}
	if !filter.DateFrom.IsZero() {
		query += ` AND date >= ` + arg(filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		query += ` AND date <= ` + arg(filter.DateTo)
	}
	query += ` ORDER BY date, created_at`

	var rows []journalRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering journal entries")
	}
	res := make([]journal.Entry, 0, len(rows))
	for _, r := range rows {
		res = append(res, r.domain())
	}
	return res, nil
}

func (repo *journalRepository) UpdateEntry(e journal.Entry) (journal.Entry, error) {
	const query = `
		UPDATE journal_entry
		SET teacher_nip = :teacher_nip, class_id = :class_id, subject_id = :subject_id,
			date = :date, material = :material, note = :note, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExec(query, journalRow(e))
	if err != nil {
		return journal.Entry{}, errors.Wrap(err, "updating journal entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return journal.Entry{}, journal.ErrNotFound
	}
	return e, nil
}

func (repo *journalRepository) DeleteEntry(id string) error {
	if _, err := repo.db.Exec(`DELETE FROM journal_entry WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting journal entry")
	}
	return nil
}

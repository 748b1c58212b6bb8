package sqlxrepos

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core/staff"
)

type staffRepository struct {
	db *sqlx.DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *sqlx.DB) staff.Repository {
	return &staffRepository{db: db}
}

type staffRow struct {
	ID           string         `db:"id"`
	NIP          string         `db:"nip"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     null.Bool      `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r staffRow) domain() staff.Staff {
	stf := staff.Staff{
		ID:           r.ID,
		NIP:          r.NIP,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     r.IsActive.Ptr(),
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastLogin.Valid {
		stf.LastLogin = r.LastLogin.Time
	}
	return stf
}

func rowFromStaff(stf staff.Staff) staffRow {
	return staffRow{
		ID:           stf.ID,
		NIP:          stf.NIP,
		Name:         stf.Name,
		Username:     stf.Username,
		Email:        stf.Email,
		IsActive:     null.BoolFromPtr(stf.IsActive),
		Roles:        pq.StringArray(stf.Roles),
		PasswordHash: stf.PasswordHash,
		CreatedAt:    stf.CreatedAt,
		UpdatedAt:    stf.UpdatedAt,
		LastLogin:    null.NewTime(stf.LastLogin, !stf.LastLogin.IsZero()),
	}
}

func domainSlice(rows []staffRow) []staff.Staff {
	res := make([]staff.Staff, 0, len(rows))
	for _, r := range rows {
		res = append(res, r.domain())
	}
	return res
}

// trapNoRowsErr maps sql "no rows" to staff.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return staff.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const staffColumns = `id, nip, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login`

func (repo *staffRepository) CheckUsernameUniqueness(username, email string, excludedStaff ...staff.Staff) error {
	query := `SELECT username, email FROM staff WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedStaff) > 0 {
		ids := make([]string, 0, len(excludedStaff))
		for _, stf := range excludedStaff {
			ids = append(ids, stf.ID)
		}
		query += ` AND NOT (id = ANY($3))`
		args = append(args, pq.Array(ids))
	}

	var rows []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return errors.Wrap(err, "checking staff uniqueness")
	}
	for _, r := range rows {
		if r.Username == username {
			return staff.ErrUsernameExists
		}
		if r.Email == email {
			return staff.ErrEmailExists
		}
	}
	return nil
}

func (repo *staffRepository) CreateStaff(stf staff.Staff) (staff.Staff, error) {
	const query = `
		INSERT INTO staff (` + staffColumns + `)
		VALUES (:id, :nip, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExec(query, rowFromStaff(stf)); err != nil {
		return staff.Staff{}, errors.Wrap(err, "inserting staff")
	}
	return stf, nil
}

func (repo *staffRepository) QueryAllStaff() ([]staff.Staff, error) {
	var rows []staffRow
	if err := repo.db.Select(&rows, `SELECT `+staffColumns+` FROM staff ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying staff")
	}
	return domainSlice(rows), nil
}

func (repo *staffRepository) getBy(field, value string) (staff.Staff, error) {
	var row staffRow
	query := `SELECT ` + staffColumns + ` FROM staff WHERE ` + field + ` = $1`
	if err := repo.db.Get(&row, query, value); err != nil {
		return staff.Staff{}, trapNoRowsErr(err, "getting staff by "+field)
	}
	return row.domain(), nil
}

func (repo *staffRepository) GetStaffByID(id string) (staff.Staff, error) {
	return repo.getBy("id", id)
}

func (repo *staffRepository) GetStaffByNIP(nip string) (staff.Staff, error) {
	return repo.getBy("nip", nip)
}

func (repo *staffRepository) GetStaffByUsername(username string) (staff.Staff, error) {
	return repo.getBy("username", username)
}

func (repo *staffRepository) GetStaffByEmail(email string) (staff.Staff, error) {
	return repo.getBy("email", email)
}

func (repo *staffRepository) GetStaffByUsernameOrEmail(username string) (staff.Staff, error) {
	var row staffRow
	const query = `SELECT ` + staffColumns + ` FROM staff WHERE username = $1 OR email = $1`
	if err := repo.db.Get(&row, query, username); err != nil {
		return staff.Staff{}, trapNoRowsErr(err, "getting staff by username or email")
	}
	return row.domain(), nil
}

func (repo *staffRepository) FilterStaff(filter staff.QueryFilter) ([]staff.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Search != "" {
		p := arg("%" + strings.ToLower(filter.Search) + "%")
		query += ` AND (LOWER(name) LIKE ` + p + ` OR LOWER(username) LIKE ` + p + ` OR LOWER(email) LIKE ` + p + `)`
	}
	if len(filter.Roles) > 0 {
		query += ` AND roles && ` + arg(pq.Array(filter.Roles))
	}
	if filter.IsActive != nil {
		query += ` AND is_active = ` + arg(*filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		query += ` AND created_at >= ` + arg(filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		query += ` AND created_at <= ` + arg(filter.CreatedTo)
	}
	query += ` ORDER BY created_at`

	var rows []staffRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering staff")
	}
	return domainSlice(rows), nil
}

func (repo *staffRepository) UpdateStaff(stf staff.Staff, isActive *bool) (staff.Staff, error) {
	sets := []string{"updated_at = :updated_at"}
	row := rowFromStaff(stf)
	if stf.Name != "" {
		sets = append(sets, "name = :name")
	}
	if stf.Username != "" {
		sets = append(sets, "username = :username")
	}
	if stf.Email != "" {
		sets = append(sets, "email = :email")
	}
	if stf.Roles != nil {
		sets = append(sets, "roles = :roles")
	}
	if stf.PasswordHash != nil {
		sets = append(sets, "password_hash = :password_hash")
	}
	if !stf.LastLogin.IsZero() {
		sets = append(sets, "last_login = :last_login")
	}
	if isActive != nil {
		row.IsActive = null.BoolFromPtr(isActive)
		sets = append(sets, "is_active = :is_active")
	}

	query := `UPDATE staff SET ` + strings.Join(sets, ", ") + ` WHERE id = :id`
	res, err := repo.db.NamedExec(query, row)
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "updating staff")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return staff.Staff{}, staff.ErrNotFound
	}
	return repo.GetStaffByID(stf.ID)
}

func (repo *staffRepository) DeleteStaffByID(ids ...string) error {
	if _, err := repo.db.Exec(`DELETE FROM staff WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting staff")
	}
	return nil
}

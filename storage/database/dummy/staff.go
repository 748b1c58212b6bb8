package dummydb

import (
	"strings"

	"github.com/trezcool/sikap/core/staff"
)

type staffRepository struct {
	db *staffTable
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) staff.Repository {
	return &staffRepository{db: db.staff}
}

func (repo *staffRepository) query() []staff.Staff {
	res := make([]staff.Staff, 0, len(repo.db.table))
	for _, stf := range repo.db.table {
		res = append(res, *stf)
	}
	return res
}

func isExcluded(stf staff.Staff, excluded []staff.Staff) bool {
	for _, ex := range excluded {
		if ex.ID == stf.ID {
			return true
		}
	}
	return false
}

func (repo *staffRepository) CheckUsernameUniqueness(username, email string, excludedStaff ...staff.Staff) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, stf := range repo.query() {
		if isExcluded(stf, excludedStaff) {
			continue
		}
		if stf.Username == username {
			return staff.ErrUsernameExists
		}
		if stf.Email == email {
			return staff.ErrEmailExists
		}
	}
	return nil
}

func (repo *staffRepository) CreateStaff(stf staff.Staff) (staff.Staff, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[stf.ID] = &stf
	return stf, nil
}

func (repo *staffRepository) QueryAllStaff() ([]staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *staffRepository) GetStaffByID(id string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if stf, ok := repo.db.table[id]; ok {
		return *stf, nil
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) GetStaffByNIP(nip string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, stf := range repo.query() {
		if stf.NIP == nip {
			return stf, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) GetStaffByUsername(username string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, stf := range repo.query() {
		if stf.Username == username {
			return stf, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) GetStaffByEmail(email string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, stf := range repo.query() {
		if stf.Email == email {
			return stf, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) GetStaffByUsernameOrEmail(username string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, stf := range repo.query() {
		if (stf.Username == username) || (stf.Email == username) {
			return stf, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) FilterStaff(filter staff.QueryFilter) ([]staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]staff.Staff, 0)
	for _, stf := range repo.query() {
		if matchesFilter(stf, filter) {
			res = append(res, stf)
		}
	}
	return res, nil
}

func matchesFilter(stf staff.Staff, filter staff.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(stf.Name), search) &&
			!strings.Contains(strings.ToLower(stf.Username), search) &&
			!strings.Contains(strings.ToLower(stf.Email), search) {
			return false
		}
	}
	if len(filter.Roles) > 0 && !hasAnyRole(stf, filter.Roles) {
		return false
	}
	if filter.IsActive != nil {
		if stf.IsActive == nil || *stf.IsActive != *filter.IsActive {
			return false
		}
	}
	if !filter.CreatedFrom.IsZero() && stf.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && stf.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func hasAnyRole(stf staff.Staff, roles []string) bool {
	for _, role := range roles {
		for _, r := range stf.Roles {
			if strings.HasPrefix(r, role) {
				return true
			}
		}
	}
	return false
}

func (repo *staffRepository) UpdateStaff(stf staff.Staff, isActive *bool) (staff.Staff, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	orig, ok := repo.db.table[stf.ID]
	if !ok {
		return staff.Staff{}, staff.ErrNotFound
	}
	if stf.Roles != nil {
		orig.Roles = stf.Roles
	}
	if stf.PasswordHash != nil {
		orig.PasswordHash = stf.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = isActive
	}
	if stf.Name != "" {
		orig.Name = stf.Name
	}
	if stf.Username != "" {
		orig.Username = stf.Username
	}
	if stf.Email != "" {
		orig.Email = stf.Email
	}
	if !stf.LastLogin.IsZero() {
		orig.LastLogin = stf.LastLogin
	}
	orig.UpdatedAt = stf.UpdatedAt

	repo.db.table[stf.ID] = orig
	return *orig, nil
}

func (repo *staffRepository) DeleteStaffByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

package dummydb

import (
	"sort"

	"github.com/trezcool/sikap/core/journal"
)

type journalRepository struct {
	db *journalTable
}

var _ journal.Repository = (*journalRepository)(nil) // interface compliance check

func NewJournalRepository(db *DB) journal.Repository {
	return &journalRepository{db: db.journal}
}

func (repo *journalRepository) CreateEntry(e journal.Entry) (journal.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *journalRepository) GetEntryByID(id string) (journal.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.table[id]; ok {
		return *e, nil
	}
	return journal.Entry{}, journal.ErrNotFound
}

func (repo *journalRepository) FilterEntries(filter journal.QueryFilter) ([]journal.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]journal.Entry, 0)
	for _, e := range repo.db.table {
		if filter.TeacherNIP != "" && e.TeacherNIP != filter.TeacherNIP {
			continue
		}
		if filter.ClassID != "" && e.ClassID != filter.ClassID {
			continue
		}
		if filter.SubjectID != "" && e.SubjectID != filter.SubjectID {
			continue
		}
		if !filter.DateFrom.IsZero() && e.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && e.Date.After(filter.DateTo) {
			continue
		}
		res = append(res, *e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}

func (repo *journalRepository) UpdateEntry(e journal.Entry) (journal.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[e.ID]; !ok {
		return journal.Entry{}, journal.ErrNotFound
	}
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *journalRepository) DeleteEntry(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)
	return nil
}

package dummydb

import (
	"strings"
	"time"

	"github.com/trezcool/sikap/core/grade"
)

type gradeRepository struct {
	db *gradeTable
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db.grade}
}

func scopeKey(sc grade.Scope) string {
	return strings.Join([]string{sc.TeacherNIP, sc.ClassID, sc.SubjectID, sc.Semester, sc.AcademicYear}, "\x00")
}

func sameCell(a, b grade.Entry) bool {
	return a.Scope == b.Scope && a.StudentID == b.StudentID &&
		a.Category == b.Category && a.UnitLabel == b.UnitLabel && a.ColumnLabel == b.ColumnLabel
}

func (repo *gradeRepository) FilterEntries(scope grade.Scope) ([]grade.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]grade.Entry, 0)
	for _, e := range repo.db.entries {
		if e.Scope == scope {
			res = append(res, e)
		}
	}
	return res, nil
}

func (repo *gradeRepository) UpsertEntry(e grade.Entry) (grade.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i, old := range repo.db.entries {
		if sameCell(old, e) {
			e.ID = old.ID
			e.CreatedAt = old.CreatedAt
			if e.Topic == "" {
				e.Topic = old.Topic
			}
			repo.db.entries[i] = e
			return e, nil
		}
	}
	repo.db.entries = append(repo.db.entries, e)
	return e, nil
}

func (repo *gradeRepository) SetColumnTopic(scope grade.Scope, category grade.Category, unit, label, topic string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	found := false
	for i, e := range repo.db.entries {
		if e.Scope == scope && e.Category == category && e.UnitLabel == unit && e.ColumnLabel == label {
			repo.db.entries[i].Topic = topic
			found = true
		}
	}
	if !found {
		// placeholder row keeps the column and its topic visible
		repo.db.entries = append(repo.db.entries, grade.Entry{
			Scope:       scope,
			Category:    category,
			UnitLabel:   unit,
			ColumnLabel: label,
			Topic:       topic,
		})
	}
	return nil
}

func (repo *gradeRepository) DeleteColumnEntries(scope grade.Scope, category grade.Category, unit, label string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	kept := repo.db.entries[:0]
	for _, e := range repo.db.entries {
		if e.Scope == scope && e.Category == category && e.UnitLabel == unit && e.ColumnLabel == label {
			continue
		}
		kept = append(kept, e)
	}
	repo.db.entries = kept
	return nil
}

func (repo *gradeRepository) FilterEntriesInRange(teacherNIP string, from, to time.Time) ([]grade.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]grade.Entry, 0)
	for _, e := range repo.db.entries {
		if e.Scope.TeacherNIP != teacherNIP {
			continue
		}
		if e.UpdatedAt.Before(from) || e.UpdatedAt.After(to) {
			continue
		}
		res = append(res, e)
	}
	return res, nil
}

func (repo *gradeRepository) GetWeightConfig(scope grade.Scope) (grade.WeightConfig, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if wc, ok := repo.db.configs[scopeKey(scope)]; ok {
		return *wc, nil
	}
	return grade.WeightConfig{}, grade.ErrConfigNotFound
}

func (repo *gradeRepository) SaveWeightConfig(wc grade.WeightConfig) (grade.WeightConfig, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.configs[scopeKey(wc.Scope)] = &wc
	return wc, nil
}

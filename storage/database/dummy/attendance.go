package dummydb

import (
	"sort"
	"time"

	"github.com/trezcool/sikap/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) CreateSession(s attendance.Session) (attendance.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *attendanceRepository) GetSessionByID(id string) (attendance.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return attendance.Session{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FilterSessions(filter attendance.QueryFilter) ([]attendance.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]attendance.Session, 0)
	for _, s := range repo.db.sessions {
		if filter.ClassID != "" && s.ClassID != filter.ClassID {
			continue
		}
		if filter.SubjectID != "" && s.SubjectID != filter.SubjectID {
			continue
		}
		if filter.TeacherNIP != "" && s.TeacherNIP != filter.TeacherNIP {
			continue
		}
		if filter.Status != "" && string(s.Status) != filter.Status {
			continue
		}
		if !filter.DateFrom.IsZero() && s.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && s.Date.After(filter.DateTo) {
			continue
		}
		res = append(res, *s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}

func (repo *attendanceRepository) UpdateSessionStatus(id string, status attendance.SessionStatus, at time.Time) (attendance.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.sessions[id]
	if !ok {
		return attendance.Session{}, attendance.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = at
	return *s, nil
}

func (repo *attendanceRepository) ReplaceRecords(sessionID string, recs []attendance.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sessions[sessionID]; !ok {
		return attendance.ErrNotFound
	}
	repo.db.records[sessionID] = append([]attendance.Record(nil), recs...)
	return nil
}

func (repo *attendanceRepository) GetSessionRecords(sessionID string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]attendance.Record(nil), repo.db.records[sessionID]...), nil
}

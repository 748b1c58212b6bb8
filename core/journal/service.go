package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("journal entry not found")

type (
	Repository interface {
		CreateEntry(e Entry) (Entry, error)
		GetEntryByID(id string) (Entry, error)
		FilterEntries(filter QueryFilter) ([]Entry, error)
		UpdateEntry(e Entry) (Entry, error)
		DeleteEntry(id string) error
	}

	Service interface {
		Create(ne NewEntry) (Entry, error)
		GetByID(id string) (Entry, error)
		Filter(filter QueryFilter) ([]Entry, error)
		Update(id string, ne NewEntry) (Entry, error)
		Delete(id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ne NewEntry) (Entry, error) {
	if err := ne.Validate(); err != nil {
		return Entry{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateEntry(Entry{
		ID:         uuid.New().String(),
		TeacherNIP: ne.TeacherNIP,
		ClassID:    ne.ClassID,
		SubjectID:  ne.SubjectID,
		Date:       ne.Date,
		Material:   ne.Material,
		Note:       ne.Note,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *service) GetByID(id string) (Entry, error) {
	return svc.repo.GetEntryByID(id)
}

func (svc *service) Filter(filter QueryFilter) ([]Entry, error) {
	return svc.repo.FilterEntries(filter)
}

func (svc *service) Update(id string, ne NewEntry) (Entry, error) {
	if err := ne.Validate(); err != nil {
		return Entry{}, err
	}
	e, err := svc.repo.GetEntryByID(id)
	if err != nil {
		return Entry{}, err
	}
	e.TeacherNIP = ne.TeacherNIP
	e.ClassID = ne.ClassID
	e.SubjectID = ne.SubjectID
	e.Date = ne.Date
	e.Material = ne.Material
	e.Note = ne.Note
	e.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEntry(e)
}

func (svc *service) Delete(id string) error {
	return svc.repo.DeleteEntry(id)
}

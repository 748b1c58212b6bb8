package workload

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("assignment not found")

type (
	Repository interface {
		SaveAssignment(a Assignment) (Assignment, error)
		GetAssignment(staffNIP, semester, academicYear string) (Assignment, error)
		FilterAssignments(filter QueryFilter) ([]Assignment, error)
		CreateDutyLog(dl DutyLog) (DutyLog, error)
		FilterDutyLogs(staffNIP string, from, to time.Time) ([]DutyLog, error)
	}

	Service interface {
		// SaveAssignment upserts a teacher's allocation for a semester.
		SaveAssignment(a Assignment) (Assignment, error)
		Get(staffNIP, semester, academicYear string) (Assignment, error)
		Filter(filter QueryFilter) ([]Assignment, error)
		// Totals derives the workload summary of a stored assignment.
		Totals(staffNIP, semester, academicYear string) (Totals, error)
		LogDuty(in NewDutyLogInput) (DutyLog, error)
		DutyLogs(staffNIP string, from, to time.Time) ([]DutyLog, error)
		MinHours() float64
	}

	service struct {
		repo     Repository
		minHours float64
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, minHours float64) Service {
	return &service{repo: repo, minHours: minHours}
}

func (svc *service) SaveAssignment(a Assignment) (Assignment, error) {
	if err := a.Validate(); err != nil {
		return Assignment{}, err
	}
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.New().String()
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return svc.repo.SaveAssignment(a)
}

func (svc *service) Get(staffNIP, semester, academicYear string) (Assignment, error) {
	return svc.repo.GetAssignment(staffNIP, semester, academicYear)
}

func (svc *service) Filter(filter QueryFilter) ([]Assignment, error) {
	return svc.repo.FilterAssignments(filter)
}

func (svc *service) Totals(staffNIP, semester, academicYear string) (Totals, error) {
	a, err := svc.repo.GetAssignment(staffNIP, semester, academicYear)
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(a, svc.minHours), nil
}

func (svc *service) LogDuty(in NewDutyLogInput) (DutyLog, error) {
	if err := in.Validate(); err != nil {
		return DutyLog{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateDutyLog(DutyLog{
		ID:        uuid.New().String(),
		StaffNIP:  in.StaffNIP,
		DutyID:    in.DutyID,
		Date:      in.Date,
		Activity:  in.Activity,
		Result:    in.Result,
		Note:      in.Note,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) DutyLogs(staffNIP string, from, to time.Time) ([]DutyLog, error) {
	return svc.repo.FilterDutyLogs(staffNIP, from, to)
}

func (svc *service) MinHours() float64 { return svc.minHours }

package grade

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/sikap/core"
)

var (
	// errors
	ErrNotFound        = errors.New("grade entry not found")
	ErrConfigNotFound  = errors.New("weight config not found")
	errConfirmRequired = errors.New("column deletion is irreversible and must be confirmed")
)

type (
	Repository interface {
		FilterEntries(scope Scope) ([]Entry, error)
		// UpsertEntry writes one cell, keyed by the
		// (scope, student, category, unit, column) coordinate. The backing
		// store must serialize concurrent writes to the same coordinate.
		UpsertEntry(e Entry) (Entry, error)
		// SetColumnTopic stamps the topic on every row of a column, creating
		// a placeholder row when the column has none yet.
		SetColumnTopic(scope Scope, category Category, unit, label, topic string) error
		// DeleteColumnEntries removes every row of a column across all
		// students, placeholders included.
		DeleteColumnEntries(scope Scope, category Category, unit, label string) error
		FilterEntriesInRange(teacherNIP string, from, to time.Time) ([]Entry, error)
		GetWeightConfig(scope Scope) (WeightConfig, error)
		SaveWeightConfig(wc WeightConfig) (WeightConfig, error)
	}

	Service interface {
		// LoadLedger snapshots the scope's entries and weights. Unconfigured
		// scopes fall back to the default weights.
		LoadLedger(scope Scope) (*Ledger, error)
		SetValue(scope Scope, in SetValueInput) (Entry, error)
		SetTopic(scope Scope, category Category, unit, label, topic string) error
		// DeleteColumn removes a column and all its values across students.
		// Destructive and irreversible; the caller must confirm explicitly.
		DeleteColumn(scope Scope, category Category, unit, label string, confirm bool) error
		GetWeights(scope Scope) (WeightConfig, error)
		SaveWeights(wc WeightConfig) (WeightConfig, error)
		// EntriesInRange lists the scored cells a teacher wrote over a
		// period, placeholders excluded. Feeds report snapshots.
		EntriesInRange(teacherNIP string, from, to time.Time) ([]Entry, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) LoadLedger(scope Scope) (*Ledger, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	weights, err := svc.GetWeights(scope)
	if err != nil {
		return nil, err
	}
	entries, err := svc.repo.FilterEntries(scope)
	if err != nil {
		return nil, errors.Wrap(err, "loading ledger entries")
	}
	return NewLedger(scope, weights, entries), nil
}

func (svc *service) SetValue(scope Scope, in SetValueInput) (Entry, error) {
	if err := scope.Validate(); err != nil {
		return Entry{}, err
	}
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	val, err := ParseScore(in.Value)
	if err != nil {
		return Entry{}, err
	}

	now := time.Now().UTC()
	return svc.repo.UpsertEntry(Entry{
		ID:          uuid.New().String(),
		Scope:       scope,
		StudentID:   in.StudentID,
		Category:    in.Category,
		UnitLabel:   in.UnitLabel,
		ColumnLabel: in.ColumnLabel,
		Value:       val,
		Topic:       in.Topic,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) SetTopic(scope Scope, category Category, unit, label, topic string) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	return svc.repo.SetColumnTopic(scope, category, unit, label, core.CleanString(topic))
}

func (svc *service) DeleteColumn(scope Scope, category Category, unit, label string, confirm bool) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if !confirm {
		return core.NewValidationError(errConfirmRequired, core.FieldError{Field: "confirm", Error: errConfirmRequired.Error()})
	}
	return svc.repo.DeleteColumnEntries(scope, category, unit, label)
}

func (svc *service) GetWeights(scope Scope) (WeightConfig, error) {
	wc, err := svc.repo.GetWeightConfig(scope)
	if err == ErrConfigNotFound {
		return DefaultWeightConfig(scope), nil
	}
	return wc, err
}

func (svc *service) SaveWeights(wc WeightConfig) (WeightConfig, error) {
	if err := wc.Validate(); err != nil {
		return WeightConfig{}, err
	}
	if wc.ID == "" {
		wc.ID = uuid.New().String()
		wc.CreatedAt = time.Now().UTC()
	}
	wc.UpdatedAt = time.Now().UTC()
	return svc.repo.SaveWeightConfig(wc)
}

func (svc *service) EntriesInRange(teacherNIP string, from, to time.Time) ([]Entry, error) {
	entries, err := svc.repo.FilterEntriesInRange(teacherNIP, from, to)
	if err != nil {
		return nil, err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.StudentID != "" {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

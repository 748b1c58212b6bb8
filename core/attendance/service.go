package attendance

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core"
)

var (
	// errors
	ErrNotFound        = errors.New("attendance session not found")
	ErrSessionFinal    = core.NewInvalidStateError("attendance session is final and cannot be edited")
	ErrSessionNotFinal = core.NewInvalidStateError("attendance session is not final")
)

type (
	Repository interface {
		CreateSession(s Session) (Session, error)
		GetSessionByID(id string) (Session, error)
		FilterSessions(filter QueryFilter) ([]Session, error)
		// UpdateSessionStatus flips only the session lifecycle state.
		UpdateSessionStatus(id string, status SessionStatus, at time.Time) (Session, error)
		// ReplaceRecords writes the full record set of a session, one row per
		// (session, student). The backing store must serialize concurrent
		// writes to the same session.
		ReplaceRecords(sessionID string, recs []Record) error
		GetSessionRecords(sessionID string) ([]Record, error)
	}

	Service interface {
		OpenSession(ns NewSession) (Session, error)
		GetSession(id string) (Session, error)
		Filter(filter QueryFilter) ([]Session, error)
		GetRecords(sessionID string) ([]Record, error)
		SaveRecords(sessionID string, inputs []RecordInput) ([]Record, error)
		Finalize(sessionID string, inputs []RecordInput) (Session, error)
		Reopen(sessionID string) (Session, error)
		SummaryCounts(teacherNIP string, from, to time.Time) ([]Summary, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) OpenSession(ns NewSession) (Session, error) {
	if err := ns.Validate(); err != nil {
		return Session{}, err
	}
	now := time.Now().UTC()
	s := Session{
		ID:          uuid.New().String(),
		ClassID:     ns.ClassID,
		SubjectID:   ns.SubjectID,
		Date:        ns.Date,
		PeriodLabel: ns.PeriodLabel,
		Status:      SessionDraft,
		TeacherNIP:  ns.TeacherNIP,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ns.SubstituteNIP != "" {
		s.SubstituteNIP = null.StringFrom(ns.SubstituteNIP)
	}
	return svc.repo.CreateSession(s)
}

func (svc *service) GetSession(id string) (Session, error) {
	return svc.repo.GetSessionByID(id)
}

func (svc *service) Filter(filter QueryFilter) ([]Session, error) {
	return svc.repo.FilterSessions(filter)
}

func (svc *service) GetRecords(sessionID string) ([]Record, error) {
	if _, err := svc.repo.GetSessionByID(sessionID); err != nil {
		return nil, err
	}
	return svc.repo.GetSessionRecords(sessionID)
}

// SaveRecords replaces the record set of a draft session. Records carrying a
// SourceRef keep their derived status/note unless the incoming status moves
// away from the derived one, in which case the record becomes teacher-owned.
func (svc *service) SaveRecords(sessionID string, inputs []RecordInput) ([]Record, error) {
	s, err := svc.repo.GetSessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != SessionDraft {
		return nil, ErrSessionFinal
	}
	recs, err := svc.buildRecords(s, inputs)
	if err != nil {
		return nil, err
	}
	if err = svc.repo.ReplaceRecords(s.ID, recs); err != nil {
		return nil, errors.Wrap(err, "replacing session records")
	}
	return recs, nil
}

func (svc *service) buildRecords(s Session, inputs []RecordInput) ([]Record, error) {
	existing, err := svc.repo.GetSessionRecords(s.ID)
	if err != nil {
		return nil, errors.Wrap(err, "loading session records")
	}
	derived := make(map[string]Record, len(existing))
	for _, rec := range existing {
		if rec.SourceRef.Valid {
			derived[rec.StudentID] = rec
		}
	}

	now := time.Now().UTC()
	recs := make([]Record, 0, len(inputs))
	for i := range inputs {
		in := inputs[i]
		if err := in.Validate(); err != nil {
			return nil, err
		}
		rec := Record{
			ID:        uuid.New().String(),
			SessionID: s.ID,
			StudentID: in.StudentID,
			Status:    in.Status,
			Note:      in.Note,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if in.SourceRef != "" {
			rec.SourceRef = null.StringFrom(in.SourceRef)
		}
		if drv, ok := derived[in.StudentID]; ok {
			if in.Status == drv.Status {
				// system-derived; the teacher cannot edit the note
				rec.Status = drv.Status
				rec.Note = drv.Note
				rec.SourceRef = drv.SourceRef
			}
			// status moved away from the source value: the record is now
			// teacher-owned and the weak reference is dropped
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Finalize persists the provided record set and then flips the session to
// final. The record write strictly precedes the status flip so a crash in
// between leaves a complete draft, never a half-written final session.
func (svc *service) Finalize(sessionID string, inputs []RecordInput) (Session, error) {
	s, err := svc.repo.GetSessionByID(sessionID)
	if err != nil {
		return Session{}, err
	}
	if s.Status != SessionDraft {
		return Session{}, ErrSessionFinal
	}

	recs, err := svc.buildRecords(s, inputs)
	if err != nil {
		return Session{}, err
	}
	if err = svc.repo.ReplaceRecords(s.ID, recs); err != nil {
		return Session{}, errors.Wrap(err, "replacing session records")
	}
	return svc.repo.UpdateSessionStatus(s.ID, SessionFinal, time.Now().UTC())
}

// Reopen flips a final session back to draft. The status flip strictly
// precedes any subsequent record rewrite (via SaveRecords) so a crash in
// between leaves an editable draft rather than a final session with stale
// details.
func (svc *service) Reopen(sessionID string) (Session, error) {
	s, err := svc.repo.GetSessionByID(sessionID)
	if err != nil {
		return Session{}, err
	}
	if s.Status != SessionFinal {
		return Session{}, ErrSessionNotFinal
	}
	return svc.repo.UpdateSessionStatus(s.ID, SessionDraft, time.Now().UTC())
}

// SummaryCounts tallies per-class/per-subject attendance of final sessions
// taught by the given teacher over [from, to].
func (svc *service) SummaryCounts(teacherNIP string, from, to time.Time) ([]Summary, error) {
	sessions, err := svc.repo.FilterSessions(QueryFilter{
		TeacherNIP: teacherNIP,
		Status:     string(SessionFinal),
		DateFrom:   from,
		DateTo:     to,
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0)
	byKey := make(map[string]*Summary)
	for _, s := range sessions {
		key := s.ClassID + "\x00" + s.SubjectID
		sum, ok := byKey[key]
		if !ok {
			sum = &Summary{ClassID: s.ClassID, SubjectID: s.SubjectID}
			byKey[key] = sum
			keys = append(keys, key)
		}
		sum.Sessions++

		recs, err := svc.repo.GetSessionRecords(s.ID)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			switch rec.Status {
			case StatusPresent:
				sum.Present++
			case StatusSick:
				sum.Sick++
			case StatusExcused:
				sum.Excused++
			case StatusAbsent:
				sum.Absent++
			}
		}
	}

	summaries := make([]Summary, 0, len(keys))
	for _, key := range keys {
		summaries = append(summaries, *byKey[key])
	}
	return summaries, nil
}

package attendance

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core"
)

// Status is the attendance status of a student in a teaching session.
// The single-letter codes follow the national report-card convention:
// H (hadir/present), S (sakit/sick), I (izin/excused), A (alpa/absent).
type Status string

const (
	StatusPresent Status = "H"
	StatusSick    Status = "S"
	StatusExcused Status = "I"
	StatusAbsent  Status = "A"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusSick, StatusExcused, StatusAbsent:
		return true
	default:
		return false
	}
}

// SessionStatus is the lifecycle state of a teaching session.
type SessionStatus string

const (
	SessionDraft SessionStatus = "draft"
	SessionFinal SessionStatus = "final"
)

// Session is a single per-class/per-date teaching session owned by the
// teacher who opened it. It is mutable only while in draft; finalizing and
// reopening are explicit transitions, not mutations.
type Session struct {
	ID            string        `json:"id"`
	ClassID       string        `json:"class_id"`
	SubjectID     string        `json:"subject_id"`
	Date          time.Time     `json:"date"`
	PeriodLabel   string        `json:"period_label"`
	Status        SessionStatus `json:"status"`
	TeacherNIP    string        `json:"teacher_nip"`
	SubstituteNIP null.String   `json:"substitute_nip,omitempty"`
	CreatedAt     time.Time     `json:"created_at"` // UTC
	UpdatedAt     time.Time     `json:"updated_at"` // UTC
}

// Record is the attendance of one student in one session. When SourceRef is
// set, the status/note were derived from an external leave record and are
// read-only to the teacher until the status is changed away from it.
type Record struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	StudentID string      `json:"student_id"`
	Status    Status      `json:"status"`
	Note      string      `json:"note"`
	SourceRef null.String `json:"source_ref,omitempty"`
	CreatedAt time.Time   `json:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at"` // UTC
}

// NewSession contains information needed to open a new teaching Session.
type NewSession struct {
	ClassID       string    `json:"class_id" validate:"required"`
	SubjectID     string    `json:"subject_id" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
	PeriodLabel   string    `json:"period_label"`
	TeacherNIP    string    `json:"teacher_nip" validate:"required"`
	SubstituteNIP string    `json:"substitute_nip"`
}

func (ns *NewSession) Validate() error {
	ns.ClassID = core.CleanString(ns.ClassID)
	ns.SubjectID = core.CleanString(ns.SubjectID)
	ns.PeriodLabel = core.CleanString(ns.PeriodLabel)
	ns.TeacherNIP = core.CleanString(ns.TeacherNIP)
	ns.SubstituteNIP = core.CleanString(ns.SubstituteNIP)
	return core.Validate.Struct(ns)
}

// RecordInput is a single student mark provided when saving session records.
type RecordInput struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    Status `json:"status" validate:"required,attstatus"`
	Note      string `json:"note"`
	SourceRef string `json:"source_ref"`
}

func (ri *RecordInput) Validate() error {
	ri.StudentID = core.CleanString(ri.StudentID)
	ri.Note = core.CleanString(ri.Note)
	return core.Validate.Struct(ri)
}

type QueryFilter struct {
	ClassID    string    `query:"class_id"`
	SubjectID  string    `query:"subject_id"`
	TeacherNIP string    `query:"teacher_nip"`
	Status     string    `query:"status"`
	DateFrom   time.Time `query:"date_from"`
	DateTo     time.Time `query:"date_to"`
}

// Summary is the per-class/per-subject tally of statuses over a period.
type Summary struct {
	ClassID   string `json:"class_id"`
	SubjectID string `json:"subject_id"`
	Sessions  int    `json:"sessions"`
	Present   int    `json:"present"`
	Sick      int    `json:"sick"`
	Excused   int    `json:"excused"`
	Absent    int    `json:"absent"`
}

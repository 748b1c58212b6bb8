package report

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/attendance"
	"github.com/trezcool/sikap/core/grade"
	"github.com/trezcool/sikap/core/journal"
	"github.com/trezcool/sikap/core/staff"
	"github.com/trezcool/sikap/core/workload"
)

type Status string

const (
	StatusDraft          Status = "draft"
	StatusSubmitted      Status = "submitted"
	StatusApprovedStage1 Status = "approved_stage1"
	StatusApprovedStage2 Status = "approved_stage2"
	StatusReturned       Status = "returned_for_revision"
)

// Terminal reports whether the submission can no longer transition.
func (s Status) Terminal() bool { return s == StatusApprovedStage2 }

// Deletable reports whether a submission in this status may be deleted.
// Reports that entered the approval chain are kept for the record.
func (s Status) Deletable() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusReturned:
		return true
	default:
		return false
	}
}

// Editable reports whether the snapshot details may still be rewritten.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusReturned
}

// SnapshotTotals are the aggregate counts of one compiled snapshot.
type SnapshotTotals struct {
	SessionCount    int `json:"session_count"`
	PresentCount    int `json:"present_count"`
	SickCount       int `json:"sick_count"`
	ExcusedCount    int `json:"excused_count"`
	AbsentCount     int `json:"absent_count"`
	JournalCount    int `json:"journal_count"`
	GradeEntryCount int `json:"grade_entry_count"`
	DutyLogCount    int `json:"duty_log_count"`
}

func (t SnapshotTotals) Empty() bool { return t == SnapshotTotals{} }

// Snapshot is the compiled activity record of one staff member over a
// period. It is written into the submission at save/submit time and never
// live-queried afterward.
type Snapshot struct {
	StaffNIP            string               `json:"staff_nip"`
	PeriodStart         time.Time            `json:"period_start"`
	PeriodEnd           time.Time            `json:"period_end"`
	Totals              SnapshotTotals       `json:"totals"`
	AttendanceSummaries []attendance.Summary `json:"attendance_summaries"`
	Sessions            []attendance.Session `json:"sessions"`
	JournalEntries      []journal.Entry      `json:"journal_entries"`
	GradeEntries        []grade.Entry        `json:"grade_entries"`
	DutyLogs            []workload.DutyLog   `json:"duty_logs"`
}

// Submission is one performance report moving through the approval chain.
// Version guards concurrent updates; the store rejects stale writes.
type Submission struct {
	ID           string      `json:"id"`
	StaffNIP     string      `json:"staff_nip"`
	PeriodCode   string      `json:"period_code"`
	Status       Status      `json:"status"`
	Snapshot     Snapshot    `json:"snapshot"`
	ReviewerNote string      `json:"reviewer_note"`
	ApprovalCode null.String `json:"approval_code,omitempty"`
	SubmittedAt  null.Time   `json:"submitted_at,omitempty"`
	ApprovedAt   null.Time   `json:"approved_at,omitempty"`
	Version      int         `json:"version"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ApprovalLog is one immutable audit row; exactly one is written per
// successful workflow transition.
type ApprovalLog struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Level        int       `json:"level"`
	Decision     Decision  `json:"decision"`
	ActorNIP     string    `json:"actor_nip"`
	ActorName    string    `json:"actor_name"`
	Note         string    `json:"note"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// Actor identifies who is exercising a workflow transition.
type Actor struct {
	NIP   string   `json:"nip"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (a Actor) hasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role || r == staff.RoleAdminOwner {
			return true
		}
	}
	return false
}

// IsPrincipal reports whether the actor may review at stage 1.
func (a Actor) IsPrincipal() bool { return a.hasRole(staff.RoleAdminPrincipal) }

// IsSupervisor reports whether the actor may review at stage 2.
func (a Actor) IsSupervisor() bool { return a.hasRole(staff.RoleAdminSupervisor) }

// NewSubmission contains information needed to open a draft Submission.
type NewSubmission struct {
	StaffNIP    string    `json:"staff_nip" validate:"required"`
	PeriodCode  string    `json:"period_code" validate:"required"`
	PeriodStart time.Time `json:"period_start" validate:"required"`
	PeriodEnd   time.Time `json:"period_end" validate:"required,gtfield=PeriodStart"`
}

func (ns *NewSubmission) Validate() error {
	ns.StaffNIP = core.CleanString(ns.StaffNIP)
	ns.PeriodCode = core.CleanString(ns.PeriodCode)
	return core.Validate.Struct(ns)
}

type QueryFilter struct {
	StaffNIP   string `json:"staff_nip" query:"staff_nip"`
	PeriodCode string `json:"period_code" query:"period_code"`
	Status     Status `json:"status" query:"status"`
}

// NarrativeRow is one line of the chronological activity narrative derived
// from a snapshot.
type NarrativeRow struct {
	Sequence  int    `json:"sequence"`
	DateLabel string `json:"date_label"`
	Activity  string `json:"activity"`
	Result    string `json:"result"`
	Note      string `json:"note"`
}

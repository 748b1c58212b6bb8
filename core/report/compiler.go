package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/attendance"
	"github.com/trezcool/sikap/core/grade"
	"github.com/trezcool/sikap/core/journal"
	"github.com/trezcool/sikap/core/staff"
	"github.com/trezcool/sikap/core/workload"
)

var (
	// errors
	ErrNotFound            = errors.New("submission not found")
	ErrSubmissionImmutable = core.NewInvalidStateError("submission can no longer be modified")
	ErrNotDeletable        = core.NewInvalidStateError("submission has entered the approval chain and cannot be deleted")
	errEmptySnapshot       = errors.New("nothing to report for the period")
)

type (
	// AttendanceSource, JournalSource, GradeSource and DutySource are the
	// read surfaces the compiler snapshots from. The domain services
	// satisfy them.
	AttendanceSource interface {
		Filter(filter attendance.QueryFilter) ([]attendance.Session, error)
		SummaryCounts(teacherNIP string, from, to time.Time) ([]attendance.Summary, error)
	}

	JournalSource interface {
		Filter(filter journal.QueryFilter) ([]journal.Entry, error)
	}

	GradeSource interface {
		EntriesInRange(teacherNIP string, from, to time.Time) ([]grade.Entry, error)
	}

	DutySource interface {
		DutyLogs(staffNIP string, from, to time.Time) ([]workload.DutyLog, error)
	}

	// StaffSource resolves who a submission belongs to, for notifications.
	StaffSource interface {
		GetByNIP(nip string) (staff.Staff, error)
	}

	Repository interface {
		CreateSubmission(sub Submission) (Submission, error)
		GetSubmissionByID(id string) (Submission, error)
		FilterSubmissions(filter QueryFilter) ([]Submission, error)
		// UpdateSubmissionDetails rewrites the snapshot of a submission.
		// The store must reject the write with a conflict when Version is
		// stale, and must leave the status untouched.
		UpdateSubmissionDetails(sub Submission) (Submission, error)
		// UpdateSubmissionStatus flips only the lifecycle state, version
		// checked like UpdateSubmissionDetails.
		UpdateSubmissionStatus(id string, status Status, version int, at time.Time) (Submission, error)
		// UpdateSubmissionDecision writes the outcome of a workflow
		// transition: status, reviewer note, approval code and approval
		// timestamp, version checked.
		UpdateSubmissionDecision(sub Submission) (Submission, error)
		DeleteSubmission(id string) error
		CreateApprovalLog(l ApprovalLog) (ApprovalLog, error)
		GetApprovalLogs(submissionID string) ([]ApprovalLog, error)
	}

	Service interface {
		// Create compiles a fresh snapshot and opens a draft submission.
		Create(ns NewSubmission) (Submission, error)
		Get(id string) (Submission, error)
		Filter(filter QueryFilter) ([]Submission, error)
		// GenerateSnapshot is a pure read; it never touches a submission.
		GenerateSnapshot(staffNIP string, periodStart, periodEnd time.Time) (Snapshot, error)
		// SaveDraft recompiles the snapshot of an editable submission.
		SaveDraft(id string) (Submission, error)
		// Submit freezes the snapshot then flips the status, in that
		// order, so a readable Submitted record is always complete.
		Submit(id string) (Submission, error)
		// Withdraw flips a Submitted report back to Draft before any
		// detail rewrite can happen.
		Withdraw(id string) (Submission, error)
		Delete(id string) error
		// Narrative derives the chronological activity list of a snapshot.
		Narrative(snap Snapshot) []NarrativeRow

		Approve(id string, actor Actor) (Submission, error)
		Reject(id string, actor Actor, note string) (Submission, error)
		Logs(id string) ([]ApprovalLog, error)
	}

	service struct {
		repo       Repository
		attendance AttendanceSource
		journal    JournalSource
		grades     GradeSource
		duties     DutySource
		staffSvc   StaffSource
		mailSvc    core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	att AttendanceSource,
	jour JournalSource,
	grades GradeSource,
	duties DutySource,
	staffSvc StaffSource,
	mailSvc core.EmailService,
) Service {
	return &service{
		repo:       repo,
		attendance: att,
		journal:    jour,
		grades:     grades,
		duties:     duties,
		staffSvc:   staffSvc,
		mailSvc:    mailSvc,
	}
}

func (svc *service) GenerateSnapshot(staffNIP string, periodStart, periodEnd time.Time) (Snapshot, error) {
	snap := Snapshot{StaffNIP: staffNIP, PeriodStart: periodStart, PeriodEnd: periodEnd}

	sessions, err := svc.attendance.Filter(attendance.QueryFilter{
		TeacherNIP: staffNIP,
		Status:     string(attendance.SessionFinal),
		DateFrom:   periodStart,
		DateTo:     periodEnd,
	})
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "snapshotting attendance sessions")
	}
	summaries, err := svc.attendance.SummaryCounts(staffNIP, periodStart, periodEnd)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "snapshotting attendance summaries")
	}
	entries, err := svc.journal.Filter(journal.QueryFilter{
		TeacherNIP: staffNIP,
		DateFrom:   periodStart,
		DateTo:     periodEnd,
	})
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "snapshotting journal entries")
	}
	gradeEntries, err := svc.grades.EntriesInRange(staffNIP, periodStart, periodEnd)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "snapshotting grade entries")
	}
	dutyLogs, err := svc.duties.DutyLogs(staffNIP, periodStart, periodEnd)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "snapshotting duty logs")
	}

	snap.Sessions = sessions
	snap.AttendanceSummaries = summaries
	snap.JournalEntries = entries
	snap.GradeEntries = gradeEntries
	snap.DutyLogs = dutyLogs

	snap.Totals.SessionCount = len(sessions)
	for _, s := range summaries {
		snap.Totals.PresentCount += s.Present
		snap.Totals.SickCount += s.Sick
		snap.Totals.ExcusedCount += s.Excused
		snap.Totals.AbsentCount += s.Absent
	}
	for _, e := range entries {
		if e.Filled() {
			snap.Totals.JournalCount++
		}
	}
	snap.Totals.GradeEntryCount = len(gradeEntries)
	snap.Totals.DutyLogCount = len(dutyLogs)
	return snap, nil
}

func (svc *service) Narrative(snap Snapshot) []NarrativeRow {
	type item struct {
		date time.Time
		row  NarrativeRow
	}
	items := make([]item, 0, len(snap.Sessions)+len(snap.DutyLogs))
	for _, s := range snap.Sessions {
		activity := fmt.Sprintf("Mengajar %s kelas %s", s.SubjectID, s.ClassID)
		if s.PeriodLabel != "" {
			activity += fmt.Sprintf(" (%s)", s.PeriodLabel)
		}
		items = append(items, item{date: s.Date, row: NarrativeRow{
			DateLabel: s.Date.Format("2006-01-02"),
			Activity:  activity,
		}})
	}
	for _, dl := range snap.DutyLogs {
		items = append(items, item{date: dl.Date, row: NarrativeRow{
			DateLabel: dl.Date.Format("2006-01-02"),
			Activity:  dl.Activity,
			Result:    dl.Result,
			Note:      dl.Note,
		}})
	}
	// stable keeps sessions ahead of duty logs on equal dates
	sort.SliceStable(items, func(i, j int) bool { return items[i].date.Before(items[j].date) })

	rows := make([]NarrativeRow, len(items))
	for i, it := range items {
		it.row.Sequence = i + 1
		rows[i] = it.row
	}
	return rows
}

func (svc *service) Create(ns NewSubmission) (Submission, error) {
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}
	snap, err := svc.GenerateSnapshot(ns.StaffNIP, ns.PeriodStart, ns.PeriodEnd)
	if err != nil {
		return Submission{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateSubmission(Submission{
		ID:         uuid.New().String(),
		StaffNIP:   ns.StaffNIP,
		PeriodCode: ns.PeriodCode,
		Status:     StatusDraft,
		Snapshot:   snap,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *service) Get(id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(id)
}

func (svc *service) Filter(filter QueryFilter) ([]Submission, error) {
	return svc.repo.FilterSubmissions(filter)
}

func (svc *service) SaveDraft(id string) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(id)
	if err != nil {
		return Submission{}, err
	}
	if !sub.Status.Editable() {
		return Submission{}, ErrSubmissionImmutable
	}
	snap, err := svc.GenerateSnapshot(sub.StaffNIP, sub.Snapshot.PeriodStart, sub.Snapshot.PeriodEnd)
	if err != nil {
		return Submission{}, err
	}
	sub.Snapshot = snap
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubmissionDetails(sub)
}

func (svc *service) Submit(id string) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(id)
	if err != nil {
		return Submission{}, err
	}
	if !sub.Status.Editable() {
		return Submission{}, ErrSubmissionImmutable
	}
	snap, err := svc.GenerateSnapshot(sub.StaffNIP, sub.Snapshot.PeriodStart, sub.Snapshot.PeriodEnd)
	if err != nil {
		return Submission{}, err
	}
	if snap.Totals.Empty() {
		return Submission{}, core.NewValidationError(errEmptySnapshot,
			core.FieldError{Field: "snapshot", Error: errEmptySnapshot.Error()})
	}

	// details first so a Submitted record is never half-written
	now := time.Now().UTC()
	sub.Snapshot = snap
	sub.SubmittedAt = null.TimeFrom(now)
	sub.UpdatedAt = now
	sub, err = svc.repo.UpdateSubmissionDetails(sub)
	if err != nil {
		return Submission{}, err
	}
	return svc.repo.UpdateSubmissionStatus(sub.ID, StatusSubmitted, sub.Version, now)
}

func (svc *service) Withdraw(id string) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(id)
	if err != nil {
		return Submission{}, err
	}
	if sub.Status != StatusSubmitted {
		return Submission{}, ErrSubmissionImmutable
	}
	// status flips back first; any rewrite happens on a Draft record
	return svc.repo.UpdateSubmissionStatus(sub.ID, StatusDraft, sub.Version, time.Now().UTC())
}

func (svc *service) Delete(id string) error {
	sub, err := svc.repo.GetSubmissionByID(id)
	if err != nil {
		return err
	}
	if !sub.Status.Deletable() {
		return ErrNotDeletable
	}
	return svc.repo.DeleteSubmission(id)
}

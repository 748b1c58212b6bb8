package report

import (
	"testing"
	"time"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/attendance"
	"github.com/trezcool/sikap/core/grade"
	"github.com/trezcool/sikap/core/journal"
	"github.com/trezcool/sikap/core/staff"
	"github.com/trezcool/sikap/core/workload"
)

var (
	periodStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
)

type fakeRepository struct {
	subs map[string]Submission
	logs []ApprovalLog
	ops  []string
}

var _ Repository = (*fakeRepository)(nil)

func newFakeRepository() *fakeRepository {
	return &fakeRepository{subs: make(map[string]Submission)}
}

func (r *fakeRepository) CreateSubmission(sub Submission) (Submission, error) {
	r.subs[sub.ID] = sub
	r.ops = append(r.ops, "create")
	return sub, nil
}

func (r *fakeRepository) GetSubmissionByID(id string) (Submission, error) {
	sub, ok := r.subs[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return sub, nil
}

func (r *fakeRepository) FilterSubmissions(filter QueryFilter) ([]Submission, error) {
	var res []Submission
	for _, sub := range r.subs {
		if filter.StaffNIP != "" && sub.StaffNIP != filter.StaffNIP {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		res = append(res, sub)
	}
	return res, nil
}

func (r *fakeRepository) UpdateSubmissionDetails(sub Submission) (Submission, error) {
	cur, ok := r.subs[sub.ID]
	if !ok {
		return Submission{}, ErrNotFound
	}
	if cur.Version != sub.Version {
		return Submission{}, core.NewConflictError("submission was modified concurrently")
	}
	sub.Status = cur.Status
	sub.Version++
	r.subs[sub.ID] = sub
	r.ops = append(r.ops, "details")
	return sub, nil
}

func (r *fakeRepository) UpdateSubmissionStatus(id string, status Status, version int, at time.Time) (Submission, error) {
	cur, ok := r.subs[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	if cur.Version != version {
		return Submission{}, core.NewConflictError("submission was modified concurrently")
	}
	cur.Status = status
	cur.Version++
	cur.UpdatedAt = at
	r.subs[id] = cur
	r.ops = append(r.ops, "status:"+string(status))
	return cur, nil
}

func (r *fakeRepository) UpdateSubmissionDecision(sub Submission) (Submission, error) {
	cur, ok := r.subs[sub.ID]
	if !ok {
		return Submission{}, ErrNotFound
	}
	if cur.Version != sub.Version {
		return Submission{}, core.NewConflictError("submission was modified concurrently")
	}
	sub.Version++
	r.subs[sub.ID] = sub
	r.ops = append(r.ops, "decision:"+string(sub.Status))
	return sub, nil
}

func (r *fakeRepository) DeleteSubmission(id string) error {
	delete(r.subs, id)
	r.ops = append(r.ops, "delete")
	return nil
}

func (r *fakeRepository) CreateApprovalLog(l ApprovalLog) (ApprovalLog, error) {
	r.logs = append(r.logs, l)
	r.ops = append(r.ops, "log")
	return l, nil
}

func (r *fakeRepository) GetApprovalLogs(submissionID string) ([]ApprovalLog, error) {
	var res []ApprovalLog
	for _, l := range r.logs {
		if l.SubmissionID == submissionID {
			res = append(res, l)
		}
	}
	return res, nil
}

type fakeSources struct {
	sessions  []attendance.Session
	summaries []attendance.Summary
	journals  []journal.Entry
	grades    []grade.Entry
	duties    []workload.DutyLog
}

func (s *fakeSources) Filter(filter attendance.QueryFilter) ([]attendance.Session, error) {
	return s.sessions, nil
}

func (s *fakeSources) SummaryCounts(teacherNIP string, from, to time.Time) ([]attendance.Summary, error) {
	return s.summaries, nil
}

func (s *fakeSources) FilterJournal(filter journal.QueryFilter) ([]journal.Entry, error) {
	return s.journals, nil
}

func (s *fakeSources) EntriesInRange(teacherNIP string, from, to time.Time) ([]grade.Entry, error) {
	return s.grades, nil
}

func (s *fakeSources) DutyLogs(staffNIP string, from, to time.Time) ([]workload.DutyLog, error) {
	return s.duties, nil
}

// journalSource adapts fakeSources to the JournalSource method name.
type journalSource struct{ *fakeSources }

func (s journalSource) Filter(filter journal.QueryFilter) ([]journal.Entry, error) {
	return s.FilterJournal(filter)
}

type fakeStaffSource struct{}

func (fakeStaffSource) GetByNIP(nip string) (staff.Staff, error) {
	return staff.Staff{NIP: nip, Name: "Budi Santoso", Email: "budi@sikap.test"}, nil
}

type fakeMail struct{ sent []*core.EmailMessage }

func (m *fakeMail) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

func populatedSources() *fakeSources {
	day := func(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC) }
	return &fakeSources{
		sessions: []attendance.Session{
			{ID: "se1", ClassID: "X-1", SubjectID: "MTK", Date: day(12), PeriodLabel: "Jam 1-2", Status: attendance.SessionFinal},
			{ID: "se2", ClassID: "X-2", SubjectID: "MTK", Date: day(5), Status: attendance.SessionFinal},
		},
		summaries: []attendance.Summary{
			{ClassID: "X-1", SubjectID: "MTK", Sessions: 1, Present: 28, Sick: 1, Excused: 1, Absent: 2},
			{ClassID: "X-2", SubjectID: "MTK", Sessions: 1, Present: 30, Absent: 1},
		},
		journals: []journal.Entry{
			{ID: "j1", Date: day(5), Material: "Persamaan linear"},
			{ID: "j2", Date: day(12)}, // unfilled, not counted
		},
		grades: []grade.Entry{
			{ID: "g1", StudentID: "s1"},
			{ID: "g2", StudentID: "s2"},
			{ID: "g3", StudentID: "s3"},
		},
		duties: []workload.DutyLog{
			{ID: "d1", Date: day(5), Activity: "Rapat wali kelas", Result: "Notulen", Note: "ruang guru"},
			{ID: "d2", Date: day(20), Activity: "Pembinaan OSIS"},
		},
	}
}

func newTestService(repo *fakeRepository, src *fakeSources, mailSvc core.EmailService) Service {
	return NewService(repo, src, journalSource{src}, src, src, fakeStaffSource{}, mailSvc)
}

func TestGenerateSnapshot(t *testing.T) {
	svc := newTestService(newFakeRepository(), populatedSources(), &fakeMail{})

	snap, err := svc.GenerateSnapshot("198001012005011001", periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateSnapshot() unexpected error: %v", err)
	}
	want := SnapshotTotals{
		SessionCount:    2,
		PresentCount:    58,
		SickCount:       1,
		ExcusedCount:    1,
		AbsentCount:     3,
		JournalCount:    1,
		GradeEntryCount: 3,
		DutyLogCount:    2,
	}
	if snap.Totals != want {
		t.Errorf("GenerateSnapshot() totals = %+v; want %+v", snap.Totals, want)
	}
	if len(snap.Sessions) != 2 || len(snap.DutyLogs) != 2 {
		t.Errorf("GenerateSnapshot() attached %d sessions, %d duty logs; want 2, 2",
			len(snap.Sessions), len(snap.DutyLogs))
	}
}

func TestNarrative(t *testing.T) {
	svc := newTestService(newFakeRepository(), populatedSources(), &fakeMail{})

	snap, err := svc.GenerateSnapshot("198001012005011001", periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateSnapshot() unexpected error: %v", err)
	}
	rows := svc.Narrative(snap)
	if len(rows) != 4 {
		t.Fatalf("Narrative() returned %d rows; want 4", len(rows))
	}
	wantDates := []string{"2026-01-05", "2026-01-05", "2026-01-12", "2026-01-20"}
	for i, row := range rows {
		if row.Sequence != i+1 {
			t.Errorf("row %d sequence = %d; want %d", i, row.Sequence, i+1)
		}
		if row.DateLabel != wantDates[i] {
			t.Errorf("row %d date = %s; want %s", i, row.DateLabel, wantDates[i])
		}
	}
	// on equal dates the teaching session precedes the duty log
	if rows[0].Activity != "Mengajar MTK kelas X-2" {
		t.Errorf("row 0 activity = %q; want the teaching session", rows[0].Activity)
	}
	if rows[1].Activity != "Rapat wali kelas" || rows[1].Result != "Notulen" {
		t.Errorf("row 1 = %+v; want the duty log", rows[1])
	}
	if rows[2].Activity != "Mengajar MTK kelas X-1 (Jam 1-2)" {
		t.Errorf("row 2 activity = %q; want period label included", rows[2].Activity)
	}
}

func TestSubmit(t *testing.T) {
	t.Run("empty snapshot refused", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo, &fakeSources{}, &fakeMail{})
		sub := mustCreate(t, svc)

		_, err := svc.Submit(sub.ID)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Fatalf("Submit() error = %v; want ValidationError for empty snapshot", err)
		}
		if got, _ := svc.Get(sub.ID); got.Status != StatusDraft {
			t.Errorf("status = %s; want still %s", got.Status, StatusDraft)
		}
	})

	t.Run("details persist before the status flips", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo, populatedSources(), &fakeMail{})
		sub := mustCreate(t, svc)

		repo.ops = nil
		got, err := svc.Submit(sub.ID)
		if err != nil {
			t.Fatalf("Submit() unexpected error: %v", err)
		}
		if got.Status != StatusSubmitted {
			t.Errorf("Submit() status = %s; want %s", got.Status, StatusSubmitted)
		}
		if !got.SubmittedAt.Valid {
			t.Error("Submit() did not stamp SubmittedAt")
		}
		wantOps := []string{"details", "status:" + string(StatusSubmitted)}
		if len(repo.ops) != len(wantOps) || repo.ops[0] != wantOps[0] || repo.ops[1] != wantOps[1] {
			t.Errorf("store ops = %v; want %v", repo.ops, wantOps)
		}
	})

	t.Run("already submitted", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo, populatedSources(), &fakeMail{})
		sub := mustCreate(t, svc)
		if _, err := svc.Submit(sub.ID); err != nil {
			t.Fatalf("Submit() unexpected error: %v", err)
		}
		if _, err := svc.Submit(sub.ID); !core.IsInvalidState(err) {
			t.Errorf("Submit() error = %v; want invalid state", err)
		}
	})
}

func TestWithdraw(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, populatedSources(), &fakeMail{})
	sub := mustCreate(t, svc)

	if _, err := svc.Withdraw(sub.ID); !core.IsInvalidState(err) {
		t.Errorf("Withdraw() on draft error = %v; want invalid state", err)
	}

	if _, err := svc.Submit(sub.ID); err != nil {
		t.Fatalf("Submit() unexpected error: %v", err)
	}
	repo.ops = nil
	got, err := svc.Withdraw(sub.ID)
	if err != nil {
		t.Fatalf("Withdraw() unexpected error: %v", err)
	}
	if got.Status != StatusDraft {
		t.Errorf("Withdraw() status = %s; want %s", got.Status, StatusDraft)
	}
	// only the status flips; details are rewritten later, on a draft
	if len(repo.ops) != 1 || repo.ops[0] != "status:"+string(StatusDraft) {
		t.Errorf("store ops = %v; want a lone status flip", repo.ops)
	}
}

func TestDelete(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, populatedSources(), &fakeMail{})

	t.Run("draft", func(t *testing.T) {
		sub := mustCreate(t, svc)
		if err := svc.Delete(sub.ID); err != nil {
			t.Errorf("Delete() unexpected error: %v", err)
		}
	})
	t.Run("submitted", func(t *testing.T) {
		sub := mustCreate(t, svc)
		if _, err := svc.Submit(sub.ID); err != nil {
			t.Fatalf("Submit() unexpected error: %v", err)
		}
		if err := svc.Delete(sub.ID); err != nil {
			t.Errorf("Delete() unexpected error: %v", err)
		}
	})
	t.Run("approved", func(t *testing.T) {
		sub := mustCreate(t, svc)
		if _, err := svc.Submit(sub.ID); err != nil {
			t.Fatalf("Submit() unexpected error: %v", err)
		}
		if _, err := svc.Approve(sub.ID, principal); err != nil {
			t.Fatalf("Approve() unexpected error: %v", err)
		}
		if err := svc.Delete(sub.ID); !core.IsInvalidState(err) {
			t.Errorf("Delete() error = %v; want invalid state", err)
		}
		if _, err := svc.Get(sub.ID); err != nil {
			t.Errorf("submission gone after refused delete: %v", err)
		}
	})
}

func mustCreate(t *testing.T, svc Service) Submission {
	t.Helper()
	sub, err := svc.Create(NewSubmission{
		StaffNIP:    "198001012005011001",
		PeriodCode:  "2026-01",
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	return sub
}

package report

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/staff"
)

var (
	principal  = Actor{NIP: "197001011995121001", Name: "Kepala Sekolah", Roles: []string{staff.RoleAdminPrincipal}}
	supervisor = Actor{NIP: "196501011990031002", Name: "Pengawas", Roles: []string{staff.RoleAdminSupervisor}}
	teacher    = Actor{NIP: "198001012005011001", Name: "Budi Santoso", Roles: []string{staff.RoleTeacher}}
)

func submittedSubmission(t *testing.T, repo *fakeRepository, mailSvc core.EmailService) (Service, Submission) {
	t.Helper()
	svc := newTestService(repo, populatedSources(), mailSvc)
	sub := mustCreate(t, svc)
	sub, err := svc.Submit(sub.ID)
	if err != nil {
		t.Fatalf("Submit() unexpected error: %v", err)
	}
	return svc, sub
}

func TestApprove(t *testing.T) {
	t.Run("full chain", func(t *testing.T) {
		repo := newFakeRepository()
		mailSvc := &fakeMail{}
		svc, sub := submittedSubmission(t, repo, mailSvc)

		sub, err := svc.Approve(sub.ID, principal)
		if err != nil {
			t.Fatalf("stage-1 Approve() unexpected error: %v", err)
		}
		if sub.Status != StatusApprovedStage1 {
			t.Errorf("status = %s; want %s", sub.Status, StatusApprovedStage1)
		}
		if sub.ApprovalCode.Valid {
			t.Error("approval code stamped before stage 2")
		}

		sub, err = svc.Approve(sub.ID, supervisor)
		if err != nil {
			t.Fatalf("stage-2 Approve() unexpected error: %v", err)
		}
		if sub.Status != StatusApprovedStage2 {
			t.Errorf("status = %s; want %s", sub.Status, StatusApprovedStage2)
		}
		if !sub.ApprovalCode.Valid || !sub.ApprovedAt.Valid {
			t.Error("stage 2 did not stamp approval code and timestamp")
		}

		logs, err := svc.Logs(sub.ID)
		if err != nil {
			t.Fatalf("Logs() unexpected error: %v", err)
		}
		if len(logs) != 2 {
			t.Fatalf("got %d audit rows; want 2", len(logs))
		}
		if logs[0].Level != 1 || logs[0].Decision != DecisionApproved || logs[0].ActorNIP != principal.NIP {
			t.Errorf("stage-1 log = %+v", logs[0])
		}
		if logs[1].Level != 2 || logs[1].Decision != DecisionApproved || logs[1].ActorNIP != supervisor.NIP {
			t.Errorf("stage-2 log = %+v", logs[1])
		}
		if len(mailSvc.sent) != 2 {
			t.Errorf("sent %d decision mails; want 2", len(mailSvc.sent))
		}
	})

	t.Run("wrong role or state has no effect", func(t *testing.T) {
		tests := []struct {
			name      string
			status    Status
			actor     Actor
			wantRole  bool
			wantState bool
		}{
			{name: "teacher cannot approve stage 1", status: StatusSubmitted, actor: teacher, wantRole: true},
			{name: "supervisor cannot approve stage 1", status: StatusSubmitted, actor: supervisor, wantRole: true},
			{name: "principal cannot approve stage 2", status: StatusApprovedStage1, actor: principal, wantRole: true},
			{name: "draft is not reviewable", status: StatusDraft, actor: principal, wantState: true},
			{name: "returned is not reviewable", status: StatusReturned, actor: principal, wantState: true},
			{name: "stage 2 is terminal", status: StatusApprovedStage2, actor: supervisor, wantState: true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := newFakeRepository()
				svc := newTestService(repo, populatedSources(), &fakeMail{})
				sub := mustCreate(t, svc)
				cur := repo.subs[sub.ID]
				cur.Status = tt.status
				repo.subs[sub.ID] = cur

				repo.ops = nil
				_, err := svc.Approve(sub.ID, tt.actor)
				switch {
				case tt.wantRole && !core.IsRoleMismatch(err):
					t.Errorf("Approve() error = %v; want role mismatch", err)
				case tt.wantState && !core.IsInvalidState(err):
					t.Errorf("Approve() error = %v; want invalid state", err)
				}
				if len(repo.ops) != 0 {
					t.Errorf("store ops = %v; want none on failed transition", repo.ops)
				}
				if got := repo.subs[sub.ID]; got.Status != tt.status {
					t.Errorf("status mutated to %s on failed transition", got.Status)
				}
				if len(repo.logs) != 0 {
					t.Errorf("failed transition wrote %d audit rows", len(repo.logs))
				}
			})
		}
	})

	t.Run("approval code is never regenerated", func(t *testing.T) {
		repo := newFakeRepository()
		svc, sub := submittedSubmission(t, repo, &fakeMail{})
		if _, err := svc.Approve(sub.ID, principal); err != nil {
			t.Fatalf("Approve() unexpected error: %v", err)
		}
		sub, err := svc.Approve(sub.ID, supervisor)
		if err != nil {
			t.Fatalf("Approve() unexpected error: %v", err)
		}
		code := sub.ApprovalCode.String

		if _, err = svc.Approve(sub.ID, supervisor); !core.IsInvalidState(err) {
			t.Fatalf("Approve() after terminal error = %v; want invalid state", err)
		}
		if got, _ := svc.Get(sub.ID); got.ApprovalCode.String != code {
			t.Errorf("approval code changed: %s -> %s", code, got.ApprovalCode.String)
		}
		if logs, _ := svc.Logs(sub.ID); len(logs) != 2 {
			t.Errorf("got %d audit rows; want 2 (no double log)", len(logs))
		}
	})
}

func TestReject(t *testing.T) {
	t.Run("note required", func(t *testing.T) {
		repo := newFakeRepository()
		svc, sub := submittedSubmission(t, repo, &fakeMail{})

		_, err := svc.Reject(sub.ID, principal, "  ")
		if _, ok := err.(*core.ValidationError); !ok {
			t.Fatalf("Reject() error = %v; want ValidationError for empty note", err)
		}
		if got, _ := svc.Get(sub.ID); got.Status != StatusSubmitted {
			t.Errorf("status = %s; want unchanged", got.Status)
		}
		if len(repo.logs) != 0 {
			t.Errorf("refused rejection wrote %d audit rows", len(repo.logs))
		}
	})

	t.Run("returns for revision and keeps attachments", func(t *testing.T) {
		repo := newFakeRepository()
		mailSvc := &fakeMail{}
		svc, sub := submittedSubmission(t, repo, mailSvc)
		attached := len(sub.Snapshot.Sessions)

		sub, err := svc.Reject(sub.ID, principal, "Lengkapi jurnal mengajar")
		if err != nil {
			t.Fatalf("Reject() unexpected error: %v", err)
		}
		if sub.Status != StatusReturned {
			t.Errorf("status = %s; want %s", sub.Status, StatusReturned)
		}
		if sub.ReviewerNote != "Lengkapi jurnal mengajar" {
			t.Errorf("reviewer note = %q", sub.ReviewerNote)
		}
		if len(sub.Snapshot.Sessions) != attached {
			t.Error("rejection dropped snapshot attachments")
		}

		logs, _ := svc.Logs(sub.ID)
		if len(logs) != 1 || logs[0].Decision != DecisionRejected || logs[0].Note == "" {
			t.Errorf("audit rows = %+v; want one rejection with note", logs)
		}
		if len(mailSvc.sent) != 1 {
			t.Errorf("sent %d decision mails; want 1", len(mailSvc.sent))
		}

		// the revision loop allows resubmission
		if _, err = svc.Submit(sub.ID); err != nil {
			t.Errorf("Submit() after return unexpected error: %v", err)
		}
	})

	t.Run("stage-1 rejection requires principal", func(t *testing.T) {
		repo := newFakeRepository()
		svc, sub := submittedSubmission(t, repo, &fakeMail{})
		if _, err := svc.Reject(sub.ID, teacher, "note"); !core.IsRoleMismatch(err) {
			t.Errorf("Reject() error = %v; want role mismatch", err)
		}
	})
}

func TestApprovalCode(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		defer func(f func() int) { randFunc = f }(randFunc)
		randFunc = func() int { return 42 }

		got := makeApprovalCode("2026-01", "1980.0101 2005-01/1001")
		if want := "2026-01/198001012005011001-000042"; got != want {
			t.Errorf("makeApprovalCode() = %q; want %q", got, want)
		}
	})

	t.Run("unique across a batch of submissions", func(t *testing.T) {
		codeFormat := regexp.MustCompile(`^2026-01/[0-9A-Za-z]+-\d{6}$`)
		seen := make(map[string]bool)
		for i := 0; i < 500; i++ {
			code := makeApprovalCode("2026-01", "19800101200501"+strconv.Itoa(1000+i))
			if !codeFormat.MatchString(code) {
				t.Fatalf("malformed code %q", code)
			}
			if seen[code] {
				t.Fatalf("duplicate code %q", code)
			}
			seen[code] = true
		}
	})
}

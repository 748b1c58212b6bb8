package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	echoapi "github.com/trezcool/sikap/apps/api/echo"
	"github.com/trezcool/sikap/core/attendance"
	"github.com/trezcool/sikap/core/report"
	"github.com/trezcool/sikap/core/staff"
	testutil "github.com/trezcool/sikap/tests"
)

func Test_reportApi_workflow(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateStaff(t, stfRepo, "198001012005011001", "Budi Santoso", "budisantoso", "budi@sikap.test", "LovingGo!", []string{staff.RoleTeacher}, true)
	principal := testutil.CreateStaff(t, stfRepo, "197001012000011001", "Pak Kepala", "pakkepala", "kepala@sikap.test", "LovingGo!", []string{staff.RoleAdminPrincipal}, true)
	supervisor := testutil.CreateStaff(t, stfRepo, "196001011990011001", "Bu Pengawas", "bupengawas", "pengawas@sikap.test", "LovingGo!", []string{staff.RoleAdminSupervisor}, true)

	teacherToken := getToken(t, teacher)
	principalToken := getToken(t, principal)
	supervisorToken := getToken(t, supervisor)

	do := func(method, path, token string, body []byte, wantCode int) []byte {
		t.Helper()
		req, rec := newAuthRequest(method, path, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("%s %s failed! code = %v; wantCode %v; body %v", method, path, rec.Code, wantCode, rec.Body.String())
		}
		return rec.Body.Bytes()
	}

	// seed one finalized teaching session so the period has content
	var sess attendance.Session
	body := do(http.MethodPost, "/v1/attendance/sessions", teacherToken, marchallObj(t, attendance.NewSession{
		ClassID:    "X-1",
		SubjectID:  "MTK",
		Date:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		TeacherNIP: teacher.NIP,
	}), http.StatusCreated)
	if err := json.Unmarshal(body, &sess); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	do(http.MethodPost, fmt.Sprintf("/v1/attendance/sessions/%s/finalize", sess.ID), teacherToken, marchallObj(t, []attendance.RecordInput{
		{StudentID: "S-001", Status: attendance.StatusPresent},
		{StudentID: "S-002", Status: attendance.StatusSick},
	}), http.StatusOK)

	// preview reflects the seeded period
	var snap report.Snapshot
	body = do(http.MethodGet, fmt.Sprintf("/v1/reports/preview?staff_nip=%s&from=2026-01-01&to=2026-01-31", teacher.NIP), teacherToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if snap.Totals.SessionCount != 1 || snap.Totals.PresentCount != 1 || snap.Totals.SickCount != 1 {
		t.Fatalf("unexpected snapshot totals %+v", snap.Totals)
	}

	// open a draft submission
	var sub report.Submission
	body = do(http.MethodPost, "/v1/reports", teacherToken, marchallObj(t, report.NewSubmission{
		StaffNIP:    teacher.NIP,
		PeriodCode:  "2026-01",
		PeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}), http.StatusCreated)
	if err := json.Unmarshal(body, &sub); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if sub.Status != report.StatusDraft {
		t.Fatalf("new submission status = %v; want %v", sub.Status, report.StatusDraft)
	}

	// a teacher cannot enter the approval chain
	do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/approve", sub.ID), teacherToken, nil, http.StatusForbidden)

	// approving an unsubmitted draft fails
	do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/approve", sub.ID), principalToken, nil, http.StatusConflict)

	// submit
	body = do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/submit", sub.ID), teacherToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &sub); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if sub.Status != report.StatusSubmitted || !sub.SubmittedAt.Valid {
		t.Fatalf("submitted submission = %+v", sub)
	}

	// the supervisor cannot take the principal's turn
	do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/approve", sub.ID), supervisorToken, nil, http.StatusForbidden)

	// stage 1: principal
	body = do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/approve", sub.ID), principalToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &sub); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if sub.Status != report.StatusApprovedStage1 {
		t.Fatalf("stage-1 status = %v; want %v", sub.Status, report.StatusApprovedStage1)
	}
	if sub.ApprovalCode.Valid {
		t.Error("approval code must not be issued before stage 2")
	}

	// stage 2: supervisor; terminal, code issued
	body = do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/approve", sub.ID), supervisorToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &sub); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if sub.Status != report.StatusApprovedStage2 {
		t.Fatalf("stage-2 status = %v; want %v", sub.Status, report.StatusApprovedStage2)
	}
	if !sub.ApprovalCode.Valid || sub.ApprovalCode.String == "" {
		t.Error("stage-2 approval must issue a code")
	}
	if !sub.ApprovedAt.Valid {
		t.Error("stage-2 approval must stamp ApprovedAt")
	}

	// terminal submissions refuse further transitions and deletion
	do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/approve", sub.ID), supervisorToken, nil, http.StatusConflict)
	do(http.MethodDelete, fmt.Sprintf("/v1/reports/%s", sub.ID), teacherToken, nil, http.StatusConflict)

	// exactly one audit log per transition
	var logs []report.ApprovalLog
	body = do(http.MethodGet, fmt.Sprintf("/v1/reports/%s/logs", sub.ID), teacherToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &logs); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("approval logs = %v; want 2", len(logs))
	}
}

func Test_reportApi_reject(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateStaff(t, stfRepo, "198001012005011001", "Budi Santoso", "budisantoso", "budi@sikap.test", "LovingGo!", []string{staff.RoleTeacher}, true)
	principal := testutil.CreateStaff(t, stfRepo, "197001012000011001", "Pak Kepala", "pakkepala", "kepala@sikap.test", "LovingGo!", []string{staff.RoleAdminPrincipal}, true)

	teacherToken := getToken(t, teacher)
	principalToken := getToken(t, principal)

	do := func(method, path, token string, body []byte, wantCode int) []byte {
		t.Helper()
		req, rec := newAuthRequest(method, path, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("%s %s failed! code = %v; wantCode %v; body %v", method, path, rec.Code, wantCode, rec.Body.String())
		}
		return rec.Body.Bytes()
	}

	// seed and submit
	var sess attendance.Session
	body := do(http.MethodPost, "/v1/attendance/sessions", teacherToken, marchallObj(t, attendance.NewSession{
		ClassID:    "X-1",
		SubjectID:  "MTK",
		Date:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		TeacherNIP: teacher.NIP,
	}), http.StatusCreated)
	if err := json.Unmarshal(body, &sess); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	do(http.MethodPost, fmt.Sprintf("/v1/attendance/sessions/%s/finalize", sess.ID), teacherToken, marchallObj(t, []attendance.RecordInput{
		{StudentID: "S-001", Status: attendance.StatusPresent},
	}), http.StatusOK)

	var sub report.Submission
	body = do(http.MethodPost, "/v1/reports", teacherToken, marchallObj(t, report.NewSubmission{
		StaffNIP:    teacher.NIP,
		PeriodCode:  "2026-01",
		PeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}), http.StatusCreated)
	if err := json.Unmarshal(body, &sub); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/submit", sub.ID), teacherToken, nil, http.StatusOK)

	// a reject without a note is refused
	do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/reject", sub.ID), principalToken,
		marchallObj(t, echoapi.RejectRequest{}), http.StatusBadRequest)

	// reject with a note returns the report for revision
	body = do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/reject", sub.ID), principalToken,
		marchallObj(t, echoapi.RejectRequest{Note: "rincian tugas tambahan kurang"}), http.StatusOK)
	if err := json.Unmarshal(body, &sub); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if sub.Status != report.StatusReturned {
		t.Fatalf("rejected status = %v; want %v", sub.Status, report.StatusReturned)
	}
	if sub.ReviewerNote == "" {
		t.Error("rejection must keep the reviewer note")
	}

	// a returned report can be resubmitted
	body = do(http.MethodPost, fmt.Sprintf("/v1/reports/%s/submit", sub.ID), teacherToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &sub); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if sub.Status != report.StatusSubmitted {
		t.Fatalf("resubmitted status = %v; want %v", sub.Status, report.StatusSubmitted)
	}
}

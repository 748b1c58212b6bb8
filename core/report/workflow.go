package report

import (
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sikap/core"
)

var (
	ErrTerminalState    = core.NewInvalidStateError("submission has reached its final approval and cannot transition")
	ErrNotReviewable    = core.NewInvalidStateError("submission is not awaiting review")
	ErrStage1RoleNeeded = core.NewRoleMismatchError("stage-1 approval requires the principal role")
	ErrStage2RoleNeeded = core.NewRoleMismatchError("stage-2 approval requires the supervisor role")
	errNoteRequired     = errors.New("a revision note is required when returning a report")
)

// Approve advances a submission one stage. Submitted moves to stage 1 under
// a principal; stage 1 moves to stage 2 (terminal) under a supervisor.
// Reaching stage 2 stamps the approval timestamp and generates the approval
// code exactly once. A failed transition has no effect and logs nothing.
func (svc *service) Approve(id string, actor Actor) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(id)
	if err != nil {
		return Submission{}, err
	}

	var level int
	switch sub.Status {
	case StatusSubmitted:
		if !actor.IsPrincipal() {
			return Submission{}, ErrStage1RoleNeeded
		}
		sub.Status = StatusApprovedStage1
		level = 1
	case StatusApprovedStage1:
		if !actor.IsSupervisor() {
			return Submission{}, ErrStage2RoleNeeded
		}
		sub.Status = StatusApprovedStage2
		level = 2
		sub.ApprovedAt = null.TimeFrom(nowFunc().UTC())
		if !sub.ApprovalCode.Valid {
			sub.ApprovalCode = null.StringFrom(makeApprovalCode(sub.PeriodCode, sub.StaffNIP))
		}
	case StatusApprovedStage2:
		return Submission{}, ErrTerminalState
	default:
		return Submission{}, ErrNotReviewable
	}

	sub.UpdatedAt = nowFunc().UTC()
	sub, err = svc.repo.UpdateSubmissionDecision(sub)
	if err != nil {
		return Submission{}, err
	}
	if err = svc.logDecision(sub, level, DecisionApproved, actor, ""); err != nil {
		return Submission{}, err
	}
	svc.sendDecisionMail(sub, DecisionApproved, "")
	return sub, nil
}

// Reject returns a submission for revision. Valid from Submitted and stage 1
// only; the note is mandatory and becomes the reviewer note. Attachments are
// untouched.
func (svc *service) Reject(id string, actor Actor, note string) (Submission, error) {
	if note = core.CleanString(note); note == "" {
		return Submission{}, core.NewValidationError(errNoteRequired,
			core.FieldError{Field: "note", Error: errNoteRequired.Error()})
	}
	sub, err := svc.repo.GetSubmissionByID(id)
	if err != nil {
		return Submission{}, err
	}

	var level int
	switch sub.Status {
	case StatusSubmitted:
		level = 1
	case StatusApprovedStage1:
		level = 2
	case StatusApprovedStage2:
		return Submission{}, ErrTerminalState
	default:
		return Submission{}, ErrNotReviewable
	}
	if level == 1 && !actor.IsPrincipal() {
		return Submission{}, ErrStage1RoleNeeded
	}
	if level == 2 && !actor.IsSupervisor() {
		return Submission{}, ErrStage2RoleNeeded
	}

	sub.Status = StatusReturned
	sub.ReviewerNote = note
	sub.UpdatedAt = nowFunc().UTC()
	sub, err = svc.repo.UpdateSubmissionDecision(sub)
	if err != nil {
		return Submission{}, err
	}
	if err = svc.logDecision(sub, level, DecisionRejected, actor, note); err != nil {
		return Submission{}, err
	}
	svc.sendDecisionMail(sub, DecisionRejected, note)
	return sub, nil
}

func (svc *service) Logs(id string) ([]ApprovalLog, error) {
	return svc.repo.GetApprovalLogs(id)
}

func (svc *service) logDecision(sub Submission, level int, decision Decision, actor Actor, note string) error {
	_, err := svc.repo.CreateApprovalLog(ApprovalLog{
		ID:           uuid.New().String(),
		SubmissionID: sub.ID,
		Level:        level,
		Decision:     decision,
		ActorNIP:     actor.NIP,
		ActorName:    actor.Name,
		Note:         note,
		CreatedAt:    nowFunc().UTC(),
	})
	return errors.Wrap(err, "writing approval log")
}

func (svc *service) sendDecisionMail(sub Submission, decision Decision, note string) {
	stf, err := svc.staffSvc.GetByNIP(sub.StaffNIP)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stf.Name, Address: stf.Email}},
		Subject:      fmt.Sprintf("Laporan Kinerja %s - %s", sub.PeriodCode, core.Conf.AppName),
		TemplateName: "report-decision",
		TemplateData: struct {
			Submission Submission
			Decision   Decision
			Note       string
		}{sub, decision, note},
	})
}

package loan

import (
	"strings"
	"time"

	"vehicle-loan-backend/internal/domain/actor"
	"vehicle-loan-backend/pkg/apperr"
)

type Command string

const (
	CmdSubmit          Command = "submit"
	CmdVerifyDocuments Command = "verify_documents"
	CmdApprove         Command = "approve"
	CmdReject          Command = "reject"
	CmdDisburse        Command = "disburse"
)

// Transition declares where a command may start, where it lands, and the
// capability the caller must hold.
type Transition struct {
	From     []State
	To       State
	Requires actor.Capability
	// OwnerOnly restricts the command to the applicant or a view_all holder.
	OwnerOnly bool
}

var transitions = map[Command]Transition{
	CmdSubmit: {
		From:      []State{StateDraft, StateRejected},
		To:        StateSubmitted,
		Requires:  actor.CapApply,
		OwnerOnly: true,
	},
	CmdVerifyDocuments: {
		From:     []State{StateSubmitted},
		To:       StateDocumentsVerified,
		Requires: actor.CapVerifyDocuments,
	},
	CmdApprove: {
		From:     []State{StateDocumentsVerified},
		To:       StateApproved,
		Requires: actor.CapApprove,
	},
	CmdReject: {
		From:     []State{StateSubmitted, StateDocumentsVerified},
		To:       StateRejected,
		Requires: actor.CapApprove,
	},
	CmdDisburse: {
		From:     []State{StateApproved},
		To:       StateDisbursed,
		Requires: actor.CapDisburse,
	},
}

func TransitionFor(cmd Command) (Transition, bool) {
	t, ok := transitions[cmd]
	return t, ok
}

func (t Transition) allows(s State) bool {
	for _, f := range t.From {
		if f == s {
			return true
		}
	}
	return false
}

// Guard checks capability first, then the current state.
func (a *Application) Guard(cmd Command, who actor.Actor) (Transition, error) {
	t, ok := transitions[cmd]
	if !ok {
		return Transition{}, apperr.InvalidTransition("unknown command %q", cmd)
	}
	if err := who.Require(t.Requires); err != nil {
		return t, err
	}
	if t.OwnerOnly && !who.CanAccess(a.ApplicantID) {
		return t, apperr.PermissionDenied("actor %s cannot %s application %s", who.ID, cmd, a.ApplicationID)
	}
	if !t.allows(a.State) {
		return t, apperr.InvalidTransition("cannot %s an application in state %s", cmd, a.State).
			WithDetail("state", string(a.State)).
			WithDetail("command", string(cmd))
	}
	return t, nil
}

// Apply moves the application into the transition's target state and stamps
// the audit fields. Callers must Guard first.
func (a *Application) Apply(cmd Command, who actor.Actor, at time.Time, reason string) {
	t := transitions[cmd]
	at = at.UTC()
	switch cmd {
	case CmdSubmit:
		a.SubmittedAt = &at
		// a resubmitted application needs fresh verification
		a.VerifiedAt, a.VerifiedBy = nil, ""
		a.RejectedAt, a.RejectedBy, a.RejectionReason = nil, "", ""
	case CmdVerifyDocuments:
		a.VerifiedAt, a.VerifiedBy = &at, who.ID
	case CmdApprove:
		a.ApprovedAt, a.ApprovedBy = &at, who.ID
	case CmdReject:
		a.RejectedAt, a.RejectedBy, a.RejectionReason = &at, who.ID, strings.TrimSpace(reason)
	case CmdDisburse:
		a.DisbursedAt, a.DisbursedBy = &at, who.ID
	}
	a.State = t.To
	a.StateUpdatedAt = at
}

// EnsureTermsMutable reports whether principal, rate, term or the schedule
// may still change.
func (a *Application) EnsureTermsMutable() error {
	switch a.State {
	case StateDisbursed:
		return apperr.New(apperr.KindImmutableAfterDisbursement, "immutable_after_disbursement",
			"application "+a.ApplicationID+" has been disbursed; its terms and schedule are final")
	case StateApproved:
		return apperr.InvalidTransition("terms of approved application %s can no longer change", a.ApplicationID).
			WithDetail("state", string(a.State))
	}
	return nil
}

func (a *Application) EnsureScorable() error {
	if a.State == StateDisbursed {
		return apperr.InvalidTransition("risk cannot be scored after disbursement")
	}
	return nil
}

// Terminal reports whether no further command can change the application.
func (a *Application) Terminal() bool { return a.State == StateDisbursed }

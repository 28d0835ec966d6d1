package actor

import (
	"sort"

	"vehicle-loan-backend/pkg/apperr"
)

type Capability string

const (
	CapApply           Capability = "loan:apply"
	CapViewAll         Capability = "loan:view_all"
	CapVerifyDocuments Capability = "documents:verify"
	CapScoreRisk       Capability = "risk:score"
	CapApprove         Capability = "loan:approve"
	CapDisburse        Capability = "loan:disburse"
	CapRecordPayment   Capability = "payment:record"
)

type Role string

const (
	RoleCustomer       Role = "customer"
	RoleSalesRep       Role = "sales_rep"
	RoleFinanceManager Role = "finance_manager"
	RoleAdmin          Role = "admin"
)

var roleCapabilities = map[Role][]Capability{
	RoleCustomer:       {CapApply, CapRecordPayment},
	RoleSalesRep:       {CapViewAll, CapVerifyDocuments, CapScoreRisk},
	RoleFinanceManager: {CapViewAll, CapApprove, CapDisburse, CapScoreRisk, CapRecordPayment},
	RoleAdmin: {
		CapApply, CapViewAll, CapVerifyDocuments, CapScoreRisk,
		CapApprove, CapDisburse, CapRecordPayment,
	},
}

// Actor is the caller of a lifecycle command: who they are and what they may do.
type Actor struct {
	ID   string
	Role Role
	caps map[Capability]struct{}
}

func New(id string, role Role, caps ...Capability) Actor {
	a := Actor{ID: id, Role: role, caps: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		a.caps[c] = struct{}{}
	}
	return a
}

// ForRole builds an actor holding the role's default capability set
// plus any extra grants.
func ForRole(id string, role Role, extra ...Capability) Actor {
	caps := append(append([]Capability{}, roleCapabilities[role]...), extra...)
	return New(id, role, caps...)
}

func KnownRole(r Role) bool {
	_, ok := roleCapabilities[r]
	return ok
}

func (a Actor) Has(c Capability) bool {
	_, ok := a.caps[c]
	return ok
}

func (a Actor) Require(c Capability) error {
	if a.ID == "" {
		return apperr.PermissionDenied("anonymous actor cannot perform %s", c)
	}
	if !a.Has(c) {
		return apperr.PermissionDenied("actor %s lacks capability %s", a.ID, c).
			WithDetail("required_capability", string(c))
	}
	return nil
}

// CanAccess reports whether the actor may act on a record owned by ownerID.
func (a Actor) CanAccess(ownerID string) bool {
	return a.ID != "" && (a.ID == ownerID || a.Has(CapViewAll))
}

func (a Actor) Capabilities() []Capability {
	out := make([]Capability, 0, len(a.caps))
	for c := range a.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

package models

import dErrors "homeloan/pkg/domain-errors"

// Status is the lifecycle state of a LoanApplication.
type Status string

const (
	StatusPending       Status = "pending"
	StatusUnderReview   Status = "under_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusNeedsMoreInfo Status = "needs_more_info"
	StatusWithdrawn     Status = "withdrawn"
)

// transitions is the single source of truth for the application state machine.
var transitions = map[Status][]Status{
	StatusPending:       {StatusUnderReview, StatusWithdrawn},
	StatusUnderReview:   {StatusApproved, StatusRejected, StatusNeedsMoreInfo, StatusWithdrawn},
	StatusNeedsMoreInfo: {StatusUnderReview, StatusWithdrawn},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusNeedsMoreInfo, StatusWithdrawn:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HasReview reports whether an application in this status carries a BankReview.
func (s Status) HasReview() bool {
	return s != StatusPending && s != StatusWithdrawn
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid application status: "+s)
	}
	return st, nil
}

// Decision is a reviewer's outcome for an application under review.
type Decision string

const (
	DecisionApproved      Decision = "approved"
	DecisionRejected      Decision = "rejected"
	DecisionNeedsMoreInfo Decision = "needs_more_info"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionApproved, DecisionRejected, DecisionNeedsMoreInfo:
		return d, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid decision: "+s)
}

// Status returns the application status a decision moves to.
func (d Decision) Status() Status {
	return Status(d)
}

// ReviewerPolicy controls who may decide an application under review.
type ReviewerPolicy string

const (
	// ReviewerPolicyStrict: only the reviewer who began review may decide.
	ReviewerPolicyStrict ReviewerPolicy = "strict"
	// ReviewerPolicySameBank: any reviewer of the application's bank may decide.
	ReviewerPolicySameBank ReviewerPolicy = "same_bank"
)

func ParseReviewerPolicy(s string) (ReviewerPolicy, error) {
	switch p := ReviewerPolicy(s); p {
	case ReviewerPolicyStrict, ReviewerPolicySameBank:
		return p, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid reviewer policy: "+s)
}

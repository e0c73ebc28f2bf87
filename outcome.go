package nodebird

import "fmt"

// OutcomeKind tells apart the three ways an authentication attempt can end
type OutcomeKind int

const (
	// OutcomeSuccess means the strategy identified a user
	OutcomeSuccess OutcomeKind = iota

	// OutcomeFailure means the visitor could not be authenticated, eg a wrong
	// password.  Reason is safe to show to the visitor.
	OutcomeFailure

	// OutcomeInternalError means the strategy could not decide, eg the store
	// was unreachable.  It is never shown as a login error.
	OutcomeInternalError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeInternalError:
		return "internal_error"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// AuthOutcome is the result every Strategy returns
type AuthOutcome struct {
	Kind   OutcomeKind
	User   *User
	Reason string
	Err    error
}

func Success(user *User) AuthOutcome {
	return AuthOutcome{Kind: OutcomeSuccess, User: user}
}

func Failure(reason string) AuthOutcome {
	return AuthOutcome{Kind: OutcomeFailure, Reason: reason}
}

func InternalError(err error) AuthOutcome {
	return AuthOutcome{Kind: OutcomeInternalError, Err: err}
}

func (o AuthOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess && o.User != nil
}

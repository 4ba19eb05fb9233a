package ai

import (
	"fmt"
	"time"
)

// FailureKind classifies terminal generation failures. Every kind maps to
// a user-facing message with a suggested next action in the session layer.
type FailureKind string

const (
	FailNoReference   FailureKind = "no_reference"
	FailQuotaExceeded FailureKind = "quota_exceeded"
	FailBadResponse   FailureKind = "unrecognized_response"
	FailProvider      FailureKind = "provider_error"
	FailInternal      FailureKind = "internal"
)

// maxDetailLen bounds how much raw provider detail may leak to the user.
const maxDetailLen = 300

// Failure is the single error type crossing the orchestrator boundary.
// Nothing propagates past it as an unhandled fault.
type Failure struct {
	Kind   FailureKind
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

func newFailure(kind FailureKind, detail string) *Failure {
	if len(detail) > maxDetailLen {
		detail = detail[:maxDetailLen] + "..."
	}
	return &Failure{Kind: kind, Detail: detail}
}

// Result is a successful generation outcome.
type Result struct {
	ImageURL string
	Elapsed  time.Duration
}

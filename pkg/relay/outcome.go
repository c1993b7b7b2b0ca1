package relay

import (
	"fmt"
	"math"
	"time"

	"mercator-hq/chatrelay/pkg/gateway"
)

// OutcomeKind is the terminal state of one handled message.
type OutcomeKind string

const (
	// OutcomeIgnored means the text was blank or a command; nothing is sent.
	OutcomeIgnored OutcomeKind = "ignored"

	// OutcomeRejected means validation or admission refused the message
	// before history was touched.
	OutcomeRejected OutcomeKind = "rejected"

	// OutcomeFailed means the completion call failed. The user turn stays in
	// history.
	OutcomeFailed OutcomeKind = "failed"

	// OutcomeReplied means a reply was produced and appended to history.
	OutcomeReplied OutcomeKind = "replied"
)

// ErrorKind distinguishes the three recoverable failure families.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAdmission  ErrorKind = "admission"
	KindGateway    ErrorKind = "gateway"
)

// Outcome is the discriminated result of Service.Handle.
type Outcome struct {
	Kind OutcomeKind

	// ErrorKind is set for rejected and failed outcomes.
	ErrorKind ErrorKind

	// GatewayKind is set when ErrorKind is KindGateway.
	GatewayKind gateway.Kind

	// Detail is a short, credential-free description of the failure.
	Detail string

	// RetryAfter is set for admission rejections.
	RetryAfter time.Duration

	// Reply is the text to deliver for replied outcomes, fallback included.
	Reply string
}

// Delivers reports whether the outcome produces a message for the user.
func (o Outcome) Delivers() bool {
	return o.Kind != OutcomeIgnored
}

// Text renders the outcome as the message sent back to the user. It is
// empty for ignored outcomes.
func (o Outcome) Text() string {
	switch o.Kind {
	case OutcomeReplied:
		return o.Reply
	case OutcomeRejected:
		if o.ErrorKind == KindAdmission {
			return fmt.Sprintf("You're sending messages too fast. Please wait %ds and try again.", ceilSeconds(o.RetryAfter))
		}
		return fmt.Sprintf("Message rejected: %s.", o.Detail)
	case OutcomeFailed:
		return fmt.Sprintf("Error: %s: %s. Please try again.", o.GatewayKind, o.Detail)
	default:
		return ""
	}
}

// Label is the metrics label for the outcome.
func (o Outcome) Label() string {
	if o.Kind == OutcomeRejected {
		return "rejected_" + string(o.ErrorKind)
	}
	return string(o.Kind)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}

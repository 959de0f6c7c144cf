package callback

import (
	"fmt"
	"net/http"
)

// Phase is a step of the callback pipeline. Each phase is terminal on failure.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseConfig
	PhaseInput
	PhaseExchange
	PhaseIdentity
	PhasePersist
)

var phaseNames = map[Phase]string{
	PhaseInit:     "init",
	PhaseConfig:   "config",
	PhaseInput:    "input",
	PhaseExchange: "exchange",
	PhaseIdentity: "identity",
	PhasePersist:  "persist",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Outcome is what the user sees when a phase fails.
type Outcome struct {
	Status  int
	Title   string
	Message string
	// WithReason appends the underlying error text to Message.
	WithReason bool
}

// Outcomes maps every failing phase to its response.
var Outcomes = map[Phase]Outcome{
	PhaseInit: {
		Status:  http.StatusInternalServerError,
		Title:   "Server Error",
		Message: "The server could not start handling your authorization. Please try again later.",
	},
	PhaseConfig: {
		Status:  http.StatusInternalServerError,
		Title:   "Configuration Error",
		Message: "The server is missing required configuration. Please contact an administrator.",
	},
	PhaseInput: {
		Status:  http.StatusBadRequest,
		Title:   "Access Denied",
		Message: "No authorization code was received. Please start the authorization again.",
	},
	PhaseExchange: {
		Status:  http.StatusInternalServerError,
		Title:   "OAuth Error",
		Message: "We could not complete the authorization with Discord. Please start again.",
	},
	PhaseIdentity: {
		Status:  http.StatusInternalServerError,
		Title:   "User Data Error",
		Message: "We could not load your Discord profile. Please start the authorization again.",
	},
	PhasePersist: {
		Status:     http.StatusInternalServerError,
		Title:      "Database Save Error",
		Message:    "Your authorization could not be saved",
		WithReason: true,
	},
}

// PhaseError records which phase failed and why.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Page builds the failure page for e from the Outcomes table.
func (e *PhaseError) Page() (int, Page) {
	out, ok := Outcomes[e.Phase]
	if !ok {
		out = Outcomes[PhaseInit]
	}
	msg := out.Message
	if out.WithReason && e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return out.Status, Page{Title: out.Title, Message: msg}
}

func fail(phase Phase, err error) *PhaseError {
	return &PhaseError{Phase: phase, Err: err}
}

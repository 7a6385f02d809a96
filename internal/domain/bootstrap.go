package domain

import "time"

// BootstrapPhase is the state of the token onboarding flow for one identity.
type BootstrapPhase string

const (
	PhaseIdle          BootstrapPhase = ""
	PhaseAwaitingToken BootstrapPhase = "awaiting_token"
	PhaseCommitted     BootstrapPhase = "committed"
)

// BootstrapState tracks whether the assistant is waiting for the user to
// supply a login token. It replaces a platform-side context flag with an
// explicit, server-side state machine that expires after a number of
// turns or a deadline, whichever comes first.
type BootstrapState struct {
	Phase     BootstrapPhase `json:"phase,omitempty"`
	TurnsLeft int            `json:"turnsLeft,omitempty"`
	Deadline  time.Time      `json:"deadline,omitzero"`
}

// Awaiting reports whether a token prompt is outstanding.
func (b BootstrapState) Awaiting() bool {
	return b.Phase == PhaseAwaitingToken
}

// AcceptsToken reports whether a dictated token may be committed: while a
// prompt is open, or to replace the token of a committed session.
func (b BootstrapState) AcceptsToken() bool {
	return b.Phase == PhaseAwaitingToken || b.Phase == PhaseCommitted
}

// Await enters the awaiting phase.
func (b *BootstrapState) Await(turns int, timeout time.Duration, now time.Time) {
	b.Phase = PhaseAwaitingToken
	b.TurnsLeft = turns
	b.Deadline = now.Add(timeout)
}

// Advance ages an outstanding prompt by one turn. A prompt that has run out
// of turns or passed its deadline reverts to idle. Returns true when the
// state changed.
func (b *BootstrapState) Advance(now time.Time) bool {
	if !b.Awaiting() {
		return false
	}
	if b.TurnsLeft <= 0 || (!b.Deadline.IsZero() && now.After(b.Deadline)) {
		*b = BootstrapState{}
		return true
	}
	b.TurnsLeft--
	return true
}

// Commit marks the flow finished.
func (b *BootstrapState) Commit() {
	*b = BootstrapState{Phase: PhaseCommitted}
}

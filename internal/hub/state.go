package hub

import (
	"fmt"
	"sync"
)

// DispenseStatus tracks the single outstanding dispense request
type DispenseStatus int

const (
	DispenseIdle DispenseStatus = iota
	DispenseAwaitingAck
	DispenseTaken
	DispenseNotTaken
	DispenseError
)

// String returns a human-readable dispense status
func (d DispenseStatus) String() string {
	switch d {
	case DispenseIdle:
		return "idle"
	case DispenseAwaitingAck:
		return "awaiting-ack"
	case DispenseTaken:
		return "taken"
	case DispenseNotTaken:
		return "not-taken"
	case DispenseError:
		return "error"
	default:
		return fmt.Sprintf("DispenseStatus(%d)", int(d))
	}
}

// eventState is the correlation state between hub messages and waiting
// callers. Results (pressed, reported, dispense outcome) are written only by
// the dispatch path; callers only arm and disarm their waits.
type eventState struct {
	mu sync.Mutex

	lastPressed  ButtonState
	lastReported ButtonState

	pressWaiter chan ButtonState

	dispense       DispenseStatus
	dispenseWaiter chan DispenseStatus
}

func newEventState() *eventState {
	return &eventState{}
}

// armPressWait registers the one allowed button wait and resets the stored
// press state for it.
func (s *eventState) armPressWait() (<-chan ButtonState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pressWaiter != nil {
		return nil, NewAlreadyPendingError("a button wait is already in progress")
	}
	s.lastPressed = ButtonState{}
	s.pressWaiter = make(chan ButtonState, 1)
	return s.pressWaiter, nil
}

// disarmPressWait clears the wait registered by ch, if it is still armed
func (s *eventState) disarmPressWait(ch <-chan ButtonState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pressWaiter != nil && (<-chan ButtonState)(s.pressWaiter) == ch {
		s.pressWaiter = nil
	}
}

// beginDispense moves Idle to AwaitingAck. Any other state means a dispense
// is already outstanding.
func (s *eventState) beginDispense() (<-chan DispenseStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dispense != DispenseIdle {
		return nil, NewAlreadyPendingError("a dispense is already in progress")
	}
	s.dispense = DispenseAwaitingAck
	s.dispenseWaiter = make(chan DispenseStatus, 1)
	return s.dispenseWaiter, nil
}

// endDispense returns the dispense state to Idle once the caller is done
func (s *eventState) endDispense() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispense = DispenseIdle
	s.dispenseWaiter = nil
}

// recordReported stores the answer to a buttons query
func (s *eventState) recordReported(b ButtonState) {
	s.mu.Lock()
	s.lastReported = b
	s.mu.Unlock()
}

// deliverPress hands a button event to the armed wait. Events with no
// waiter are dropped and reported as such.
func (s *eventState) deliverPress(b ButtonState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pressWaiter == nil {
		return false
	}
	s.lastPressed = b
	s.pressWaiter <- b
	s.pressWaiter = nil
	return true
}

// resolveDispense completes an outstanding dispense. Acks that arrive while
// no dispense is awaiting are dropped.
func (s *eventState) resolveDispense(status DispenseStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dispense != DispenseAwaitingAck || s.dispenseWaiter == nil {
		return false
	}
	s.dispense = status
	s.dispenseWaiter <- status
	s.dispenseWaiter = nil
	return true
}

func (s *eventState) pressPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pressWaiter != nil
}

func (s *eventState) dispenseStatus() DispenseStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispense
}

func (s *eventState) reported() ButtonState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReported
}

func (s *eventState) pressed() ButtonState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPressed
}

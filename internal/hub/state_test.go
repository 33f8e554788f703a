package hub

import (
	"errors"
	"fmt"
	"testing"
)

func TestEventState_PressWait(t *testing.T) {
	s := newEventState()

	if s.deliverPress(DecodeButtons(1)) {
		t.Fatal("deliverPress() with no waiter = true, want false")
	}

	ch, err := s.armPressWait()
	if err != nil {
		t.Fatalf("armPressWait() error = %v", err)
	}
	if _, err := s.armPressWait(); !IsAlreadyPending(err) {
		t.Fatalf("second armPressWait() error = %v, want already pending", err)
	}

	if !s.deliverPress(DecodeButtons(4)) {
		t.Fatal("deliverPress() with waiter = false, want true")
	}
	if got := <-ch; got != DecodeButtons(4) {
		t.Errorf("waiter got %v, want right", got)
	}
	if s.pressPending() {
		t.Error("wait still armed after delivery")
	}
	if s.pressed() != DecodeButtons(4) {
		t.Errorf("pressed() = %v, want right", s.pressed())
	}

	// only the first event after arming is delivered
	if s.deliverPress(DecodeButtons(1)) {
		t.Error("deliverPress() after delivery = true, want false")
	}
}

func TestEventState_DisarmOnlyOwnWait(t *testing.T) {
	s := newEventState()

	first, _ := s.armPressWait()
	s.disarmPressWait(first)

	second, err := s.armPressWait()
	if err != nil {
		t.Fatalf("armPressWait() after disarm error = %v", err)
	}

	s.disarmPressWait(first)
	if !s.pressPending() {
		t.Fatal("stale disarm cleared a newer wait")
	}
	s.disarmPressWait(second)
	if s.pressPending() {
		t.Fatal("disarm did not clear the wait")
	}
}

func TestEventState_Dispense(t *testing.T) {
	s := newEventState()

	if s.resolveDispense(DispenseTaken) {
		t.Fatal("resolveDispense() while idle = true, want false")
	}
	if s.dispenseStatus() != DispenseIdle {
		t.Fatalf("status = %v, want idle", s.dispenseStatus())
	}

	ch, err := s.beginDispense()
	if err != nil {
		t.Fatalf("beginDispense() error = %v", err)
	}
	if s.dispenseStatus() != DispenseAwaitingAck {
		t.Fatalf("status = %v, want awaiting-ack", s.dispenseStatus())
	}
	if _, err := s.beginDispense(); !IsAlreadyPending(err) {
		t.Fatalf("second beginDispense() error = %v, want already pending", err)
	}

	if !s.resolveDispense(DispenseNotTaken) {
		t.Fatal("resolveDispense() = false, want true")
	}
	if got := <-ch; got != DispenseNotTaken {
		t.Errorf("waiter got %v, want not-taken", got)
	}
	if s.resolveDispense(DispenseTaken) {
		t.Error("late ack resolved an already resolved dispense")
	}

	s.endDispense()
	if s.dispenseStatus() != DispenseIdle {
		t.Errorf("status after end = %v, want idle", s.dispenseStatus())
	}
}

func TestHubError(t *testing.T) {
	cause := errors.New("broken pipe")
	err := fmt.Errorf("dispense: %w", NewConnectionLostError(cause))

	if !IsConnectionLost(err) {
		t.Error("IsConnectionLost() = false through wrapping")
	}
	if IsTimeout(err) || IsNotConnected(err) || IsAlreadyPending(err) || IsInvalidArgument(err) {
		t.Error("predicate matched the wrong error type")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not reach the cause")
	}
	if IsTimeout(nil) {
		t.Error("IsTimeout(nil) = true")
	}
}

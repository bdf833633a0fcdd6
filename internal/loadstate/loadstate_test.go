package loadstate

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{Idle, Loading, true},
		{Idle, Loaded, false},
		{Idle, Errored, false},
		{Loading, Loading, false},
		{Loading, Loaded, true},
		{Loading, Errored, true},
		{Loaded, Loading, true},
		{Loaded, Errored, false},
		{Errored, Loading, true},
		{Errored, Loaded, false},
		{Loading, Idle, true},
		{Errored, Idle, true},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestMachine_RejectsReentrantLoad(t *testing.T) {
	var m Machine
	if !m.To(Loading) {
		t.Fatal("Idle -> Loading rejected")
	}
	if m.To(Loading) {
		t.Fatal("Loading -> Loading accepted, want rejection")
	}
	if !m.Settle(errors.New("boom")) {
		t.Fatal("Settle(err) rejected while loading")
	}
	if m.Phase() != Errored {
		t.Fatalf("Phase = %s, want errored", m.Phase())
	}
	if m.Settle(nil) {
		t.Fatal("Settle accepted outside Loading")
	}
	if !m.To(Loading) || !m.Settle(nil) || m.Phase() != Loaded {
		t.Fatalf("retry cycle ended in %s, want loaded", m.Phase())
	}
}

func TestPhaseString_Unknown(t *testing.T) {
	if got := Phase(42).String(); got != "phase(42)" {
		t.Fatalf("String = %q, want phase(42)", got)
	}
}

package batch

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK(3, "101")
	if r.ID() != "101" || r.Position() != 3 {
		t.Errorf("got id=%q pos=%d", r.ID(), r.Position())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
	if !r.Indexed() {
		t.Error("ok record should be indexed")
	}
}

func TestNewDegraded(t *testing.T) {
	err := errors.New("provider down")
	r := NewDegraded(0, "7", err)
	if r.Status() != StatusDegraded {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusDegraded)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
	if !r.Indexed() {
		t.Error("degraded record is still indexed")
	}
}

func TestNewRejected(t *testing.T) {
	err := errors.New("empty id")
	r := NewRejected(5, "", err)
	if r.Status() != StatusRejected {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusRejected)
	}
	if r.Indexed() {
		t.Error("rejected record should not be indexed")
	}
	if r.Position() != 5 {
		t.Errorf("Position() = %d", r.Position())
	}
}

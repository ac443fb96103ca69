package result

import "testing"

func TestNew(t *testing.T) {
	s := Scores{Semantic: 0.8, Keyword: 1, Component: 0.5, Final: 0.86}
	r := New("42", "4-bit adder", s)

	if r.ID() != "42" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Name() != "4-bit adder" {
		t.Errorf("Name() = %q", r.Name())
	}
	if r.Scores() != s {
		t.Errorf("Scores() = %+v", r.Scores())
	}
	if r.Score() != 0.86 {
		t.Errorf("Score() = %f", r.Score())
	}
}

func TestScores_Zero(t *testing.T) {
	if !(Scores{}).Zero() {
		t.Error("empty scores should be zero")
	}
	if (Scores{Component: 0.5}).Zero() {
		t.Error("component-only scores should not be zero")
	}
	if !(Scores{Final: 0.3}).Zero() {
		t.Error("Final alone does not make a row non-zero")
	}
}

package fuzz

import "testing"

func TestGate(t *testing.T) {
	t.Parallel()

	t.Run("forced hit with probability one", func(t *testing.T) {
		g := NewGate(1.0, func() float64 { return 0.999999 })
		for i := 0; i < 100; i++ {
			if !g.Hit() {
				t.Fatalf("probability 1.0 must always hit")
			}
		}
	})

	t.Run("never hits with probability zero", func(t *testing.T) {
		g := NewGate(0, func() float64 { return 0 })
		for i := 0; i < 100; i++ {
			if g.Hit() {
				t.Fatalf("probability 0 must never hit")
			}
		}
	})

	t.Run("threshold boundary", func(t *testing.T) {
		g := NewGate(0.1, func() float64 { return 0.0999 })
		if !g.Hit() {
			t.Fatalf("draw below probability must hit")
		}

		g = NewGate(0.1, func() float64 { return 0.1 })
		if g.Hit() {
			t.Fatalf("draw at probability must not hit")
		}
	})

	t.Run("probability clamps to unit interval", func(t *testing.T) {
		if got := NewGate(2.5, nil).Probability(); got != 1.0 {
			t.Fatalf("expected clamp to 1.0, got %v", got)
		}
		if got := NewGate(-1, nil).Probability(); got != 0 {
			t.Fatalf("expected clamp to 0, got %v", got)
		}
	})

	t.Run("disabled gate", func(t *testing.T) {
		g := Disabled()
		if g.Hit() {
			t.Fatalf("disabled gate must never hit")
		}
	})

	t.Run("nil source falls back to real randomness", func(t *testing.T) {
		g := NewGate(0.5, nil)
		// Вызов не должен паниковать
		_ = g.Hit()
	})
}

package util

import "testing"

func TestLimiter_BurstThenDeny(t *testing.T) {
	l := NewLimiter(0.001, 2)

	if !l.Allow() {
		t.Fatal("first call within burst should be allowed")
	}
	if !l.Allow() {
		t.Fatal("second call within burst should be allowed")
	}
	if l.Allow() {
		t.Error("third call should exceed burst at this rate")
	}
}

func TestLimiter_NilIsUnlimited(t *testing.T) {
	var l *Limiter
	for i := 0; i < 10; i++ {
		if !l.Allow() {
			t.Fatal("nil limiter must always allow")
		}
	}
}

func TestPerMinute(t *testing.T) {
	l := PerMinute(60, 1)
	if !l.Allow() {
		t.Fatal("burst of 1 should allow the first event")
	}
}

package ratelimit

import "testing"

func TestLimiterBurstThenDeny(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("client", 3, 0) {
			t.Fatalf("request %d denied inside burst", i)
		}
	}
	if l.Allow("client", 3, 0) {
		t.Fatalf("request allowed past burst with no refill")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("first request for a denied")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("second request for a allowed")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("b throttled by a's bucket")
	}
}

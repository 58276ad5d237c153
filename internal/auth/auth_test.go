package auth

import "testing"

func TestServiceSingleOwner(t *testing.T) {
	svc := New(10)
	if !svc.IsAllowed(10) {
		t.Fatalf("owner not allowed")
	}
	if svc.IsAllowed(20) {
		t.Fatalf("unexpected allowed")
	}
	if svc.OwnerID() != 10 {
		t.Fatalf("unexpected owner id: %d", svc.OwnerID())
	}
}

func TestServiceZeroOwnerAllowsNobody(t *testing.T) {
	if New(0).IsAllowed(0) {
		t.Fatalf("zero owner must not admit anyone")
	}
	var svc *Service
	if svc.IsAllowed(1) {
		t.Fatalf("nil service must not admit anyone")
	}
}

package server

import (
	"testing"

	"github.com/CK6170/RotorBalance-go/balance"
	"github.com/CK6170/RotorBalance-go/models"
)

func TestResultStoreEvictsOldest(t *testing.T) {
	s := NewResultStore(2)
	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := s.Put(&models.BalanceRequest{}, balance.Measurement{}, &balance.Result{}, &models.BalanceResponse{})
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	if s.Len() != 2 {
		t.Fatalf("Expected 2 records, got %d", s.Len())
	}
	if _, ok := s.Get(ids[0]); ok {
		t.Errorf("Expected oldest record %s to be evicted", ids[0])
	}
	for _, id := range ids[1:] {
		if _, ok := s.Get(id); !ok {
			t.Errorf("Expected record %s to be kept", id)
		}
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := newID()
		if err != nil {
			t.Fatal(err)
		}
		if len(id) != 24 || seen[id] {
			t.Fatalf("Unexpected id %q", id)
		}
		seen[id] = true
	}
}

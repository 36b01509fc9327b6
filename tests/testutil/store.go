// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/store"
)

// SeedEpoch is the CreatedAt of the first seeded quotation.
var SeedEpoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// NewTestStore opens an in-memory quotation store with every migration
// applied. It is closed when the test ends.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening quotation store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing quotation store: %v", err)
		}
	})
	return s
}

// SeedQuotations saves one drafted quotation per body, an hour apart from
// SeedEpoch, and returns them in save order.
func SeedQuotations(t *testing.T, s store.Store, bodies ...string) []model.Quotation {
	t.Helper()

	out := make([]model.Quotation, 0, len(bodies))
	for i, body := range bodies {
		q, err := s.SaveQuotation(context.Background(), model.Quotation{
			Prompt:    fmt.Sprintf("request %d", i+1),
			Body:      body,
			CreatedAt: SeedEpoch.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("seeding quotation %d: %v", i+1, err)
		}
		out = append(out, *q)
	}
	return out
}

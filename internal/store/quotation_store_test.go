package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/store"
	"github.com/nhle/tracerx/tests/testutil"
)

func TestMigrationsApplied(t *testing.T) {
	s := testutil.NewTestStore(t)
	v, err := s.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 {
		t.Errorf("schema version = %d, want 2", v)
	}
}

func TestSaveAndListQuotations(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	older, err := s.SaveQuotation(ctx, model.Quotation{
		Prompt:    "logo design",
		Body:      "PROJECT TITLE: Brand Refresh\n\nPROJECT OVERVIEW: ...",
		CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("SaveQuotation: %v", err)
	}
	if older.ID == "" || older.Title != "Brand Refresh" {
		t.Errorf("saved = %+v", older)
	}
	if _, err := s.SaveQuotation(ctx, model.Quotation{
		Prompt:    "5 page site",
		Body:      "**PROJECT TITLE:** Portfolio Website",
		CreatedAt: base.Add(time.Hour),
	}); err != nil {
		t.Fatalf("SaveQuotation: %v", err)
	}

	all, err := s.GetQuotations(ctx, store.QuotationFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Title != "Portfolio Website" {
		t.Fatalf("list = %+v", all)
	}

	q := "logo"
	found, err := s.GetQuotations(ctx, store.QuotationFilter{Query: &q})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].ID != older.ID {
		t.Errorf("search = %+v", found)
	}

	limited, err := s.GetQuotations(ctx, store.QuotationFilter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit returned %d", len(limited))
	}

	n, err := s.CountQuotations(ctx)
	if err != nil || n != 2 {
		t.Errorf("count = %d, %v", n, err)
	}
}

func TestSaveQuotationRejectsEmpty(t *testing.T) {
	s := testutil.NewTestStore(t)
	if _, err := s.SaveQuotation(context.Background(), model.Quotation{Body: "  "}); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestDeleteQuotation(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	saved, err := s.SaveQuotation(ctx, model.Quotation{Body: "Quote"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetQuotationByID(ctx, saved.ID)
	if err != nil || got.Body != "Quote" {
		t.Fatalf("GetQuotationByID = %+v, %v", got, err)
	}

	if err := s.DeleteQuotation(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteQuotation: %v", err)
	}
	if _, err := s.GetQuotationByID(ctx, saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteQuotation(ctx, saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestQuotationTitleFallback(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"PROJECT TITLE: Shop\nrest", "Shop"},
		{"## Project Title: Landing page", "Landing page"},
		{"\n\nHere is your estimate.\nMore", "Here is your estimate."},
	}
	for _, tt := range tests {
		if got := model.QuotationTitle(tt.body); got != tt.want {
			t.Errorf("QuotationTitle(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestPagedQuotations(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	seeded := testutil.SeedQuotations(t, s,
		"PROJECT TITLE: First",
		"PROJECT TITLE: Second",
		"PROJECT TITLE: Third",
	)

	page, err := s.GetQuotations(ctx, store.QuotationFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].ID != seeded[1].ID || page[1].ID != seeded[0].ID {
		t.Errorf("page = %+v", page)
	}

	q := "request 3"
	found, err := s.GetQuotations(ctx, store.QuotationFilter{Query: &q})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Title != "Third" {
		t.Errorf("prompt search = %+v", found)
	}
}

package store

import (
	"path/filepath"
	"testing"

	"offerte-service/internal/offerte/model"
)

func openTestCatalog(t *testing.T) *CatalogStore {
	t.Helper()
	s, err := OpenCatalog(filepath.Join(t.TempDir(), "prijzenboek.db"))
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCatalogUpsertAndGet(t *testing.T) {
	s := openTestCatalog(t)

	action, err := s.Upsert(model.CatalogEntry{
		Code: "A1", Description: "Muur schilderen wit", Unit: "m2", Material: 4.5, Labor: 8,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if action != "added" {
		t.Fatalf("action = %q, want added", action)
	}

	e, err := s.Get("A1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Description != "Muur schilderen wit" || e.Unit != "m2" {
		t.Fatalf("stored entry = %+v", e)
	}
	if e.UnitPrice != 12.5 {
		t.Fatalf("unit price = %v, want derived 12.5", e.UnitPrice)
	}

	action, err = s.Upsert(model.CatalogEntry{
		Code: "A1", Description: "Muur schilderen gebroken wit", Unit: "m2", UnitPrice: 13,
	})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if action != "updated" {
		t.Fatalf("action = %q, want updated", action)
	}
	e, _ = s.Get("A1")
	if e.Description != "Muur schilderen gebroken wit" || e.UnitPrice != 13 {
		t.Fatalf("updated entry = %+v", e)
	}

	if n, _ := s.Count(); n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}
}

func TestCatalogUpsertRejectsInvalid(t *testing.T) {
	s := openTestCatalog(t)
	cases := []model.CatalogEntry{
		{Description: "geen code", Unit: "m2"},
		{Code: "X1", Unit: "m2"},
		{Code: "X2", Description: "negatief", Unit: "m2", Material: -1},
	}
	for _, e := range cases {
		if _, err := s.Upsert(e); err == nil {
			t.Fatalf("Upsert(%+v) accepted invalid entry", e)
		}
	}
	if n, _ := s.Count(); n != 0 {
		t.Fatalf("Count = %d after rejected upserts", n)
	}
}

func TestCatalogBulkUpsert(t *testing.T) {
	s := openTestCatalog(t)
	if _, err := s.Upsert(model.CatalogEntry{Code: "A1", Description: "bestaand", Unit: "m2", UnitPrice: 1}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	added, updated, rowErrs := s.BulkUpsert([]model.CatalogEntry{
		{Code: "A1", Description: "bijgewerkt", Unit: "m2", UnitPrice: 2},
		{Code: "B1", Description: "nieuw", Unit: "stu", UnitPrice: 3},
		{Description: "zonder code", Unit: "m2"},
	})
	if added != 1 || updated != 1 {
		t.Fatalf("added/updated = %d/%d, want 1/1", added, updated)
	}
	if len(rowErrs) != 1 {
		t.Fatalf("rowErrs = %+v, want one", rowErrs)
	}
	if rowErrs[0].Row != 3 {
		t.Fatalf("bad row reported at %d, want 3", rowErrs[0].Row)
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("All returned %d entries", len(all))
	}
	if all[0].Code != "A1" || all[1].Code != "B1" {
		t.Fatalf("All not code-ordered: %s, %s", all[0].Code, all[1].Code)
	}
}

func TestCatalogDelete(t *testing.T) {
	s := openTestCatalog(t)
	if _, err := s.Upsert(model.CatalogEntry{Code: "A1", Description: "x", Unit: "m2", UnitPrice: 1}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.Delete("A1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("A1"); err != model.ErrNotFound {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete("A1"); err != model.ErrNotFound {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestCatalogClear(t *testing.T) {
	s := openTestCatalog(t)
	for _, code := range []string{"A1", "B1", "C1"} {
		if _, err := s.Upsert(model.CatalogEntry{Code: code, Description: "x", Unit: "m2", UnitPrice: 1}); err != nil {
			t.Fatalf("seed %s: %v", code, err)
		}
	}
	n, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Fatalf("Clear removed %d, want 3", n)
	}
	if cnt, _ := s.Count(); cnt != 0 {
		t.Fatalf("Count after clear = %d", cnt)
	}
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_BuiltinFallback(t *testing.T) {
	t.Run("empty path uses builtin catalog", func(t *testing.T) {
		cat := Load("")
		if cat.Len() != 20 {
			t.Errorf("Len() = %d, want 20", cat.Len())
		}
		if cat.Items()[0].Name != "Apple" {
			t.Errorf("first item = %q, want Apple", cat.Items()[0].Name)
		}
	})

	t.Run("missing file uses builtin catalog", func(t *testing.T) {
		cat := Load("/nonexistent/food_db.csv")
		if cat.Len() != 20 {
			t.Errorf("Len() = %d, want 20", cat.Len())
		}
	})

	t.Run("builtin entries have sane values", func(t *testing.T) {
		for _, item := range Load("").Items() {
			if item.DefaultQuantityGrams <= 0 {
				t.Errorf("%s: DefaultQuantityGrams = %v, want > 0", item.Name, item.DefaultQuantityGrams)
			}
			if item.CaloriesPer100g < 0 {
				t.Errorf("%s: CaloriesPer100g = %v, want >= 0", item.Name, item.CaloriesPer100g)
			}
		}
	})
}

func TestLoad_CSV(t *testing.T) {
	writeCSV := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "food_db.csv")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write csv: %v", err)
		}
		return path
	}

	t.Run("loads items in file order", func(t *testing.T) {
		path := writeCSV(t, "id,name,default_quantity_grams,calories_per_100g\n"+
			"1,Dosa,120,168\n"+
			"2,Idli,80,58\n")

		cat := Load(path)
		if cat.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", cat.Len())
		}
		if cat.Items()[0].Name != "Dosa" || cat.Items()[1].Name != "Idli" {
			t.Errorf("items = %v, want Dosa then Idli", cat.Names())
		}
		if cat.Items()[0].DefaultQuantityGrams != 120 {
			t.Errorf("DefaultQuantityGrams = %v, want 120", cat.Items()[0].DefaultQuantityGrams)
		}
	})

	t.Run("skips malformed rows", func(t *testing.T) {
		path := writeCSV(t, "id,name,default_quantity_grams,calories_per_100g\n"+
			"x,Bad,1,1\n"+
			"2,Good,100,50\n")

		cat := Load(path)
		if cat.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", cat.Len())
		}
		if cat.Items()[0].Name != "Good" {
			t.Errorf("item = %q, want Good", cat.Items()[0].Name)
		}
	})

	t.Run("header-only file falls back to builtin", func(t *testing.T) {
		path := writeCSV(t, "id,name,default_quantity_grams,calories_per_100g\n")
		cat := Load(path)
		if cat.Len() != 20 {
			t.Errorf("Len() = %d, want builtin 20", cat.Len())
		}
	})
}

func TestByID(t *testing.T) {
	cat := Load("")

	item, ok := cat.ByID(3)
	if !ok {
		t.Fatal("ByID(3) not found")
	}
	if item.Name != "Rice" {
		t.Errorf("ByID(3) = %q, want Rice", item.Name)
	}

	if _, ok := cat.ByID(999); ok {
		t.Error("ByID(999) found, want missing")
	}
}

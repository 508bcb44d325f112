package catalog

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"

	"github.com/healthyfy/backend/internal/domain"
)

// Catalog is the fixed reference list of known foods. It is built once at
// startup and never mutated afterwards, so it is safe for concurrent reads.
type Catalog struct {
	items []domain.FoodItem
	byID  map[int]domain.FoodItem
}

// Load builds the catalog from a CSV file with columns
// id,name,default_quantity_grams,calories_per_100g. A missing or unreadable
// file is not an error: the built-in default list is used instead.
func Load(path string) *Catalog {
	items := loadCSV(path)
	if items == nil {
		log.Printf("[CATALOG] using built-in catalog (%d items)", len(builtinItems))
		items = builtinItems
	} else {
		log.Printf("[CATALOG] loaded %d items from %s", len(items), path)
	}

	byID := make(map[int]domain.FoodItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	return &Catalog{items: items, byID: byID}
}

// loadCSV returns nil when the file is absent or unparseable.
func loadCSV(path string) []domain.FoodItem {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		log.Printf("[CATALOG] cannot open %s: %v", path, err)
		return nil
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		log.Printf("[CATALOG] cannot parse %s: %v", path, err)
		return nil
	}
	if len(records) < 2 {
		return nil
	}

	var items []domain.FoodItem
	// Skip the header row; tolerate individual malformed rows.
	for _, rec := range records[1:] {
		if len(rec) < 4 {
			continue
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		qty, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			continue
		}
		cal, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			continue
		}
		items = append(items, domain.FoodItem{
			ID:                   id,
			Name:                 rec[1],
			DefaultQuantityGrams: qty,
			CaloriesPer100g:      cal,
		})
	}

	if len(items) == 0 {
		return nil
	}
	return items
}

// Items returns the catalog entries in load order. Callers must not mutate
// the returned slice.
func (c *Catalog) Items() []domain.FoodItem {
	return c.items
}

// ByID resolves a food id to its catalog entry.
func (c *Catalog) ByID(id int) (domain.FoodItem, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Names returns the catalog entry names in load order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.items))
	for i, item := range c.items {
		names[i] = item.Name
	}
	return names
}

// builtinItems is the fallback catalog of common foods with plausible
// default portions and calorie densities.
var builtinItems = []domain.FoodItem{
	{ID: 1, Name: "Apple", DefaultQuantityGrams: 150, CaloriesPer100g: 52},
	{ID: 2, Name: "Banana", DefaultQuantityGrams: 120, CaloriesPer100g: 89},
	{ID: 3, Name: "Rice", DefaultQuantityGrams: 200, CaloriesPer100g: 130},
	{ID: 4, Name: "Chicken Breast", DefaultQuantityGrams: 100, CaloriesPer100g: 165},
	{ID: 5, Name: "Salmon", DefaultQuantityGrams: 150, CaloriesPer100g: 208},
	{ID: 6, Name: "Broccoli", DefaultQuantityGrams: 100, CaloriesPer100g: 34},
	{ID: 7, Name: "Egg", DefaultQuantityGrams: 50, CaloriesPer100g: 155},
	{ID: 8, Name: "Bread", DefaultQuantityGrams: 30, CaloriesPer100g: 265},
	{ID: 9, Name: "Milk", DefaultQuantityGrams: 250, CaloriesPer100g: 42},
	{ID: 10, Name: "Yogurt", DefaultQuantityGrams: 200, CaloriesPer100g: 59},
	{ID: 11, Name: "Orange", DefaultQuantityGrams: 180, CaloriesPer100g: 47},
	{ID: 12, Name: "Pasta", DefaultQuantityGrams: 200, CaloriesPer100g: 131},
	{ID: 13, Name: "Beef", DefaultQuantityGrams: 100, CaloriesPer100g: 250},
	{ID: 14, Name: "Potato", DefaultQuantityGrams: 150, CaloriesPer100g: 77},
	{ID: 15, Name: "Carrot", DefaultQuantityGrams: 100, CaloriesPer100g: 41},
	{ID: 16, Name: "Spinach", DefaultQuantityGrams: 100, CaloriesPer100g: 23},
	{ID: 17, Name: "Cheese", DefaultQuantityGrams: 30, CaloriesPer100g: 402},
	{ID: 18, Name: "Butter", DefaultQuantityGrams: 15, CaloriesPer100g: 717},
	{ID: 19, Name: "Avocado", DefaultQuantityGrams: 200, CaloriesPer100g: 160},
	{ID: 20, Name: "Tomato", DefaultQuantityGrams: 150, CaloriesPer100g: 18},
}

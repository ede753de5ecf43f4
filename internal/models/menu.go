package models

import (
	"sort"
	"strings"
)

// AllCategories is the category filter value that disables category filtering
const AllCategories = "all"

// MenuCategory represents a menu category
type MenuCategory struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DisplayOrder int    `json:"displayOrder"`
	IsActive     bool   `json:"isActive"`
}

// NutritionInfo holds optional nutrition facts for a menu item
type NutritionInfo struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
}

// MenuItem represents a menu item. Price is in whole yen.
type MenuItem struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         int64          `json:"price"`
	CategoryID    string         `json:"categoryId"`
	Category      *MenuCategory  `json:"category,omitempty"`
	ImageURL      string         `json:"imageUrl,omitempty"`
	IsAvailable   bool           `json:"isAvailable"`
	Allergens     []string       `json:"allergens,omitempty"`
	NutritionInfo *NutritionInfo `json:"nutritionInfo,omitempty"`
}

// Menu is the full menu of a store as served for an order session
type Menu struct {
	Categories []MenuCategory `json:"categories"`
	Items      []MenuItem     `json:"items"`
}

// BrowseCategories returns the active categories sorted by display order
func (m *Menu) BrowseCategories() []MenuCategory {
	out := make([]MenuCategory, 0, len(m.Categories))
	for _, c := range m.Categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// Filter returns the items in categoryID whose name or description contains
// query, case-insensitively. An empty or "all" category matches every item.
func (m *Menu) Filter(categoryID, query string) []MenuItem {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]MenuItem, 0, len(m.Items))
	for _, it := range m.Items {
		if categoryID != "" && categoryID != AllCategories && it.CategoryID != categoryID {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.Description), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Item looks up a menu item by ID
func (m *Menu) Item(id string) (MenuItem, bool) {
	for _, it := range m.Items {
		if it.ID == id {
			return it, true
		}
	}
	return MenuItem{}, false
}

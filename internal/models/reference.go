package models

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FilterType is how the storefront filters on an attribute
type FilterType string

const (
	FilterMultiSelect  FilterType = "multi_select"
	FilterSingleSelect FilterType = "single_select"
	FilterRange        FilterType = "range"
	FilterText         FilterType = "text"
)

// InputType is how an attribute value is entered
type InputType string

const (
	InputNumber InputType = "number"
	InputText   InputType = "text"
)

// ProductType represents a product type from the catalog backend
type ProductType struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	AttributeCount int    `json:"attributeCount"`
	IsActive       bool   `json:"isActive"`
}

// Attribute is one attribute definition attached to a product type
type Attribute struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	FilterType FilterType `json:"filterType"`
	InputType  InputType  `json:"inputType"`
	Values     []string   `json:"values,omitempty"`
	Min        *float64   `json:"min,omitempty"`
	Max        *float64   `json:"max,omitempty"`
	Unit       string     `json:"unit,omitempty"`
}

// IsSelect reports whether the attribute takes values from a fixed list.
func (a Attribute) IsSelect() bool {
	return a.FilterType == FilterMultiSelect || a.FilterType == FilterSingleSelect
}

// HasValue matches v against the allowed values, ignoring case.
func (a Attribute) HasValue(v string) (string, bool) {
	want := foldName(v)
	for _, allowed := range a.Values {
		if foldName(allowed) == want {
			return allowed, true
		}
	}
	return "", false
}

// Category represents a category from the catalog backend
type Category struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parentId,omitempty"`
}

// ReferenceData is the lookup set fetched once per export or import
type ReferenceData struct {
	Types      []ProductType          `json:"types"`
	Categories []Category             `json:"categories"`
	Attributes map[string][]Attribute `json:"attributes"`
}

// TypeByName finds a product type by name or slug.
func (r *ReferenceData) TypeByName(name string) (ProductType, bool) {
	want := foldName(name)
	for _, t := range r.Types {
		if foldName(t.Name) == want || foldName(t.Slug) == want {
			return t, true
		}
	}
	return ProductType{}, false
}

// TypeByID finds a product type by id.
func (r *ReferenceData) TypeByID(id string) (ProductType, bool) {
	for _, t := range r.Types {
		if t.ID == id {
			return t, true
		}
	}
	return ProductType{}, false
}

// CategoryByName finds a category by name or slug.
func (r *ReferenceData) CategoryByName(name string) (Category, bool) {
	want := foldName(name)
	for _, c := range r.Categories {
		if foldName(c.Name) == want || foldName(c.Slug) == want {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryByID finds a category by id.
func (r *ReferenceData) CategoryByID(id string) (Category, bool) {
	for _, c := range r.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// AttributeForType finds an attribute of the given type by slug.
func (r *ReferenceData) AttributeForType(typeID, slug string) (Attribute, bool) {
	for _, a := range r.Attributes[typeID] {
		if a.Slug == slug {
			return a, true
		}
	}
	return Attribute{}, false
}

// DistinctAttributes returns every attribute slug once, in type order.
// When several types share a slug their allowed values are merged, and a
// slug whose filter type differs between types degrades to free text.
func (r *ReferenceData) DistinctAttributes() []Attribute {
	index := make(map[string]int)
	var out []Attribute
	for _, t := range r.Types {
		for _, a := range r.Attributes[t.ID] {
			i, ok := index[a.Slug]
			if !ok {
				a.Values = append([]string(nil), a.Values...)
				index[a.Slug] = len(out)
				out = append(out, a)
				continue
			}
			merged := &out[i]
			if merged.FilterType != a.FilterType {
				merged.FilterType = FilterText
			}
			for _, v := range a.Values {
				if _, dup := merged.HasValue(v); !dup {
					merged.Values = append(merged.Values, v)
				}
			}
		}
	}
	return out
}

// TypeNames returns the product type names in backend order.
func (r *ReferenceData) TypeNames() []string {
	names := make([]string, len(r.Types))
	for i, t := range r.Types {
		names[i] = t.Name
	}
	return names
}

func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

package domain

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func numPtr(f float64) *float64 { return &f }

func TestProduct_SearchableText(t *testing.T) {
	p := &Product{
		ID:          "p1",
		Name:        "Concrete Mixer",
		Description: "200L drum mixer",
		Tags:        []string{"construction", "mixer"},
	}

	got := p.SearchableText()
	want := "Concrete Mixer 200L drum mixer construction mixer"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestProduct_SearchableText_Deterministic(t *testing.T) {
	p := &Product{ID: "p1", Name: "Drill", Description: "cordless", Tags: []string{"b", "a"}}
	first := p.SearchableText()
	for i := 0; i < 5; i++ {
		if p.SearchableText() != first {
			t.Fatal("searchable text must be deterministic")
		}
	}
	// Tags keep input order, no sorting.
	if !strings.HasSuffix(first, "b a") {
		t.Fatalf("tags must preserve input order, got %q", first)
	}
}

func TestProduct_SearchableText_SkipsEmptyParts(t *testing.T) {
	p := &Product{ID: "p1", Name: "Drill"}
	if got := p.SearchableText(); got != "Drill" {
		t.Fatalf("got %q", got)
	}
}

func TestCategory_SentinelFallback(t *testing.T) {
	p := &Product{ID: "p1", Name: "x"}
	if p.Category() != CategoryUnknown {
		t.Fatalf("empty category must fall back to %q, got %q", CategoryUnknown, p.Category())
	}

	p.Normalize()
	if p.CategoryName != CategoryUnknown {
		t.Fatal("Normalize must persist the sentinel")
	}

	s := &Service{ID: "s1", Name: "x", CategoryName: "  "}
	if s.Category() != CategoryUnknown {
		t.Fatal("whitespace-only category must fall back to sentinel")
	}
}

func TestValidate_RequiresIDAndName(t *testing.T) {
	cases := []struct {
		name string
		e    Entity
	}{
		{"product no id", &Product{Name: "x"}},
		{"product no name", &Product{ID: "p"}},
		{"service no id", &Service{Name: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.e.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestAttribute_Validate(t *testing.T) {
	ok := Attribute{Name: "Color", DataType: "string", StringValue: strPtr("Black")}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	num := Attribute{Name: "Power", DataType: "number", NumberValue: numPtr(1500)}
	if err := num.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := Attribute{Name: "Power", DataType: "number", StringValue: strPtr("1500")}
	if err := bad.Validate(); err == nil {
		t.Fatal("number attribute without numberValue must fail")
	}

	unknown := Attribute{Name: "X", DataType: "bool"}
	if err := unknown.Validate(); err == nil {
		t.Fatal("unknown dataType must fail")
	}
}

func TestProduct_Validate_ChecksVariantAttributes(t *testing.T) {
	p := &Product{
		ID:   "p1",
		Name: "Mixer",
		Variants: []Variant{{
			ID:         "v1",
			Attributes: []Attribute{{Name: "Color", DataType: "string"}},
		}},
	}
	if err := p.Validate(); err == nil {
		t.Fatal("expected attribute validation error")
	}
}

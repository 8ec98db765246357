package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// KeyPrefix namespaces every key this service writes to the store.
const KeyPrefix = "catalog:"

// CategoryUnknown is substituted for a missing categoryName before an entity
// becomes searchable, so the category match never compares against nothing.
const CategoryUnknown = "Unknown"

// EntityType discriminates the two searchable catalog types.
type EntityType string

const (
	// TypeProduct is the product catalog type.
	TypeProduct EntityType = "product"
	// TypeService is the service catalog type.
	TypeService EntityType = "service"
)

// EntityTypes lists all searchable types in response order.
func EntityTypes() []EntityType {
	return []EntityType{TypeProduct, TypeService}
}

// Image is a hosted image reference attached to a variant or package.
type Image struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Attribute is a typed key/value pair. DataType declares which value field is set.
type Attribute struct {
	ID          string   `json:"id"`
	TemplateID  string   `json:"templateId"`
	Name        string   `json:"name"`
	DataType    string   `json:"dataType"` // "string" | "number"
	StringValue *string  `json:"stringValue,omitempty"`
	NumberValue *float64 `json:"numberValue,omitempty"`
}

// Validate checks that the declared data type matches the populated value.
func (a Attribute) Validate() error {
	switch a.DataType {
	case "string":
		if a.StringValue == nil {
			return fmt.Errorf("attribute %q declares string but has no stringValue: %w", a.Name, ErrInvalidArgument)
		}
	case "number":
		if a.NumberValue == nil {
			return fmt.Errorf("attribute %q declares number but has no numberValue: %w", a.Name, ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("attribute %q has unknown dataType %q: %w", a.Name, a.DataType, ErrInvalidArgument)
	}
	return nil
}

// Variant is a purchasable product variation.
type Variant struct {
	ID         string      `json:"id"`
	SKU        string      `json:"sku"`
	Price      float64     `json:"price"`
	Stock      int         `json:"stock"`
	Images     []Image     `json:"images,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// Package is a bookable service tier.
type Package struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Price       float64     `json:"price"`
	Description string      `json:"description"`
	Images      []Image     `json:"images,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

// Product is a searchable catalog product.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Barcode      string          `json:"barcode,omitempty"`
	Description  string          `json:"description"`
	BasePrice    float64         `json:"basePrice"`
	CategoryName string          `json:"categoryName"`
	Brand        string          `json:"brand,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Variants     []Variant       `json:"variants,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// Service is a searchable catalog service.
type Service struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	BasePrice    float64         `json:"basePrice"`
	CategoryName string          `json:"categoryName"`
	Tags         []string        `json:"tags,omitempty"`
	Packages     []Package       `json:"packages,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// Entity is the common view the ingestion and ranking paths need from either type.
type Entity interface {
	EntityID() string
	Type() EntityType
	Category() string
	SearchableText() string
	Validate() error
}

// EntityID returns the product id.
func (p *Product) EntityID() string { return p.ID }

// Type returns TypeProduct.
func (p *Product) Type() EntityType { return TypeProduct }

// Category returns the category name, or the sentinel when absent.
func (p *Product) Category() string { return categoryOrUnknown(p.CategoryName) }

// SearchableText is the deterministic text embedded for this product:
// name, description, then tags in input order.
func (p *Product) SearchableText() string {
	return searchableText(p.Name, p.Description, p.Tags)
}

// Validate checks the fields search semantics depend on.
func (p *Product) Validate() error {
	if err := validateCommon(p.ID, p.Name); err != nil {
		return err
	}
	for _, v := range p.Variants {
		for _, a := range v.Attributes {
			if err := a.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Normalize fills the categoryName sentinel in place. Called on the ingestion
// path so a searchable entity never carries an empty category.
func (p *Product) Normalize() {
	p.CategoryName = categoryOrUnknown(p.CategoryName)
}

// EntityID returns the service id.
func (s *Service) EntityID() string { return s.ID }

// Type returns TypeService.
func (s *Service) Type() EntityType { return TypeService }

// Category returns the category name, or the sentinel when absent.
func (s *Service) Category() string { return categoryOrUnknown(s.CategoryName) }

// SearchableText is the deterministic text embedded for this service.
func (s *Service) SearchableText() string {
	return searchableText(s.Name, s.Description, s.Tags)
}

// Validate checks the fields search semantics depend on.
func (s *Service) Validate() error {
	if err := validateCommon(s.ID, s.Name); err != nil {
		return err
	}
	for _, p := range s.Packages {
		for _, a := range p.Attributes {
			if err := a.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Normalize fills the categoryName sentinel in place.
func (s *Service) Normalize() {
	s.CategoryName = categoryOrUnknown(s.CategoryName)
}

func validateCommon(id, name string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("entity id is required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("entity name is required: %w", ErrInvalidArgument)
	}
	return nil
}

func categoryOrUnknown(name string) string {
	if strings.TrimSpace(name) == "" {
		return CategoryUnknown
	}
	return name
}

func searchableText(name, description string, tags []string) string {
	parts := make([]string, 0, 2+len(tags))
	if name != "" {
		parts = append(parts, name)
	}
	if description != "" {
		parts = append(parts, description)
	}
	parts = append(parts, tags...)
	return strings.Join(parts, " ")
}

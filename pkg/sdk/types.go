package searchd

import (
	"encoding/json"

	"github.com/homez-ai/searchd/internal/domain"
)

// Image is a hosted image reference attached to a variant or package.
type Image struct {
	ID  string
	URL string
}

// Attribute is a typed key/value pair. DataType is "string" or "number" and
// declares which value field is set.
type Attribute struct {
	ID          string
	TemplateID  string
	Name        string
	DataType    string
	StringValue *string
	NumberValue *float64
}

// Variant is a purchasable product variation.
type Variant struct {
	ID         string
	SKU        string
	Price      float64
	Stock      int
	Images     []Image
	Attributes []Attribute
}

// Package is a bookable service tier.
type Package struct {
	ID          string
	Name        string
	Price       float64
	Description string
	Images      []Image
	Attributes  []Attribute
}

// Product is a searchable catalog product.
type Product struct {
	ID          string
	Name        string
	Barcode     string
	Description string
	BasePrice   float64
	Category    string
	Brand       string
	Tags        []string
	Variants    []Variant
	Metadata    json.RawMessage
}

// Service is a searchable catalog service.
type Service struct {
	ID          string
	Name        string
	Description string
	BasePrice   float64
	Category    string
	Tags        []string
	Packages    []Package
	Metadata    json.RawMessage
}

// ResultItem is a single ranked search hit.
type ResultItem struct {
	ID         string
	Similarity float64
}

// SearchResults carries the ranked hits for both entity types. Unavailable
// names the entity types whose index could not be reached.
type SearchResults struct {
	Products    []ResultItem
	Services    []ResultItem
	Unavailable []string
}

// Degraded reports whether at least one entity type failed.
func (r SearchResults) Degraded() bool { return len(r.Unavailable) > 0 }

// --- converters ---

func toInternalProduct(p Product) *domain.Product {
	return &domain.Product{
		ID:           p.ID,
		Name:         p.Name,
		Barcode:      p.Barcode,
		Description:  p.Description,
		BasePrice:    p.BasePrice,
		CategoryName: p.Category,
		Brand:        p.Brand,
		Tags:         p.Tags,
		Variants:     toInternalVariants(p.Variants),
		Metadata:     p.Metadata,
	}
}

func fromInternalProduct(p *domain.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Barcode:     p.Barcode,
		Description: p.Description,
		BasePrice:   p.BasePrice,
		Category:    p.CategoryName,
		Brand:       p.Brand,
		Tags:        p.Tags,
		Variants:    fromInternalVariants(p.Variants),
		Metadata:    p.Metadata,
	}
}

func toInternalService(s Service) *domain.Service {
	return &domain.Service{
		ID:           s.ID,
		Name:         s.Name,
		Description:  s.Description,
		BasePrice:    s.BasePrice,
		CategoryName: s.Category,
		Tags:         s.Tags,
		Packages:     toInternalPackages(s.Packages),
		Metadata:     s.Metadata,
	}
}

func fromInternalService(s *domain.Service) Service {
	return Service{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		BasePrice:   s.BasePrice,
		Category:    s.CategoryName,
		Tags:        s.Tags,
		Packages:    fromInternalPackages(s.Packages),
		Metadata:    s.Metadata,
	}
}

func toInternalVariants(vs []Variant) []domain.Variant {
	if len(vs) == 0 {
		return nil
	}
	out := make([]domain.Variant, len(vs))
	for i, v := range vs {
		out[i] = domain.Variant{
			ID:         v.ID,
			SKU:        v.SKU,
			Price:      v.Price,
			Stock:      v.Stock,
			Images:     toInternalImages(v.Images),
			Attributes: toInternalAttributes(v.Attributes),
		}
	}
	return out
}

func fromInternalVariants(vs []domain.Variant) []Variant {
	if len(vs) == 0 {
		return nil
	}
	out := make([]Variant, len(vs))
	for i, v := range vs {
		out[i] = Variant{
			ID:         v.ID,
			SKU:        v.SKU,
			Price:      v.Price,
			Stock:      v.Stock,
			Images:     fromInternalImages(v.Images),
			Attributes: fromInternalAttributes(v.Attributes),
		}
	}
	return out
}

func toInternalPackages(ps []Package) []domain.Package {
	if len(ps) == 0 {
		return nil
	}
	out := make([]domain.Package, len(ps))
	for i, p := range ps {
		out[i] = domain.Package{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Description: p.Description,
			Images:      toInternalImages(p.Images),
			Attributes:  toInternalAttributes(p.Attributes),
		}
	}
	return out
}

func fromInternalPackages(ps []domain.Package) []Package {
	if len(ps) == 0 {
		return nil
	}
	out := make([]Package, len(ps))
	for i, p := range ps {
		out[i] = Package{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Description: p.Description,
			Images:      fromInternalImages(p.Images),
			Attributes:  fromInternalAttributes(p.Attributes),
		}
	}
	return out
}

func toInternalImages(is []Image) []domain.Image {
	if len(is) == 0 {
		return nil
	}
	out := make([]domain.Image, len(is))
	for i, im := range is {
		out[i] = domain.Image{ID: im.ID, URL: im.URL}
	}
	return out
}

func fromInternalImages(is []domain.Image) []Image {
	if len(is) == 0 {
		return nil
	}
	out := make([]Image, len(is))
	for i, im := range is {
		out[i] = Image{ID: im.ID, URL: im.URL}
	}
	return out
}

func toInternalAttributes(as []Attribute) []domain.Attribute {
	if len(as) == 0 {
		return nil
	}
	out := make([]domain.Attribute, len(as))
	for i, a := range as {
		out[i] = domain.Attribute{
			ID:          a.ID,
			TemplateID:  a.TemplateID,
			Name:        a.Name,
			DataType:    a.DataType,
			StringValue: a.StringValue,
			NumberValue: a.NumberValue,
		}
	}
	return out
}

func fromInternalAttributes(as []domain.Attribute) []Attribute {
	if len(as) == 0 {
		return nil
	}
	out := make([]Attribute, len(as))
	for i, a := range as {
		out[i] = Attribute{
			ID:          a.ID,
			TemplateID:  a.TemplateID,
			Name:        a.Name,
			DataType:    a.DataType,
			StringValue: a.StringValue,
			NumberValue: a.NumberValue,
		}
	}
	return out
}

func fromInternalResults(items []domain.ResultItem) []ResultItem {
	out := make([]ResultItem, len(items))
	for i, it := range items {
		out[i] = ResultItem{ID: it.ID, Similarity: it.Similarity}
	}
	return out
}

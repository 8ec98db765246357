package catalog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/homez-ai/searchd/internal/domain"
)

// marshalProduct serializes the normalized product for JSON.SET.
func marshalProduct(p *domain.Product) ([]byte, error) {
	p.Normalize()
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal product %s: %w", p.ID, err)
	}
	return data, nil
}

// marshalService serializes the normalized service for JSON.SET.
func marshalService(s *domain.Service) ([]byte, error) {
	s.Normalize()
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal service %s: %w", s.ID, err)
	}
	return data, nil
}

// productRow defers the fields upstream writers sometimes double-encode
// (a JSON array stored as a JSON string) so decode can unwrap them.
type productRow struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Barcode      string          `json:"barcode"`
	Description  string          `json:"description"`
	BasePrice    float64         `json:"basePrice"`
	CategoryName string          `json:"categoryName"`
	Brand        string          `json:"brand"`
	Tags         json.RawMessage `json:"tags"`
	Variants     json.RawMessage `json:"variants"`
	Metadata     json.RawMessage `json:"metadata"`
}

type serviceRow struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	BasePrice    float64         `json:"basePrice"`
	CategoryName string          `json:"categoryName"`
	Tags         json.RawMessage `json:"tags"`
	Packages     json.RawMessage `json:"packages"`
	Metadata     json.RawMessage `json:"metadata"`
}

// decodeProduct parses a JSON.GET ("$" path) result into a typed product.
// A malformed row surfaces domain.ErrParse rather than a zero-valued entity.
func decodeProduct(raw []byte) (*domain.Product, error) {
	data, err := unwrapPathArray(raw)
	if err != nil {
		return nil, err
	}

	var row productRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("decode product row: %w: %w", domain.ErrParse, err)
	}

	p := &domain.Product{
		ID:           row.ID,
		Name:         row.Name,
		Barcode:      row.Barcode,
		Description:  row.Description,
		BasePrice:    row.BasePrice,
		CategoryName: row.CategoryName,
		Brand:        row.Brand,
	}
	if err := decodeFlex(row.Tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decode product %s tags: %w: %w", row.ID, domain.ErrParse, err)
	}
	if err := decodeFlex(row.Variants, &p.Variants); err != nil {
		return nil, fmt.Errorf("decode product %s variants: %w: %w", row.ID, domain.ErrParse, err)
	}
	p.Metadata, err = flexRaw(row.Metadata)
	if err != nil {
		return nil, fmt.Errorf("decode product %s metadata: %w: %w", row.ID, domain.ErrParse, err)
	}
	p.Normalize()
	return p, nil
}

// decodeService parses a JSON.GET ("$" path) result into a typed service.
func decodeService(raw []byte) (*domain.Service, error) {
	data, err := unwrapPathArray(raw)
	if err != nil {
		return nil, err
	}

	var row serviceRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("decode service row: %w: %w", domain.ErrParse, err)
	}

	s := &domain.Service{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		BasePrice:    row.BasePrice,
		CategoryName: row.CategoryName,
	}
	if err := decodeFlex(row.Tags, &s.Tags); err != nil {
		return nil, fmt.Errorf("decode service %s tags: %w: %w", row.ID, domain.ErrParse, err)
	}
	if err := decodeFlex(row.Packages, &s.Packages); err != nil {
		return nil, fmt.Errorf("decode service %s packages: %w: %w", row.ID, domain.ErrParse, err)
	}
	s.Metadata, err = flexRaw(row.Metadata)
	if err != nil {
		return nil, fmt.Errorf("decode service %s metadata: %w: %w", row.ID, domain.ErrParse, err)
	}
	s.Normalize()
	return s, nil
}

// unwrapPathArray peels the single-element array a "$" path query returns.
func unwrapPathArray(raw []byte) ([]byte, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		// Not path-wrapped: treat the payload as the row itself.
		return raw, nil
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0], nil
}

// decodeFlex unmarshals raw into v, tolerating a double-encoded JSON string.
func decodeFlex(raw json.RawMessage, v any) error {
	data, err := flexRaw(raw)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// flexRaw unwraps one level of string encoding: `"[1,2]"` becomes `[1,2]`.
func flexRaw(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("string field does not contain valid JSON: %s", truncate(s, 40))
	}
	return json.RawMessage(s), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// vectorFields builds the flat hash row the vector index reads: the entity id,
// its denormalized category for ranking, and the binary embedding.
func vectorFields(id, category string, vector []float32) map[string]string {
	return map[string]string{
		"entity":   id,
		"category": category,
		"__vector": vectorToBytes(vector),
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

package api

import (
	"context"
	"fmt"
	"math"
	"net/url"
)

// SizeVariant is an alternative price for a labelled size.
type SizeVariant struct {
	Label string
	Price int64
}

// Product is a catalog entry. Stock is nil when the backend reports no
// sellable ceiling.
type Product struct {
	ID              int64
	Name            string
	Category        string
	Description     string
	ImageURL        string
	Price           int64
	DiscountPercent int
	Stock           *int
	SizeVariants    []SizeVariant
}

// ActivePrice is the list price for the selected size, falling back to the
// base price when the size has no variant entry.
func (p Product) ActivePrice(size string) int64 {
	for _, v := range p.SizeVariants {
		if v.Label == size {
			return v.Price
		}
	}
	return p.Price
}

// FinalPrice applies the discount to the given list price, rounded to the
// nearest rupee.
func (p Product) FinalPrice(listPrice int64) int64 {
	if p.DiscountPercent <= 0 {
		return listPrice
	}
	return int64(math.Round(float64(listPrice) * (1 - float64(p.DiscountPercent)/100)))
}

// HasSizes reports whether the product is sold in size variants.
func (p Product) HasSizes() bool { return len(p.SizeVariants) > 0 }

// InStock reports whether the product can still be ordered. A nil stock
// means the backend tracks no ceiling.
func (p Product) InStock() bool { return p.Stock == nil || *p.Stock > 0 }

// ListProducts fetches the catalog, optionally filtered by category.
func (c *Client) ListProducts(ctx context.Context, category string) ([]Product, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}
	var raw []remoteProduct
	if err := c.get(ctx, "/api/products", query, &raw); err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toProduct())
	}
	return out, nil
}

// GetProduct fetches one product including its size-variant price list.
func (c *Client) GetProduct(ctx context.Context, id int64) (Product, error) {
	var raw remoteProduct
	if err := c.get(ctx, fmt.Sprintf("/api/products/%d", id), nil, &raw); err != nil {
		return Product{}, err
	}
	return raw.toProduct(), nil
}

type remoteProduct struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	Category        string              `json:"category"`
	Description     string              `json:"description"`
	ImageURL        string              `json:"imageUrl"`
	Price           float64             `json:"price"`
	DiscountPercent float64             `json:"discountPercent"`
	Stock           *int                `json:"stock"`
	SizeVariants    []remoteSizeVariant `json:"sizeVariants"`
}

type remoteSizeVariant struct {
	SizeLabel string  `json:"sizeLabel"`
	Price     float64 `json:"price"`
}

func (r remoteProduct) toProduct() Product {
	p := Product{
		ID:              r.ID,
		Name:            trimmed(r.Name),
		Category:        trimmed(r.Category),
		Description:     trimmed(r.Description),
		ImageURL:        trimmed(r.ImageURL),
		Price:           roundRupees(r.Price),
		DiscountPercent: clampPercent(r.DiscountPercent),
		Stock:           r.Stock,
	}
	for _, v := range r.SizeVariants {
		label := trimmed(v.SizeLabel)
		if label == "" {
			continue
		}
		p.SizeVariants = append(p.SizeVariants, SizeVariant{Label: label, Price: roundRupees(v.Price)})
	}
	return p
}

func roundRupees(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int64(math.Round(v))
}

func clampPercent(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}

package models

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// The backend reads and writes prices as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a catalog item as reported by the backend
type Product struct {
	ID          int64           `json:"id"`
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	ImagenURL   string          `json:"imagenUrl,omitempty"`
}

// InStock reports whether the backend advertises at least one unit
func (p Product) InStock() bool {
	return p.Stock > 0
}

// ProductInput is the body of the admin create and update calls
type ProductInput struct {
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	ImagenURL   string          `json:"imagenUrl,omitempty"`
}

// ProductPage is one page of the paginated catalog listing
type ProductPage struct {
	Content    []Product `json:"content"`
	TotalPages int       `json:"totalPages"`
	Number     int       `json:"number"`
}

// HasPrev reports whether a page precedes this one
func (p ProductPage) HasPrev() bool { return p.Number > 0 }

// HasNext reports whether a page follows this one
func (p ProductPage) HasNext() bool { return p.Number+1 < p.TotalPages }

// ProductQuery holds the search, filter and pagination parameters of a listing
type ProductQuery struct {
	Page      int
	Size      int
	Sort      string
	Nombre    string
	PrecioMin string
	PrecioMax string
}

// Values encodes the query the way the backend expects it. Zero values are omitted.
func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Nombre != "" {
		v.Set("nombre", q.Nombre)
	}
	if q.PrecioMin != "" {
		v.Set("precioMin", q.PrecioMin)
	}
	if q.PrecioMax != "" {
		v.Set("precioMax", q.PrecioMax)
	}
	return v
}

// Key identifies the query for request coalescing
func (q ProductQuery) Key() string {
	return q.Values().Encode()
}

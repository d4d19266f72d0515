package views

import (
	"strconv"

	"coffeelink/cart"
	"coffeelink/models"
	"coffeelink/utils"
)

// ProductCard is one product of the catalog grid.
type ProductCard struct {
	models.Product
	InCart int
}

// CanAdd reports whether another unit fits in the cart.
func (c ProductCard) CanAdd() bool {
	return c.InStock() && c.InCart < c.Stock
}

// SortOption is one entry of the catalog sort selector.
type SortOption struct {
	Value string
	Label string
}

// SortOptions lists the orderings the backend accepts.
var SortOptions = []SortOption{
	{Value: "", Label: "Relevancia"},
	{Value: "nombre,asc", Label: "Nombre (A-Z)"},
	{Value: "nombre,desc", Label: "Nombre (Z-A)"},
	{Value: "precio,asc", Label: "Precio: menor a mayor"},
	{Value: "precio,desc", Label: "Precio: mayor a menor"},
}

// CatalogData feeds the catalog page.
type CatalogData struct {
	Cards      []ProductCard
	Query      models.ProductQuery
	Page       models.ProductPage
	Sorts      []SortOption
	Error      string
	ActionPath string
}

// PageURL links to page n of the current query.
func (d CatalogData) PageURL(n int) string {
	q := d.Query
	q.Page = n
	v := q.Values()
	if len(v) == 0 {
		return d.ActionPath
	}
	return d.ActionPath + "?" + v.Encode()
}

// CartData feeds the cart page.
type CartData struct {
	Entries   []cart.Entry
	Total     string
	ItemCount int
}

// LoginData feeds the login form.
type LoginData struct {
	Email string
}

// RegisterData feeds the registration form. Passwords are never echoed back.
type RegisterData struct {
	Nombre string
	Email  string
	Field  string
}

// AdminData feeds the administration panel.
type AdminData struct {
	Products []models.Product
	Form     utils.ProductForm
	Message  string
	Error    string
}

// Editing reports whether the form edits an existing product.
func (d AdminData) Editing() bool {
	return d.Form.EditingID() > 0
}

// EditingLabel is the id shown in the form title.
func (d AdminData) EditingLabel() string {
	return strconv.FormatInt(d.Form.EditingID(), 10)
}

// ErrorData feeds the generic error page.
type ErrorData struct {
	Message string
}

package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"coffeelink/cart"
	"coffeelink/models"
	"coffeelink/utils"
	"coffeelink/views"
)

// CartController handles cart-related requests
type CartController struct {
	views *views.Renderer
}

// NewCartController creates a new CartController
func NewCartController(renderer *views.Renderer) *CartController {
	return &CartController{views: renderer}
}

// GetCart shows the cart and its total
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	data := views.CartData{
		Entries:   c.Cart().Entries(),
		Total:     utils.FormatCLP(c.Cart().Total()),
		ItemCount: c.Cart().ItemCount(),
	}
	cc.views.Render(w, r, http.StatusOK, views.PageCart, "Carrito", data)
}

// AddToCart adds one unit of a product the visitor was shown
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	id, ok := productID(r)
	if !ok {
		c.Flash.Add(cart.LevelError, msgBadRequest)
		redirect(w, r, "/catalogo")
		return
	}

	p, ok := c.Product(id)
	if !ok {
		p, ok = entryProduct(c.Cart(), id)
	}
	switch {
	case !ok:
		c.Flash.Add(cart.LevelWarning, "Ese producto ya no está disponible en el catálogo.")
	case !p.InStock():
		c.Flash.Add(cart.LevelWarning, fmt.Sprintf("%s no tiene stock.", p.Nombre))
	case c.Cart().Quantity(id) >= p.Stock:
		c.Flash.Add(cart.LevelWarning, fmt.Sprintf("Solo hay %d unidades de %s", p.Stock, p.Nombre))
	default:
		c.Cart().AddItem(p)
	}
	redirect(w, r, backTo(r, "/catalogo"))
}

// UpdateQuantity moves the quantity of an entry by the posted delta
func (cc *CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	id, ok := productID(r)
	delta, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("delta")))
	if !ok || err != nil {
		c.Flash.Add(cart.LevelError, msgBadRequest)
		redirect(w, r, "/carrito")
		return
	}

	// the cart reports the outcome, stock limit included, through the flash
	if _, err := c.Cart().ChangeQuantity(id, delta); err != nil && !errors.Is(err, cart.ErrStockLimit) {
		c.Flash.Add(cart.LevelError, msgUnexpected)
	}
	redirect(w, r, "/carrito")
}

// RemoveFromCart drops an entry
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	if id, ok := productID(r); ok {
		c.Cart().RemoveItem(id)
	}
	redirect(w, r, "/carrito")
}

func entryProduct(ct *cart.Cart, id int64) (models.Product, bool) {
	for _, e := range ct.Entries() {
		if e.Product.ID == id {
			return e.Product, true
		}
	}
	return models.Product{}, false
}

// backTo returns the local path posted as "next", or fallback
func backTo(r *http.Request, fallback string) string {
	next := r.PostFormValue("next")
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return fallback
}

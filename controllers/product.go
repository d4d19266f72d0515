package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"coffeelink/apiclient"
	"coffeelink/models"
	"coffeelink/views"

	"go.uber.org/zap"
)

// maxPageSize caps the page size a visitor can ask for
const maxPageSize = 48

// CatalogController lists the products
type CatalogController struct {
	api      *apiclient.Client
	views    *views.Renderer
	log      *zap.Logger
	pageSize int
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(api *apiclient.Client, renderer *views.Renderer, log *zap.Logger, pageSize int) *CatalogController {
	if pageSize <= 0 {
		pageSize = 9
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogController{api: api, views: renderer, log: log, pageSize: pageSize}
}

// Catalog shows one page of products, filtered and sorted as requested
func (pc *CatalogController) Catalog(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	q := pc.parseQuery(r)
	data := views.CatalogData{Query: q, Sorts: views.SortOptions, ActionPath: "/catalogo"}

	page, err := backendFor(pc.api, c).ListProducts(r.Context(), q)
	if apiclient.IsAuth(err) {
		rejectSession(w, r, c, msgSessionRejected)
		return
	}
	if err != nil {
		pc.log.Warn("listing products", zap.String("query", q.Key()), zap.Error(err))
		data.Error = "Error al cargar productos. Intenta nuevamente más tarde."
		pc.views.Render(w, r, http.StatusBadGateway, views.PageCatalog, "Catálogo", data)
		return
	}

	c.RememberProducts(page.Content)
	data.Page = page
	data.Cards = make([]views.ProductCard, 0, len(page.Content))
	for _, p := range page.Content {
		data.Cards = append(data.Cards, views.ProductCard{Product: p, InCart: c.Cart().Quantity(p.ID)})
	}
	pc.views.Render(w, r, http.StatusOK, views.PageCatalog, "Catálogo", data)
}

// parseQuery reads the listing parameters. Malformed values are dropped.
func (pc *CatalogController) parseQuery(r *http.Request) models.ProductQuery {
	v := r.URL.Query()
	q := models.ProductQuery{
		Size:      pc.pageSize,
		Nombre:    strings.TrimSpace(v.Get("nombre")),
		PrecioMin: amount(v.Get("precioMin")),
		PrecioMax: amount(v.Get("precioMax")),
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(v.Get("size")); err == nil && n > 0 {
		q.Size = min(n, maxPageSize)
	}
	sort := v.Get("sort")
	for _, opt := range views.SortOptions {
		if opt.Value == sort {
			q.Sort = sort
			break
		}
	}
	return q
}

// amount keeps s only when it is a non-negative integer
func amount(s string) string {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

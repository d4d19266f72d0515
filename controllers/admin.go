package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"coffeelink/apiclient"
	"coffeelink/cart"
	"coffeelink/models"
	"coffeelink/session"
	"coffeelink/utils"
	"coffeelink/views"

	"go.uber.org/zap"
)

// adminListSize is how many products the panel lists
const adminListSize = 100

const msgAdminRejected = "Error: No tienes permisos de Admin. Vuelve a iniciar sesión."

// AdminController manages the catalog. Every route is behind
// middleware.RequireRole(models.RoleAdmin).
type AdminController struct {
	api   *apiclient.Client
	views *views.Renderer
	log   *zap.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(api *apiclient.Client, renderer *views.Renderer, log *zap.Logger) *AdminController {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminController{api: api, views: renderer, log: log}
}

// Dashboard shows the product list and an empty creation form
func (ac *AdminController) Dashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	ac.render(w, r, c, http.StatusOK, views.AdminData{})
}

// EditProduct fills the form with an existing product
func (ac *AdminController) EditProduct(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	id, ok := productID(r)
	if !ok {
		c.Flash.Add(cart.LevelError, msgBadRequest)
		redirect(w, r, "/admin")
		return
	}
	p, ok := c.Product(id)
	if !ok {
		c.Flash.Add(cart.LevelWarning, "No encontramos ese producto. Recarga la lista.")
		redirect(w, r, "/admin")
		return
	}
	ac.render(w, r, c, http.StatusOK, views.AdminData{
		Form:    utils.FormFromProduct(p),
		Message: fmt.Sprintf("Editando: %s", p.Nombre),
	})
}

// SaveProduct creates a product, or updates it when the form carries an id
func (ac *AdminController) SaveProduct(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	form := utils.ProductForm{
		ID:          r.PostFormValue("id"),
		Nombre:      r.PostFormValue("nombre"),
		Descripcion: r.PostFormValue("descripcion"),
		Precio:      r.PostFormValue("precio"),
		Stock:       r.PostFormValue("stock"),
		ImagenURL:   r.PostFormValue("imagenUrl"),
	}
	in, err := utils.ParseProductForm(form)
	if err != nil {
		msg := "Error: El precio debe ser mayor a 0 y el stock no puede ser negativo."
		var verr *utils.ValidationError
		if errors.As(err, &verr) && verr.Field == "nombre" {
			msg = verr.Message
		}
		ac.render(w, r, c, http.StatusUnprocessableEntity, views.AdminData{Form: form, Error: msg})
		return
	}

	release, ok := c.InFlight.TryAcquire("admin:guardar")
	if !ok {
		c.Flash.Add(cart.LevelInfo, msgBusy)
		ac.render(w, r, c, http.StatusTooManyRequests, views.AdminData{Form: form})
		return
	}
	defer release()

	api := backendFor(ac.api, c)
	var saved models.Product
	verb := "creado"
	if id := form.EditingID(); id > 0 {
		verb = "actualizado"
		saved, err = api.UpdateProduct(r.Context(), id, in)
	} else {
		saved, err = api.CreateProduct(r.Context(), in)
	}
	if err != nil {
		ac.log.Warn("saving product", zap.Int64("product", form.EditingID()), zap.Error(err))
		switch apiclient.KindOf(err) {
		case apiclient.KindAuth:
			rejectSession(w, r, c, msgAdminRejected)
			return
		case apiclient.KindValidation:
			msg := apiclient.MessageOf(err)
			if msg == "" {
				msg = "Datos inválidos. Revisa el formulario."
			}
			ac.render(w, r, c, http.StatusBadRequest, views.AdminData{Form: form, Error: msg})
		default:
			ac.render(w, r, c, statusFor(err), views.AdminData{Form: form, Error: "Error al guardar el producto."})
		}
		return
	}

	name := saved.Nombre
	if name == "" {
		name = in.Nombre
	}
	c.Flash.Add(cart.LevelSuccess, fmt.Sprintf("¡Éxito! Producto %q %s.", name, verb))
	redirect(w, r, "/admin")
}

// DeleteProduct removes a product
func (ac *AdminController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	id, ok := productID(r)
	if !ok {
		c.Flash.Add(cart.LevelError, msgBadRequest)
		redirect(w, r, "/admin")
		return
	}

	if err := backendFor(ac.api, c).DeleteProduct(r.Context(), id); err != nil {
		ac.log.Warn("deleting product", zap.Int64("product", id), zap.Error(err))
		if apiclient.IsAuth(err) {
			rejectSession(w, r, c, msgAdminRejected)
			return
		}
		c.Flash.Add(cart.LevelError, "Error al eliminar el producto.")
		redirect(w, r, "/admin")
		return
	}
	c.Flash.Add(cart.LevelSuccess, "Producto eliminado con éxito.")
	redirect(w, r, "/admin")
}

// render loads the product list and shows the panel
func (ac *AdminController) render(w http.ResponseWriter, r *http.Request, c *session.Client, status int, data views.AdminData) {
	page, err := backendFor(ac.api, c).ListProducts(r.Context(), models.ProductQuery{Size: adminListSize})
	switch {
	case apiclient.IsAuth(err):
		rejectSession(w, r, c, msgAdminRejected)
		return
	case err != nil:
		ac.log.Warn("listing products for admin", zap.Error(err))
		if data.Error == "" {
			data.Error = "Error al cargar la lista de productos."
		}
		if status == http.StatusOK {
			status = http.StatusBadGateway
		}
	default:
		c.RememberProducts(page.Content)
		data.Products = page.Content
	}
	ac.views.Render(w, r, status, views.PageAdmin, "Administración", data)
}

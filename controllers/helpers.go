package controllers

import (
	"context"
	"net/http"
	"strconv"

	"coffeelink/apiclient"
	"coffeelink/cart"
	"coffeelink/middleware"
	"coffeelink/session"

	"github.com/gorilla/mux"
)

// Messages shared by several views.
const (
	msgBusy       = "Ya estamos procesando tu solicitud. Espera un momento."
	msgUnexpected = "Ocurrió un error inesperado."
	msgBadRequest = "Solicitud inválida."

	msgSessionRejected = "Error: Tu sesión es inválida o no tienes permisos. Por favor, vuelve a iniciar sesión."
	msgSessionLoading  = "Estamos cargando tu sesión. Intenta nuevamente."
)

// currentClient returns the client attached by middleware.ClientMiddleware.
func currentClient(w http.ResponseWriter, r *http.Request) (*session.Client, bool) {
	c, ok := middleware.ClientFrom(r.Context())
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
	return c, ok
}

// productID reads the {id} path variable.
func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// backendFor returns api authenticated as the client's session.
func backendFor(api *apiclient.Client, c *session.Client) *apiclient.Client {
	return api.WithToken(c.Session)
}

// rejectSession ends a session the backend refused and sends the visitor to
// the login page.
func rejectSession(w http.ResponseWriter, r *http.Request, c *session.Client, msg string) {
	c.Session.Logout(context.WithoutCancel(r.Context()))
	c.Flash.Add(cart.LevelError, msg)
	redirect(w, r, "/login")
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// statusFor is the page status used when a backend call failed.
func statusFor(err error) int {
	switch apiclient.KindOf(err) {
	case apiclient.KindValidation:
		return http.StatusBadRequest
	case apiclient.KindAuth:
		return http.StatusUnauthorized
	case apiclient.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

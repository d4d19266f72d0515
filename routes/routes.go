package routes

import (
	"net/http"

	"coffeelink/controllers"
	"coffeelink/middleware"
	"coffeelink/models"

	"github.com/gorilla/mux"
)

// Controllers groups the handlers the storefront serves.
type Controllers struct {
	Users   *controllers.UserController
	Catalog *controllers.CatalogController
	Orders  *controllers.OrderController
	Cart    *controllers.CartController
	Admin   *controllers.AdminController
}

// RegisterRoutes sets up all the routes for the application. client resolves
// the browser session; placeholder is shown on admin pages while that session
// is still being restored.
func RegisterRoutes(router *mux.Router, c Controllers, client mux.MiddlewareFunc, placeholder http.Handler) {
	// Public routes
	router.HandleFunc("/healthz", healthz).Methods("GET")

	// Client routes
	site := router.PathPrefix("/").Subrouter()
	site.Use(client)

	site.HandleFunc("/", c.Catalog.Catalog).Methods("GET")
	site.HandleFunc("/catalogo", c.Catalog.Catalog).Methods("GET")
	site.HandleFunc("/catalogo/{id:[0-9]+}/comprar", c.Orders.Purchase).Methods("POST")

	site.HandleFunc("/login", c.Users.LoginPage).Methods("GET")
	site.HandleFunc("/login", c.Users.Login).Methods("POST")
	site.HandleFunc("/register", c.Users.RegisterPage).Methods("GET")
	site.HandleFunc("/register", c.Users.Register).Methods("POST")
	site.HandleFunc("/logout", c.Users.Logout).Methods("POST")

	// Cart routes
	site.HandleFunc("/carrito", c.Cart.GetCart).Methods("GET")
	site.HandleFunc("/carrito/{id:[0-9]+}/agregar", c.Cart.AddToCart).Methods("POST")
	site.HandleFunc("/carrito/{id:[0-9]+}/cantidad", c.Cart.UpdateQuantity).Methods("POST")
	site.HandleFunc("/carrito/{id:[0-9]+}/eliminar", c.Cart.RemoveFromCart).Methods("POST")

	// Admin routes
	admin := site.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRole(models.RoleAdmin, placeholder))
	admin.HandleFunc("", c.Admin.Dashboard).Methods("GET")
	admin.HandleFunc("/productos", c.Admin.SaveProduct).Methods("POST")
	admin.HandleFunc("/productos/{id:[0-9]+}/editar", c.Admin.EditProduct).Methods("GET")
	admin.HandleFunc("/productos/{id:[0-9]+}/eliminar", c.Admin.DeleteProduct).Methods("POST")
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"coffeelink/apiclient"
	"coffeelink/cart"
	"coffeelink/models"
	"coffeelink/utils"
	"coffeelink/views"

	"go.uber.org/zap"
)

// UserController handles login, registration and logout
type UserController struct {
	api   *apiclient.Client
	views *views.Renderer
	log   *zap.Logger
}

// NewUserController creates a new UserController
func NewUserController(api *apiclient.Client, renderer *views.Renderer, log *zap.Logger) *UserController {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserController{api: api, views: renderer, log: log}
}

// LoginPage shows the login form
func (uc *UserController) LoginPage(w http.ResponseWriter, r *http.Request) {
	uc.views.Render(w, r, http.StatusOK, views.PageLogin, "Iniciar sesión", views.LoginData{})
}

// Login exchanges the credentials for a session. Admins land on the panel,
// everybody else on the catalog.
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		c.Flash.Add(cart.LevelError, msgBadRequest)
		uc.views.Render(w, r, http.StatusBadRequest, views.PageLogin, "Iniciar sesión", views.LoginData{})
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	data := views.LoginData{Email: email}

	release, ok := c.InFlight.TryAcquire("login")
	if !ok {
		c.Flash.Add(cart.LevelInfo, msgBusy)
		uc.views.Render(w, r, http.StatusTooManyRequests, views.PageLogin, "Iniciar sesión", data)
		return
	}
	defer release()

	resp, err := uc.api.Login(r.Context(), email, password)
	if err != nil {
		uc.log.Info("login failed", zap.String("email", email), zap.Error(err))
		msg := "Error: Credenciales inválidas"
		if apiclient.KindOf(err) == apiclient.KindServer {
			msg = "No pudimos contactar al servidor. Intenta nuevamente."
		}
		c.Flash.Add(cart.LevelError, msg)
		uc.views.Render(w, r, statusFor(err), views.PageLogin, "Iniciar sesión", data)
		return
	}

	if resp.Token == "" {
		uc.log.Warn("login succeeded without a token", zap.String("email", email))
		c.Flash.Add(cart.LevelError, "No pudimos contactar al servidor. Intenta nuevamente.")
		uc.views.Render(w, r, http.StatusBadGateway, views.PageLogin, "Iniciar sesión", data)
		return
	}

	user := models.UserIdentity{Email: email, Rol: resp.Rol}
	c.Session.Login(context.WithoutCancel(r.Context()), user, resp.Token)
	c.Flash.Add(cart.LevelSuccess, "¡Login exitoso!")

	if user.IsAdmin() {
		redirect(w, r, "/admin")
		return
	}
	redirect(w, r, "/catalogo")
}

// RegisterPage shows the registration form
func (uc *UserController) RegisterPage(w http.ResponseWriter, r *http.Request) {
	uc.views.Render(w, r, http.StatusOK, views.PageRegister, "Crear cuenta", views.RegisterData{})
}

// Register validates the form locally, then creates the account
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		c.Flash.Add(cart.LevelError, msgBadRequest)
		uc.views.Render(w, r, http.StatusBadRequest, views.PageRegister, "Crear cuenta", views.RegisterData{})
		return
	}
	req := models.RegisterRequest{
		Nombre:   strings.TrimSpace(r.PostFormValue("nombre")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	data := views.RegisterData{Nombre: req.Nombre, Email: req.Email}

	if err := utils.ValidateRegistration(req, r.PostFormValue("confirmar")); err != nil {
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			data.Field = verr.Field
			c.Flash.Add(cart.LevelError, verr.Message)
		}
		uc.views.Render(w, r, http.StatusUnprocessableEntity, views.PageRegister, "Crear cuenta", data)
		return
	}

	release, ok := c.InFlight.TryAcquire("register")
	if !ok {
		c.Flash.Add(cart.LevelInfo, msgBusy)
		uc.views.Render(w, r, http.StatusTooManyRequests, views.PageRegister, "Crear cuenta", data)
		return
	}
	defer release()

	if err := uc.api.Register(r.Context(), req); err != nil {
		uc.log.Info("registration failed", zap.String("email", req.Email), zap.Error(err))
		switch apiclient.KindOf(err) {
		case apiclient.KindConflict:
			msg := apiclient.MessageOf(err)
			if msg == "" {
				msg = "El email ya está registrado."
			}
			data.Field = "email"
			c.Flash.Add(cart.LevelError, msg)
		case apiclient.KindValidation:
			c.Flash.Add(cart.LevelError, "Datos inválidos. Revisa el formulario.")
		default:
			c.Flash.Add(cart.LevelError, msgUnexpected)
		}
		uc.views.Render(w, r, statusFor(err), views.PageRegister, "Crear cuenta", data)
		return
	}

	c.Flash.Add(cart.LevelSuccess, "¡Registro exitoso! Ahora puedes iniciar sesión.")
	redirect(w, r, "/login")
}

// Logout ends the session and empties the cart
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	c.Session.Logout(context.WithoutCancel(r.Context()))
	c.Flash.Add(cart.LevelInfo, "Sesión cerrada.")
	redirect(w, r, "/login")
}

package models

// Roles known to the storefront
const (
	RoleAdmin   = "admin"
	RoleCliente = "cliente"
)

// UserIdentity is the part of the user the storefront keeps in a session
type UserIdentity struct {
	Email string `json:"email"`
	Rol   string `json:"rol"`
}

// IsAdmin reports whether the user may open the administration panel
func (u UserIdentity) IsAdmin() bool {
	return u.Rol == RoleAdmin
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by the backend on a successful login
type LoginResponse struct {
	Token string `json:"token"`
	Rol   string `json:"rol"`
}

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

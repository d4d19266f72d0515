package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"coffeelink/models"

	"github.com/shopspring/decimal"
)

// ValidationError describes the first invalid field of a form
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// passwordSymbols are the symbols accepted by the password rules
const passwordSymbols = `!@#$%^&*()_+-=[]{};':"\|,./?`

// ValidateEmail checks the address has a local part, a domain and a dot
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Message: "Por favor, ingresa un email válido."}
	}
	return nil
}

// ValidatePassword enforces length, lower, upper, digit and symbol rules
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Field: "password", Message: "La contraseña debe tener al menos 8 caracteres."}
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	switch {
	case !lower:
		return &ValidationError{Field: "password", Message: "La contraseña debe tener al menos una minúscula."}
	case !upper:
		return &ValidationError{Field: "password", Message: "La contraseña debe tener al menos una mayúscula."}
	case !digit:
		return &ValidationError{Field: "password", Message: "La contraseña debe tener al menos un número."}
	case !symbol:
		return &ValidationError{Field: "password", Message: "La contraseña debe tener al menos un símbolo (ej. !@#$)."}
	}
	return nil
}

// ValidateRegistration checks a registration form, including the confirmation
func ValidateRegistration(req models.RegisterRequest, confirm string) error {
	if strings.TrimSpace(req.Nombre) == "" {
		return &ValidationError{Field: "nombre", Message: "El nombre es obligatorio."}
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	if req.Password != confirm {
		return &ValidationError{Field: "confirmar", Message: "Las contraseñas no coinciden."}
	}
	return nil
}

// ProductForm is the raw admin form, kept as typed so it can be shown back
type ProductForm struct {
	ID          string
	Nombre      string
	Descripcion string
	Precio      string
	Stock       string
	ImagenURL   string
}

// FormFromProduct fills a form for editing
func FormFromProduct(p models.Product) ProductForm {
	return ProductForm{
		ID:          strconv.FormatInt(p.ID, 10),
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Precio:      p.Precio.String(),
		Stock:       strconv.Itoa(p.Stock),
		ImagenURL:   p.ImagenURL,
	}
}

// ParseProductForm validates the form: name required, price a positive
// integer, stock a non-negative integer
func ParseProductForm(f ProductForm) (models.ProductInput, error) {
	nombre := strings.TrimSpace(f.Nombre)
	if nombre == "" {
		return models.ProductInput{}, &ValidationError{Field: "nombre", Message: "El nombre es obligatorio."}
	}
	precio, err := strconv.ParseInt(strings.TrimSpace(f.Precio), 10, 64)
	if err != nil || precio <= 0 {
		return models.ProductInput{}, &ValidationError{Field: "precio", Message: "El precio debe ser un entero mayor a 0."}
	}
	stock, err := strconv.Atoi(strings.TrimSpace(f.Stock))
	if err != nil || stock < 0 {
		return models.ProductInput{}, &ValidationError{Field: "stock", Message: "El stock debe ser un entero no negativo."}
	}
	return models.ProductInput{
		Nombre:      nombre,
		Descripcion: strings.TrimSpace(f.Descripcion),
		Precio:      decimal.NewFromInt(precio),
		Stock:       stock,
		ImagenURL:   strings.TrimSpace(f.ImagenURL),
	}, nil
}

// EditingID returns the id of the product being edited, zero for a new one
func (f ProductForm) EditingID() int64 {
	id, err := strconv.ParseInt(f.ID, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

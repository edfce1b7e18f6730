package http

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Nombres de campo según el tag json, para que los errores hablen el idioma del cliente.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON parsea el cuerpo y aplica las reglas declaradas en los tags validate.
func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return domain.NewValidationError("body", "cuerpo inválido")
	}
	return validateStruct(out)
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("body", err.Error())
	}
	fe := fieldErrs[0]
	return domain.NewValidationError(fieldPath(fe), validationMessage(fe))
}

// fieldPath quita el nombre del struct raíz: "CreateSaleRequest.items[0].quantity" -> "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "min":
		if fe.Kind() == reflect.String {
			return "debe tener al menos " + fe.Param() + " caracteres"
		}
		if fe.Kind() == reflect.Slice {
			return "debe tener al menos " + fe.Param() + " elemento(s)"
		}
		return "debe ser mayor o igual a " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "debe tener como máximo " + fe.Param() + " caracteres"
		}
		return "debe ser menor o igual a " + fe.Param()
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	default:
		return "valor inválido"
	}
}

// queryTime lee un parámetro de fecha (RFC3339 o YYYY-MM-DD). Con endOfDay, una fecha sin hora
// se interpreta como el inicio del día siguiente, para que el rango [from, to) la incluya.
func queryTime(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "fecha inválida, use RFC3339 o YYYY-MM-DD")
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

// page normaliza limit/offset como el resto de los listados.
func page(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	offset = c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

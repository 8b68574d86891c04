package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/apierror"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/middleware"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Field errors are keyed by the JSON (or query) name the client sent.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

func mensajeCampo(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo requerido"
	case "email":
		return "Email inválido"
	case "uuid":
		return "Identificador inválido"
	case "min":
		return fmt.Sprintf("Debe ser al menos %s", fe.Param())
	case "max":
		return fmt.Sprintf("No puede superar %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Debe ser mayor a %s", fe.Param())
	case "oneof":
		return "Valor inválido (opciones: " + fe.Param() + ")"
	case "numeric":
		return "Debe ser numérico"
	}
	return fe.Tag()
}

func responderValidacion(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = mensajeCampo(fe)
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails.
// The caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		responderValidacion(c, err)
		return false
	}
	return true
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, filter interface{}) bool {
	if err := c.ShouldBindQuery(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	if err := validate.Struct(filter); err != nil {
		responderValidacion(c, err)
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// responderError maps service errors to HTTP statuses. Anything unknown is
// logged and answered with a generic 500.
func responderError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		resp := apierror.NewValidation(ve.Fields)
		if errors.Is(err, service.ErrStockInsuficiente) {
			resp.WithDetail(service.ErrStockInsuficiente.Error())
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
	case errors.Is(err, service.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, apierror.New(service.ErrNoEncontrado.Error()))
	case errors.Is(err, service.ErrCategoriaEnUso), errors.Is(err, service.ErrConflicto):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, apierror.New("El registro ya existe"))
	case errors.Is(err, service.ErrStockInsuficiente):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCredenciales), errors.Is(err, service.ErrSesionInvalida):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	default:
		log.Error().Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}

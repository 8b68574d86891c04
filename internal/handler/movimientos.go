package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/middleware"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

type MovimientosHandler struct{ svc service.MovimientoService }

func NewMovimientosHandler(svc service.MovimientoService) *MovimientosHandler {
	return &MovimientosHandler{svc: svc}
}

// RegistrarEntrada godoc
// @Summary      Registrar entrada de stock
// @Tags         movimientos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.EntradaRequest true "Entrada"
// @Success      201 {object} normalizacion.Movimiento
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/movimientos/entradas [post]
func (h *MovimientosHandler) RegistrarEntrada(c *gin.Context) {
	var req dto.EntradaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarEntrada(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Historial de movimientos
// @Description  vista=agrupada devuelve las filas padre con sus detalles anidados; vista=plana la lista expandida.
// @Tags         movimientos
// @Produce      json
// @Security     BearerAuth
// @Param        tipo        query string false "entrada | salida"
// @Param        producto_id query string false "UUID del producto"
// @Param        vista       query string false "agrupada | plana"
// @Param        debug       query bool   false "Incluye la forma detectada (plana | anidada) y la fila original de cada movimiento"
// @Success      200 {object} dto.MovimientoListResponse
// @Router       /v1/movimientos [get]
func (h *MovimientosHandler) Listar(c *gin.Context) {
	var filter dto.MovimientoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Importar POST /v1/movimientos/importar
func (h *MovimientosHandler) Importar(c *gin.Context) {
	var req dto.ImportarMovimientosRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Importar(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Alertas GET /v1/inventario/alertas
func (h *MovimientosHandler) Alertas(c *gin.Context) {
	resp, err := h.svc.Alertas(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

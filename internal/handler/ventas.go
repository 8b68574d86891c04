package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/middleware"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

type VentasHandler struct{ svc service.VentaService }

func NewVentasHandler(svc service.VentaService) *VentasHandler { return &VentasHandler{svc: svc} }

// RegistrarVenta godoc
// @Summary      Registrar una nueva venta
// @Description  Crea la venta en una sola transacción: cabecera, detalles, descuento de stock y movimientos de salida.
// @Description  Las advertencias de stock bajo se devuelven en la respuesta.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarVentaRequest true "Detalle de la venta"
// @Success      201  {object} dto.VentaResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/ventas [post]
func (h *VentasHandler) RegistrarVenta(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarVenta(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar ventas
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        cliente query string false "UUID del cliente"
// @Param        desde   query string false "YYYY-MM-DD"
// @Param        hasta   query string false "YYYY-MM-DD"
// @Param        page    query int    false "Página"
// @Param        limit   query int    false "Tamaño de página"
// @Success      200 {object} dto.VentaListResponse
// @Router       /v1/ventas [get]
func (h *VentasHandler) Listar(c *gin.Context) {
	var filter dto.VentaFilter
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

// ObtenerPorID GET /v1/ventas/:id
func (h *VentasHandler) ObtenerPorID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Comprobante godoc
// @Summary      Comprobante PDF de la venta
// @Tags         ventas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200 {file} file
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ventas/{id}/comprobante [get]
func (h *VentasHandler) Comprobante(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	path, err := h.svc.Comprobante(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.FileAttachment(path, "comprobante-"+id.String()+".pdf")
}

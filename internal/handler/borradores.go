package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/middleware"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

// BorradoresHandler exposes the sale draft under /v1/ventas/borradores.
// Every mutation answers with the full draft so the client never keeps its
// own copy of the state.
type BorradoresHandler struct{ svc service.BorradorService }

func NewBorradoresHandler(svc service.BorradorService) *BorradoresHandler {
	return &BorradoresHandler{svc: svc}
}

func (h *BorradoresHandler) responder(c *gin.Context, resp *dto.BorradorResponse, err error) {
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Crear POST /v1/ventas/borradores
func (h *BorradoresHandler) Crear(c *gin.Context) {
	resp, err := h.svc.Crear(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener GET /v1/ventas/borradores/:id
func (h *BorradoresHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.Obtener(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	h.responder(c, resp, err)
}

// Descartar DELETE /v1/ventas/borradores/:id
func (h *BorradoresHandler) Descartar(c *gin.Context) {
	if err := h.svc.Descartar(c.Request.Context(), middleware.GetActor(c), c.Param("id")); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reset POST /v1/ventas/borradores/:id/reset
func (h *BorradoresHandler) Reset(c *gin.Context) {
	resp, err := h.svc.Reset(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	h.responder(c, resp, err)
}

// SeleccionarCliente PUT /v1/ventas/borradores/:id/cliente
func (h *BorradoresHandler) SeleccionarCliente(c *gin.Context) {
	var req dto.SeleccionarClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SeleccionarCliente(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	h.responder(c, resp, err)
}

// AgregarFilaVacia POST /v1/ventas/borradores/:id/filas
func (h *BorradoresHandler) AgregarFilaVacia(c *gin.Context) {
	resp, err := h.svc.AgregarFilaVacia(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	h.responder(c, resp, err)
}

// AbrirSelector POST /v1/ventas/borradores/:id/selector
func (h *BorradoresHandler) AbrirSelector(c *gin.Context) {
	var req dto.AbrirSelectorRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AbrirSelector(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	h.responder(c, resp, err)
}

// CerrarSelector DELETE /v1/ventas/borradores/:id/selector
func (h *BorradoresHandler) CerrarSelector(c *gin.Context) {
	resp, err := h.svc.CerrarSelector(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	h.responder(c, resp, err)
}

// Disponibles GET /v1/ventas/borradores/:id/disponibles?q=
func (h *BorradoresHandler) Disponibles(c *gin.Context) {
	resp, err := h.svc.Disponibles(c.Request.Context(), middleware.GetActor(c), c.Param("id"), c.Query("q"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Preparar POST /v1/ventas/borradores/:id/selector/preparar
func (h *BorradoresHandler) Preparar(c *gin.Context) {
	var req dto.PrepararLineaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Preparar(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	h.responder(c, resp, err)
}

// AgregarATabla POST /v1/ventas/borradores/:id/selector/agregar
func (h *BorradoresHandler) AgregarATabla(c *gin.Context) {
	resp, err := h.svc.AgregarATabla(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	h.responder(c, resp, err)
}

// ConfirmarSeleccion POST /v1/ventas/borradores/:id/selector/confirmar
func (h *BorradoresHandler) ConfirmarSeleccion(c *gin.Context) {
	resp, err := h.svc.ConfirmarSeleccion(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	h.responder(c, resp, err)
}

// CambiarCantidad PUT /v1/ventas/borradores/:id/lineas/:clave
func (h *BorradoresHandler) CambiarCantidad(c *gin.Context) {
	var req dto.CambiarCantidadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarCantidad(c.Request.Context(), middleware.GetActor(c), c.Param("id"), c.Param("clave"), req)
	h.responder(c, resp, err)
}

// Quitar DELETE /v1/ventas/borradores/:id/lineas/:clave
func (h *BorradoresHandler) Quitar(c *gin.Context) {
	resp, err := h.svc.Quitar(c.Request.Context(), middleware.GetActor(c), c.Param("id"), c.Param("clave"))
	h.responder(c, resp, err)
}

// Notas PUT /v1/ventas/borradores/:id/notas
func (h *BorradoresHandler) Notas(c *gin.Context) {
	var req dto.NotasBorradorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Notas(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	h.responder(c, resp, err)
}

// Confirmar godoc
// @Summary      Confirmar borrador
// @Description  Registra la venta del borrador. Si falla, el borrador queda intacto.
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID del borrador"
// @Success      201 {object} dto.VentaResponse
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/ventas/borradores/{id}/confirmar [post]
func (h *BorradoresHandler) Confirmar(c *gin.Context) {
	resp, err := h.svc.Confirmar(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

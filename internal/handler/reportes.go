package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

type ReportesHandler struct {
	reportes  service.ReporteService
	busqueda  service.BusquedaService
	auditoria service.AuditoriaService
}

func NewReportesHandler(reportes service.ReporteService, busqueda service.BusquedaService, auditoria service.AuditoriaService) *ReportesHandler {
	return &ReportesHandler{reportes: reportes, busqueda: busqueda, auditoria: auditoria}
}

// Dashboard godoc
// @Summary      Indicadores del tablero
// @Tags         reportes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.DashboardResponse
// @Router       /v1/reportes/dashboard [get]
func (h *ReportesHandler) Dashboard(c *gin.Context) {
	resp, err := h.reportes.Dashboard(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Conteos GET /v1/reportes/conteos
func (h *ReportesHandler) Conteos(c *gin.Context) {
	resp, err := h.reportes.Conteos(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Buscar godoc
// @Summary      Búsqueda avanzada
// @Tags         reportes
// @Produce      json
// @Security     BearerAuth
// @Param        q            query string false "Texto"
// @Param        entidad      query string false "productos | clientes | proveedores | ventas"
// @Param        categoria_id query string false "UUID de categoría"
// @Param        estado_stock query string false "bajo | normal | exceso"
// @Param        precio_min   query number false "Precio mínimo"
// @Param        precio_max   query number false "Precio máximo"
// @Param        desde        query string false "YYYY-MM-DD"
// @Param        hasta        query string false "YYYY-MM-DD"
// @Success      200 {object} dto.BusquedaResponse
// @Router       /v1/busqueda [get]
func (h *ReportesHandler) Buscar(c *gin.Context) {
	var filter dto.BusquedaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.busqueda.Buscar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Auditoria GET /v1/auditoria
func (h *ReportesHandler) Auditoria(c *gin.Context) {
	var filter dto.AuditoriaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.auditoria.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

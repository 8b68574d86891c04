package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/middleware"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

type CategoriasHandler struct{ svc service.CategoriaService }

func NewCategoriasHandler(svc service.CategoriaService) *CategoriasHandler {
	return &CategoriasHandler{svc: svc}
}

// Crear POST /v1/categorias
func (h *CategoriasHandler) Crear(c *gin.Context) {
	var req dto.CategoriaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar GET /v1/categorias
func (h *CategoriasHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar PUT /v1/categorias/:id
func (h *CategoriasHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.CategoriaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar categoría
// @Description  Rechaza con 409 mientras la categoría tenga productos asociados.
// @Tags         categorias
// @Security     BearerAuth
// @Param        id path string true "UUID de la categoría"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/categorias/{id} [delete]
func (h *CategoriasHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/apierror"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/middleware"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Login de usuario
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credenciales"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary Cierra la sesion actual
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.svc.Logout(c.Request.Context(), claims.ID); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me godoc
// @Summary Usuario de la sesion
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SesionResponse
// @Router /v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	id, err := uuid.Parse(middleware.GetClaims(c).UsuarioID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
		return
	}
	resp, err := h.svc.Me(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarPassword godoc
// @Summary Cambia la contraseña propia
// @Tags auth
// @Accept json
// @Security BearerAuth
// @Param body body dto.CambiarPasswordRequest true "Contraseñas"
// @Success 204
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/auth/password [put]
func (h *AuthHandler) CambiarPassword(c *gin.Context) {
	var req dto.CambiarPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.CambiarPassword(c.Request.Context(), middleware.GetActor(c), req); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EstadoSetup GET /v1/setup
func (h *AuthHandler) EstadoSetup(c *gin.Context) {
	resp, err := h.svc.EstadoSetup(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Setup godoc
// @Summary Crea el primer administrador
// @Description Solo disponible mientras no existan usuarios.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.SetupRequest true "Administrador inicial"
// @Success 201 {object} dto.UsuarioResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/setup [post]
func (h *AuthHandler) Setup(c *gin.Context) {
	var req dto.SetupRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Setup(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ── Usuarios Handler ─────────────────────────────────────────────────────────

type UsuariosHandler struct{ svc service.UsuarioService }

func NewUsuariosHandler(svc service.UsuarioService) *UsuariosHandler {
	return &UsuariosHandler{svc: svc}
}

// Crear POST /v1/usuarios
func (h *UsuariosHandler) Crear(c *gin.Context) {
	var req dto.CrearUsuarioRequest
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

// Listar GET /v1/usuarios
func (h *UsuariosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorID GET /v1/usuarios/:id
func (h *UsuariosHandler) ObtenerPorID(c *gin.Context) {
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

// Actualizar PUT /v1/usuarios/:id
func (h *UsuariosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.ActualizarUsuarioRequest
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

// Eliminar DELETE /v1/usuarios/:id
func (h *UsuariosHandler) Eliminar(c *gin.Context) {
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

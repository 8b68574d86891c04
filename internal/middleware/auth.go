package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/apierror"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

const (
	ClaimsKey = "claims"
)

// JWTAuth validates the Bearer token on every protected route. A token whose
// session was revoked by logout is rejected like an expired one.
func JWTAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		claims, err := auth.ValidarToken(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			msg := "Token invalido o expirado"
			if errors.Is(err, service.ErrSesionInvalida) {
				msg = service.ErrSesionInvalida.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(msg))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequirePermiso rejects requests whose role fails pred. Every rejection is
// recorded as an access_request audit entry; the check runs on each request.
func RequirePermiso(pred func(rol string) bool, auditoria service.AuditoriaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}
		if !pred(claims.Rol) {
			if auditoria != nil {
				ruta := c.FullPath()
				if ruta == "" {
					ruta = c.Request.URL.Path
				}
				auditoria.Registrar(c.Request.Context(), claims.Actor(), "access_request", "ruta", ruta,
					fmt.Sprintf("Acceso denegado: %s %s (rol %s)", c.Request.Method, ruta, claims.Rol))
			}
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims returns the typed claims set by JWTAuth, or nil on public routes.
func GetClaims(c *gin.Context) *service.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}

// GetActor is the identity services run as. Public routes get the zero Actor.
func GetActor(c *gin.Context) service.Actor {
	if claims := GetClaims(c); claims != nil {
		return claims.Actor()
	}
	return service.Actor{}
}

// TokenDesdeQuery lets EventSource clients, which cannot set headers, pass the
// access token as ?token=. Only mount it on streaming routes.
func TokenDesdeQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if t := c.Query("token"); t != "" {
				c.Request.Header.Set("Authorization", "Bearer "+t)
			}
		}
		c.Next()
	}
}

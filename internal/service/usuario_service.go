package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

const bcryptCost = 12

type UsuarioService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	Listar(ctx context.Context) ([]dto.UsuarioResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error
}

type usuarioService struct {
	repo      repository.UsuarioRepository
	auditoria AuditoriaService
	cache     cache.Store
}

func NewUsuarioService(repo repository.UsuarioRepository, auditoria AuditoriaService, store cache.Store) UsuarioService {
	return &usuarioService{repo: repo, auditoria: auditoria, cache: store}
}

func (s *usuarioService) Crear(ctx context.Context, actor Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	u, err := crearUsuario(ctx, s.repo, req)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidar(ctx, cache.ColUsuarios)
	auditar(ctx, s.auditoria, actor, model.AccionCrear, "usuarios", u.ID.String(),
		fmt.Sprintf("Usuario %s (%s)", u.Username, u.Rol))
	resp := toUsuarioResponse(u)
	return &resp, nil
}

// crearUsuario is shared with the first-run setup.
func crearUsuario(ctx context.Context, repo repository.UsuarioRepository, req dto.CrearUsuarioRequest) (*model.Usuario, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := emailLibre(ctx, repo, email, uuid.Nil); err != nil {
		return nil, err
	}
	username, err := derivarUsername(ctx, repo, email)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.Usuario{
		Username:       username,
		NombreCompleto: strings.TrimSpace(req.NombreCompleto),
		Email:          email,
		PasswordHash:   string(hash),
		Rol:            req.Rol,
	}
	if err := repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *usuarioService) Listar(ctx context.Context) ([]dto.UsuarioResponse, error) {
	return cache.Leer(ctx, s.cache, cache.ColUsuarios, "lista", func() ([]dto.UsuarioResponse, error) {
		users, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]dto.UsuarioResponse, len(users))
		for i := range users {
			resp[i] = toUsuarioResponse(&users[i])
		}
		return resp, nil
	})
}

func (s *usuarioService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Usuario no encontrado")
	}
	resp := toUsuarioResponse(u)
	return &resp, nil
}

func (s *usuarioService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Usuario no encontrado")
	}
	antes := toUsuarioResponse(u)

	if req.NombreCompleto != nil {
		u.NombreCompleto = strings.TrimSpace(*req.NombreCompleto)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != u.Email {
			if err := emailLibre(ctx, s.repo, email, u.ID); err != nil {
				return nil, err
			}
			if localPart(email) != localPart(u.Email) {
				if u.Username, err = derivarUsername(ctx, s.repo, email); err != nil {
					return nil, err
				}
			}
			u.Email = email
		}
	}
	if req.Rol != nil {
		u.Rol = *req.Rol
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.cache.Invalidar(ctx, cache.ColUsuarios)

	despues := toUsuarioResponse(u)
	auditar(ctx, s.auditoria, actor, model.AccionEditar, "usuarios", u.ID.String(),
		ConCambios("Usuario "+u.Username, antes, despues))
	return &despues, nil
}

func (s *usuarioService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.ID == id {
		return conMensaje(ErrConflicto, "No puede eliminar su propio usuario")
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err, "Usuario no encontrado")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidar(ctx, cache.ColUsuarios)
	auditar(ctx, s.auditoria, actor, model.AccionEliminar, "usuarios", id.String(), "Usuario "+u.Username)
	return nil
}

func emailLibre(ctx context.Context, repo repository.UsuarioRepository, email string, propio uuid.UUID) error {
	existente, err := repo.FindByLogin(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case existente.ID != propio:
		return &ValidationError{Fields: map[string]string{"email": "El email ya está registrado"}, Causa: ErrConflicto}
	}
	return nil
}

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// derivarUsername builds the username from the email local part, keeping
// [a-z0-9._-] and adding a numeric suffix on collision.
func derivarUsername(ctx context.Context, repo repository.UsuarioRepository, email string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(localPart(email)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "usuario"
	}
	candidato := base
	for i := 2; i <= 100; i++ {
		existe, err := repo.ExistsUsername(ctx, candidato)
		if err != nil {
			return "", err
		}
		if !existe {
			return candidato, nil
		}
		candidato = fmt.Sprintf("%s%d", base, i)
	}
	return "", conMensaje(ErrConflicto, "No se pudo generar un nombre de usuario para %s", email)
}

func toUsuarioResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:             u.ID.String(),
		Username:       u.Username,
		NombreCompleto: u.NombreCompleto,
		Email:          u.Email,
		Rol:            u.Rol,
		CreatedAt:      u.CreatedAt,
	}
}

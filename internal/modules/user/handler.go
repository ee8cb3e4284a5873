package user

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/storynest/core/internal/middleware"
	"github.com/storynest/core/internal/models"
	"github.com/storynest/core/internal/pkg/pagination"
	"github.com/storynest/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the admin user directory under /auth/users.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/auth/users", authMW)

	g.GET("", middleware.Authorize(models.RoleAdmin), h.list)
	g.PUT("/:id/promote", middleware.Authorize(), h.promote)
	g.PUT("/:id/demote", middleware.Authorize(), h.demote)
	g.DELETE("/:id", middleware.Authorize(models.RoleAdmin), h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	users, pag, err := h.svc.List(q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, len(users), pag, users)
}

func (h *Handler) promote(c *gin.Context) {
	u, err := h.svc.Promote(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) demote(c *gin.Context) {
	u, err := h.svc.Demote(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), middleware.CurrentRole(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrSuperAdminImmutable), errors.Is(err, ErrAdminDeletesAdmin):
		response.Forbidden(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

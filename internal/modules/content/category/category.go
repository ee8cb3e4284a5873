package category

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/storynest/core/internal/database"
	"github.com/storynest/core/internal/middleware"
	"github.com/storynest/core/internal/models"
	"github.com/storynest/core/internal/pkg/response"
	"github.com/storynest/core/internal/pkg/slugify"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("Category not found")
	// ErrInUse blocks deletion while stories still reference the category.
	ErrInUse = errors.New("Cannot delete a category that still has stories")
)

type CategoryDTO struct {
	Name string `json:"name" binding:"required,min=2,max=50"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// List returns every category sorted by name.
func (s *Service) List() ([]models.CategoryModel, error) {
	var categories []models.CategoryModel
	return categories, s.db.Order("name").Find(&categories).Error
}

// Get loads a category by id or slug.
func (s *Service) Get(idOrSlug string) (*models.CategoryModel, error) {
	var cat models.CategoryModel
	err := s.db.Where("id = ? OR slug = ?", idOrSlug, idOrSlug).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cat, nil
}

func (s *Service) Create(dto *CategoryDTO) (*models.CategoryModel, error) {
	slug, err := slugify.Unique(s.db, "categories", dto.Name, "")
	if err != nil {
		return nil, err
	}
	cat := models.CategoryModel{Name: dto.Name, Slug: slug}
	return &cat, s.db.Create(&cat).Error
}

// Update renames a category. The slug follows the new name, with the usual
// fallback and collision handling.
func (s *Service) Update(id string, dto *CategoryDTO) (*models.CategoryModel, error) {
	cat, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	slug, err := slugify.Unique(s.db, "categories", dto.Name, cat.ID)
	if err != nil {
		return nil, err
	}
	err = s.db.Model(cat).Updates(map[string]interface{}{
		"name": dto.Name,
		"slug": slug,
	}).Error
	if err != nil {
		return nil, err
	}
	cat.Name = dto.Name
	cat.Slug = slug
	return cat, nil
}

// Delete removes a category unless stories still reference it.
func (s *Service) Delete(id string) error {
	cat, err := s.Get(id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.StoryModel{}).Where("category_id = ?", cat.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrInUse
	}
	return s.db.Delete(cat).Error
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/categories")

	g.GET("", h.list)
	g.GET("/:id", h.get)

	admin := g.Group("", authMW, middleware.Authorize())
	admin.POST("", h.create)
	admin.PUT("/:id", h.update)
	admin.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	categories, err := h.svc.List()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OKCount(c, len(categories), categories)
}

func (h *Handler) get(c *gin.Context) {
	cat, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, cat)
}

func (h *Handler) create(c *gin.Context) {
	var dto CategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cat, err := h.svc.Create(&dto)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, cat)
}

func (h *Handler) update(c *gin.Context) {
	var dto CategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cat, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, cat)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrInUse):
		response.BadRequest(c, err.Error())
	case database.IsDuplicateKey(err):
		response.BadRequest(c, "Duplicate field value")
	default:
		response.InternalError(c, err)
	}
}

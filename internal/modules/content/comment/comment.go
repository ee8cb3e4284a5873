package comment

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/storynest/core/internal/middleware"
	"github.com/storynest/core/internal/models"
	"github.com/storynest/core/internal/modules/content/story"
	"github.com/storynest/core/internal/pkg/response"
	"gorm.io/gorm"
)

var ErrStoryNotFound = errors.New("Story not found")

type CreateCommentDTO struct {
	Text   string `json:"text"   binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
}

type Service struct {
	db      *gorm.DB
	stories *story.Service
}

func NewService(db *gorm.DB, stories *story.Service) *Service {
	return &Service{db: db, stories: stories}
}

// ListForStory returns a story's comments, newest first, with the author
// populated.
func (s *Service) ListForStory(storyID string) ([]models.CommentModel, error) {
	var comments []models.CommentModel
	err := s.db.Preload("Author").
		Where("story_id = ?", storyID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

// Add appends a comment and kicks off the rating aggregation for the story.
func (s *Service) Add(storyID, authorID string, dto *CreateCommentDTO) (*models.CommentModel, error) {
	var count int64
	if err := s.db.Model(&models.StoryModel{}).Where("id = ?", storyID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrStoryNotFound
	}

	cm := models.CommentModel{
		Text:     dto.Text,
		Rating:   dto.Rating,
		AuthorID: authorID,
		StoryID:  storyID,
	}
	if err := s.db.Create(&cm).Error; err != nil {
		return nil, err
	}

	s.stories.RecalculateAvgRatingAsync(storyID)
	return &cm, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the nested comment routes under /stories/:id.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/stories/:id/comments")

	g.GET("", h.list)
	g.POST("", authMW, h.create)
}

func (h *Handler) list(c *gin.Context) {
	comments, err := h.svc.ListForStory(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OKCount(c, len(comments), comments)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cm, err := h.svc.Add(c.Param("id"), middleware.CurrentUserID(c), &dto)
	if err != nil {
		if errors.Is(err, ErrStoryNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, cm)
}

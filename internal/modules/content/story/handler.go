package story

import (
	"errors"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/storynest/core/internal/database"
	"github.com/storynest/core/internal/middleware"
	"github.com/storynest/core/internal/models"
	"github.com/storynest/core/internal/modules/storage/image"
	"github.com/storynest/core/internal/pkg/pagination"
	"github.com/storynest/core/internal/pkg/response"
)

type Handler struct {
	svc    *Service
	images *image.Service
}

func NewHandler(svc *Service, images *image.Service) *Handler {
	return &Handler{svc: svc, images: images}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/stories")

	g.GET("", h.list)
	g.GET("/me", authMW, h.mine)
	g.GET("/:id", h.get)

	g.POST("", authMW, middleware.Authorize(models.RoleUser), h.create)
	g.PUT("/:id", authMW, h.update)
	g.DELETE("/:id", authMW, h.delete)
	g.PUT("/:id/status", authMW, middleware.Authorize(models.RoleAdmin), h.updateStatus)
}

func (h *Handler) list(c *gin.Context) {
	opts := ListOptions{
		Status:   c.Query("status"),
		Search:   c.Query("q"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Sort:     c.Query("sort"),
		Fields:   c.Query("fields"),
	}
	q := pagination.FromContext(c)

	stories, pag, err := h.svc.List(opts, middleware.IsAdmin(c), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, len(stories), pag, stories)
}

func (h *Handler) mine(c *gin.Context) {
	stories, err := h.svc.Mine(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OKCount(c, len(stories), stories)
}

func (h *Handler) get(c *gin.Context) {
	st, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	if !CanView(st, middleware.CurrentUserID(c), middleware.IsAdmin(c)) {
		response.NotFound(c, ErrNotFound.Error())
		return
	}

	h.svc.IncrementViews(st.ID)
	response.OK(c, st)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateStoryDTO
	if err := c.ShouldBind(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	coverURL, coverKey, err := h.uploadCover(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	st, err := h.svc.Create(middleware.CurrentUserID(c), &dto, coverURL, coverKey)
	if err != nil {
		h.images.DeleteAsync(coverKey)
		h.writeError(c, err)
		return
	}
	response.Created(c, st)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateStoryDTO
	if err := c.ShouldBind(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	coverURL, coverKey, err := h.uploadCover(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	st, oldCoverKey, err := h.svc.Update(c.Param("id"), middleware.CurrentUserID(c), &dto, coverURL, coverKey)
	if err != nil {
		h.images.DeleteAsync(coverKey)
		h.writeError(c, err)
		return
	}
	h.images.DeleteAsync(oldCoverKey)

	response.OK(c, st)
}

func (h *Handler) delete(c *gin.Context) {
	coverKey, err := h.svc.Delete(c.Param("id"), middleware.CurrentUserID(c), middleware.IsAdmin(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.images.DeleteAsync(coverKey)

	response.OK(c, gin.H{})
}

func (h *Handler) updateStatus(c *gin.Context) {
	var dto UpdateStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Invalid status value")
		return
	}
	status := models.StoryStatus(dto.Status)
	if !status.Valid() {
		response.BadRequest(c, "Invalid status value")
		return
	}

	st, err := h.svc.UpdateStatus(c.Param("id"), status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, st)
}

// uploadCover stores an optional multipart coverImage. No file is not an
// error; a bad upload is.
func (h *Handler) uploadCover(c *gin.Context) (url, key string, err error) {
	file, err := c.FormFile("coverImage")
	if err != nil {
		return "", "", nil
	}
	if h.images == nil {
		return "", "", errors.New("Image uploads are not available")
	}
	if file.Size > image.MaxUploadBytes {
		return "", "", errors.New("Image too large")
	}
	contentType := file.Header.Get("Content-Type")
	if !image.IsImageContentType(contentType) {
		return "", "", errors.New("Unsupported image type")
	}

	var src multipart.File
	src, err = file.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	obj, err := h.images.Upload(c.Request.Context(), image.FolderCovers, file.Filename, contentType, src)
	if err != nil {
		return "", "", err
	}
	return obj.URL, obj.Key, nil
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotAuthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrInvalidCategory):
		response.BadRequest(c, err.Error())
	case database.IsDuplicateKey(err):
		response.BadRequest(c, "Duplicate field value")
	default:
		response.InternalError(c, err)
	}
}

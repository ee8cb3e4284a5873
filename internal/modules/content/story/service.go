package story

import (
	"errors"
	"math"
	"strings"

	"github.com/storynest/core/internal/models"
	"github.com/storynest/core/internal/pkg/pagination"
	"github.com/storynest/core/internal/pkg/response"
	"github.com/storynest/core/internal/pkg/slugify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("Story not found")
	ErrNotOwner        = errors.New("User not authorized")
	ErrNotAuthorized   = errors.New("Not authorized")
	ErrInvalidCategory = errors.New("Invalid category ID")
)

const wordsPerMinute = 200

// sortColumns whitelists the fields clients may sort by, mapped to columns.
var sortColumns = map[string]string{
	"createdAt":    "created_at",
	"created_at":   "created_at",
	"updatedAt":    "updated_at",
	"updated_at":   "updated_at",
	"title":        "title",
	"views":        "views",
	"avgRating":    "avg_rating",
	"avg_rating":   "avg_rating",
	"readingTime":  "reading_time",
	"reading_time": "reading_time",
	"commentCount": "comment_count",
}

// selectColumns whitelists the fields clients may project.
var selectColumns = map[string]string{
	"title":        "title",
	"content":      "content",
	"slug":         "slug",
	"tags":         "tags",
	"status":       "status",
	"coverImage":   "cover_image",
	"readingTime":  "reading_time",
	"avgRating":    "avg_rating",
	"views":        "views",
	"commentCount": "comment_count",
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
}

// ListOptions are the parsed query filters for the public listing.
type ListOptions struct {
	// Status filters by moderation state; only honored for admin callers.
	Status string
	// Search matches title or content.
	Search   string
	Category string
	Tag      string
	Sort     string
	Fields   string
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// List returns the filtered, sorted, paginated story listing. Non-admin
// callers only ever see approved stories.
func (s *Service) List(opts ListOptions, isAdmin bool, q pagination.Query) ([]models.StoryModel, response.Pagination, error) {
	tx := s.db.Model(&models.StoryModel{}).Preload("Author").Preload("Category")

	switch {
	case isAdmin && opts.Status != "":
		tx = tx.Where("status = ?", opts.Status)
	case isAdmin:
		// Admins see every status when no filter is given.
	default:
		tx = tx.Where("status = ?", models.StoryApproved)
	}

	if opts.Search != "" {
		pattern := "%" + opts.Search + "%"
		tx = tx.Where("title LIKE ? OR content LIKE ?", pattern, pattern)
	}
	if opts.Category != "" {
		sub := s.db.Model(&models.CategoryModel{}).Select("id").
			Where("slug = ? OR id = ?", opts.Category, opts.Category)
		tx = tx.Where("category_id IN (?)", sub)
	}
	if opts.Tag != "" {
		// Tags are stored as a JSON array of strings.
		tx = tx.Where("tags LIKE ?", "%\""+opts.Tag+"\"%")
	}
	if projection := buildSelect(opts.Fields); projection != nil {
		tx = tx.Select(projection)
	}
	tx = tx.Order(buildOrder(opts.Sort))

	var stories []models.StoryModel
	pag, err := pagination.Paginate(tx, q, &stories)
	return stories, pag, err
}

// Mine returns every story authored by the given user, all statuses.
func (s *Service) Mine(authorID string) ([]models.StoryModel, error) {
	var stories []models.StoryModel
	err := s.db.Preload("Category").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&stories).Error
	return stories, err
}

// Get loads a story by id or slug with author and category populated. It does
// not apply visibility rules; callers decide with CanView.
func (s *Service) Get(idOrSlug string) (*models.StoryModel, error) {
	var st models.StoryModel
	err := s.db.Preload("Author").Preload("Category").
		Where("id = ? OR slug = ?", idOrSlug, idOrSlug).
		First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// CanView reports whether a caller may see a story: approved stories are
// public, everything else is visible only to the author or an admin.
func CanView(st *models.StoryModel, viewerID string, isAdmin bool) bool {
	if st.Status == models.StoryApproved {
		return true
	}
	if isAdmin {
		return true
	}
	return viewerID != "" && st.AuthorID == viewerID
}

// IncrementViews bumps the view counter without touching updated_at.
// Fire-and-forget; a lost increment is acceptable.
func (s *Service) IncrementViews(id string) {
	go func() {
		err := s.db.Model(&models.StoryModel{}).Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + 1")).Error
		if err != nil {
			s.log.Warn("view increment failed", zap.String("story", id), zap.Error(err))
		}
	}()
}

type CreateStoryDTO struct {
	Title    string   `form:"title"    binding:"required,max=100"`
	Content  string   `form:"content"  binding:"required"`
	Category string   `form:"category" binding:"required"`
	Tags     []string `form:"tags"`
}

type UpdateStoryDTO struct {
	Title    *string  `form:"title"    binding:"omitempty,max=100"`
	Content  *string  `form:"content"`
	Category *string  `form:"category"`
	Tags     []string `form:"tags"`
}

type UpdateStatusDTO struct {
	Status string `json:"status" binding:"required"`
}

// Create stores a new pending story. coverURL/coverKey are empty when the
// author did not upload a cover.
func (s *Service) Create(authorID string, dto *CreateStoryDTO, coverURL, coverKey string) (*models.StoryModel, error) {
	categoryID, err := s.resolveCategory(dto.Category)
	if err != nil {
		return nil, err
	}

	slug, err := slugify.Unique(s.db, "stories", dto.Title, "")
	if err != nil {
		return nil, err
	}

	st := models.StoryModel{
		Title:       dto.Title,
		Content:     dto.Content,
		Slug:        slug,
		AuthorID:    authorID,
		CategoryID:  categoryID,
		Tags:        normalizeTags(dto.Tags),
		Status:      models.StoryPending,
		CoverImage:  models.DefaultCoverImage,
		ReadingTime: readingTime(dto.Content),
	}
	if coverURL != "" {
		st.CoverImage = coverURL
		st.CoverImageKey = coverKey
	}
	return &st, s.db.Create(&st).Error
}

// Update patches a story. Only the author may edit; any edit sends the story
// back to pending review. The slug never changes. Returns the key of a
// replaced cover so the caller can release it.
func (s *Service) Update(id, callerID string, dto *UpdateStoryDTO, coverURL, coverKey string) (*models.StoryModel, string, error) {
	st, err := s.Get(id)
	if err != nil {
		return nil, "", err
	}
	if st.AuthorID != callerID {
		return nil, "", ErrNotOwner
	}

	updates := map[string]interface{}{
		"status": models.StoryPending,
	}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Content != nil {
		updates["content"] = *dto.Content
		updates["reading_time"] = readingTime(*dto.Content)
	}
	if dto.Category != nil {
		categoryID, err := s.resolveCategory(*dto.Category)
		if err != nil {
			return nil, "", err
		}
		updates["category_id"] = categoryID
	}
	if dto.Tags != nil {
		updates["tags"] = normalizeTags(dto.Tags)
	}

	var oldCoverKey string
	if coverURL != "" {
		oldCoverKey = st.CoverImageKey
		updates["cover_image"] = coverURL
		updates["cover_image_key"] = coverKey
	}

	if err := s.db.Model(st).Updates(updates).Error; err != nil {
		return nil, "", err
	}

	updated, err := s.Get(st.ID)
	if err != nil {
		return nil, "", err
	}
	return updated, oldCoverKey, nil
}

// Delete removes a story and its comments. Allowed for the author or an
// admin. Returns the cover key so the caller can release the object.
func (s *Service) Delete(id, callerID string, isAdmin bool) (string, error) {
	st, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if st.AuthorID != callerID && !isAdmin {
		return "", ErrNotAuthorized
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id = ?", st.ID).Delete(&models.CommentModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(st).Error
	})
	if err != nil {
		return "", err
	}
	return st.CoverImageKey, nil
}

// UpdateStatus is the admin moderation transition.
func (s *Service) UpdateStatus(id string, status models.StoryStatus) (*models.StoryModel, error) {
	st, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(st).Update("status", status).Error; err != nil {
		return nil, err
	}
	st.Status = status
	return st, nil
}

// RecalculateAvgRating recomputes a story's average rating from its comments,
// rounded to one decimal, 0 when no comments exist. The comment counter is
// refreshed in the same pass.
func (s *Service) RecalculateAvgRating(storyID string) error {
	var stats struct {
		Avg   float64
		Count int64
	}
	err := s.db.Model(&models.CommentModel{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("story_id = ?", storyID).
		Scan(&stats).Error
	if err != nil {
		return err
	}

	rounded := math.Round(stats.Avg*10) / 10
	return s.db.Model(&models.StoryModel{}).Where("id = ?", storyID).
		UpdateColumns(map[string]interface{}{
			"avg_rating":    rounded,
			"comment_count": stats.Count,
		}).Error
}

// RecalculateAvgRatingAsync runs the aggregator in the background. Last
// writer wins under concurrent comments, which converges to the right value.
func (s *Service) RecalculateAvgRatingAsync(storyID string) {
	go func() {
		if err := s.RecalculateAvgRating(storyID); err != nil {
			s.log.Error("rating recompute failed", zap.String("story", storyID), zap.Error(err))
		}
	}()
}

func (s *Service) resolveCategory(idOrSlug string) (string, error) {
	var cat models.CategoryModel
	err := s.db.Select("id").Where("id = ? OR slug = ?", idOrSlug, idOrSlug).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCategory
		}
		return "", err
	}
	return cat.ID, nil
}

func readingTime(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

func normalizeTags(tags []string) models.StringArray {
	out := make(models.StringArray, 0, len(tags))
	for _, t := range tags {
		if v := strings.TrimSpace(t); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func buildOrder(sort string) string {
	if sort == "" {
		return "created_at DESC"
	}
	var parts []string
	for _, field := range strings.Split(sort, ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		col, ok := sortColumns[field]
		if !ok {
			continue
		}
		if desc {
			col += " DESC"
		}
		parts = append(parts, col)
	}
	if len(parts) == 0 {
		return "created_at DESC"
	}
	return strings.Join(parts, ", ")
}

// buildSelect maps a fields= projection onto columns. The id and relation
// keys are always included so preloads keep working.
func buildSelect(fields string) []string {
	if fields == "" {
		return nil
	}
	cols := []string{"id", "author_id", "category_id"}
	seen := map[string]bool{}
	for _, f := range strings.Split(fields, ",") {
		col, ok := selectColumns[strings.TrimSpace(f)]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		cols = append(cols, col)
	}
	if len(seen) == 0 {
		return nil
	}
	return cols
}

package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/storynest/core/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the query.
func (q Query) Offset() int { return (q.Page - 1) * q.Limit }

// FromContext extracts and validates pagination params from the request.
func FromContext(c *gin.Context) Query {
	page := parseIntOr(c.DefaultQuery("page", "1"), DefaultPage)
	limit := parseIntOr(c.DefaultQuery("limit", "10"), DefaultLimit)

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Query{Page: page, Limit: limit}
}

// Paginate applies limit/offset to a GORM query and returns pagination metadata.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	if err := db.Offset(q.Offset()).Limit(q.Limit).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return response.Pagination{
		TotalPages:  totalPages,
		CurrentPage: q.Page,
	}, nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pagination metadata returned with paginated responses.
type Pagination struct {
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}

// OK sends a 200 success envelope.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// OKCount sends a 200 success envelope with a count field.
func OKCount(c *gin.Context, count int, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count, "data": data})
}

// Paged sends a 200 success envelope with count and pagination metadata.
func Paged(c *gin.Context, count int, pagination Pagination, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      count,
		"pagination": pagination,
		"data":       data,
	})
}

// Created sends a 201 success envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// Message sends a 200 envelope with a message alongside extra fields.
func Message(c *gin.Context, message string, extra gin.H) {
	out := gin.H{"success": true, "message": message}
	for k, v := range extra {
		out[k] = v
	}
	c.JSON(http.StatusOK, out)
}

// BadRequest sends a 400 error envelope.
func BadRequest(c *gin.Context, message string) {
	abortError(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error envelope.
func Unauthorized(c *gin.Context, message string) {
	abortError(c, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 error envelope.
func Forbidden(c *gin.Context, message string) {
	abortError(c, http.StatusForbidden, message)
}

// NotFound sends a 404 error envelope.
func NotFound(c *gin.Context, message string) {
	abortError(c, http.StatusNotFound, message)
}

// InternalError sends a 500 error envelope.
func InternalError(c *gin.Context, err error) {
	msg := "Internal Server Error"
	if err != nil {
		msg = err.Error()
	}
	abortError(c, http.StatusInternalServerError, msg)
}

// Error sends an error envelope with an explicit status code.
func Error(c *gin.Context, status int, message string) {
	abortError(c, status, message)
}

func abortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

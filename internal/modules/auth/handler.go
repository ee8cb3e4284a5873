package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storynest/core/internal/database"
	"github.com/storynest/core/internal/middleware"
	"github.com/storynest/core/internal/modules/storage/image"
	"github.com/storynest/core/internal/pkg/response"
)

const refreshCookie = "refreshToken"

type Handler struct {
	svc    *Service
	images *image.Service
}

func NewHandler(svc *Service, images *image.Service) *Handler {
	return &Handler{svc: svc, images: images}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/register", h.register)
	a.POST("/login", h.login)
	a.POST("/google", h.googleLogin)
	a.POST("/refresh", h.refresh)
	a.POST("/logout", h.logout)
	a.PUT("/verifyemail/:token", h.verifyEmail)
	a.POST("/forgotpassword", h.forgotPassword)
	a.PUT("/resetpassword/:token", h.resetPassword)
	a.GET("/me", authMW, h.me)
	a.POST("/avatar", authMW, h.uploadAvatar)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if _, err := h.svc.Register(&dto); err != nil {
		if errors.Is(err, ErrEmailSend) {
			response.Error(c, http.StatusInternalServerError, "Registration failed, please try again.")
			return
		}
		if database.IsDuplicateKey(err) {
			response.BadRequest(c, "Duplicate field value")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, "Registration successful. Please check your email to verify your account.")
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Please provide an email and password")
		return
	}

	accessToken, refreshToken, err := h.svc.Login(&dto, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrEmailNotVerified):
			response.Unauthorized(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}

	h.setRefreshCookie(c, refreshToken)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": accessToken})
}

func (h *Handler) googleLogin(c *gin.Context) {
	var dto GoogleLoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	accessToken, _, err := h.svc.GoogleLogin(c.Request.Context(), dto.Token)
	if err != nil {
		if errors.Is(err, ErrInvalidGoogleToken) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}

	h.setTokenCookie(c, accessToken)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": accessToken})
}

func (h *Handler) refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil || refreshToken == "" {
		response.Unauthorized(c, "Not authorized, no token")
		return
	}

	accessToken, err := h.svc.Refresh(refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefresh) {
			h.clearRefreshCookie(c)
			response.Forbidden(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": accessToken})
}

// logout always succeeds; revocation is best effort.
func (h *Handler) logout(c *gin.Context) {
	if refreshToken, err := c.Cookie(refreshCookie); err == nil {
		h.svc.Logout(refreshToken)
	}
	h.clearRefreshCookie(c)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookies(), true)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}

func (h *Handler) verifyEmail(c *gin.Context) {
	accessToken, _, err := h.svc.VerifyEmail(c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrInvalidVerifyToken) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}

	h.setTokenCookie(c, accessToken)
	response.Message(c, "Email verified successfully.", gin.H{"token": accessToken})
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var dto ForgotPasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.ForgotPassword(dto.Email, requestBaseURL(c)); err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, ErrEmailSend):
			response.Error(c, http.StatusInternalServerError, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, "Email sent")
}

func (h *Handler) resetPassword(c *gin.Context) {
	var dto ResetPasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	accessToken, err := h.svc.ResetPassword(c.Param("token"), dto.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": accessToken})
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.Me(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	if h.images == nil {
		response.Error(c, http.StatusServiceUnavailable, "Image uploads are not available")
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		response.BadRequest(c, "Please upload an avatar image")
		return
	}
	if file.Size > image.MaxUploadBytes {
		response.BadRequest(c, "Image too large")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !image.IsImageContentType(contentType) {
		response.BadRequest(c, "Unsupported image type")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer src.Close()

	obj, err := h.images.Upload(c.Request.Context(), image.FolderAvatars, file.Filename, contentType, src)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	oldKey, err := h.svc.UpdateAvatarFields(middleware.CurrentUserID(c), obj.URL, obj.Key)
	if err != nil {
		h.images.DeleteAsync(obj.Key)
		response.InternalError(c, err)
		return
	}
	h.images.DeleteAsync(oldKey)

	response.OK(c, gin.H{"avatar": obj.URL})
}

func (h *Handler) setRefreshCookie(c *gin.Context, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, refreshToken, int(h.svc.cfg.RefreshExpire.Seconds()), "/", "", h.secureCookies(), true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, "", -1, "/", "", h.secureCookies(), true)
}

func (h *Handler) setTokenCookie(c *gin.Context, accessToken string) {
	c.SetCookie(middleware.TokenCookie, accessToken, int(h.svc.cfg.JWTExpire.Seconds()), "/", "", h.secureCookies(), true)
}

func (h *Handler) secureCookies() bool {
	return !h.svc.cfg.IsDev()
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}

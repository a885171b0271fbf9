package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"auth_api/internal/apperror"
	"auth_api/internal/auth"
	"auth_api/internal/models"
	"auth_api/internal/service"

	"github.com/gin-gonic/gin"
)

const userCtxKey = "auth_user"

type Handler struct {
	serviceLayer service.Service
	tokens       *auth.TokenService
	log          *slog.Logger
}

type errorResponse struct {
	Message string `json:"message"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: errMessage})
}

func NewHandler(srvc service.Service, tokens *auth.TokenService, lgr *slog.Logger) *Handler {
	return &Handler{
		serviceLayer: srvc,
		tokens:       tokens,
		log:          lgr,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh-token", h.RefreshTokens)

		authGroup.Use(h.AuthMiddleware())
		authGroup.DELETE("/logout", h.Logout)
		authGroup.GET("/profile", h.GetProfile)
		authGroup.GET("/is-authenticated", h.IsAuthenticated)
	}

	return router
}

func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			newErrorResponse(c, http.StatusUnauthorized, "empty authorization header")

			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			newErrorResponse(c, http.StatusUnauthorized, "invalid authorization header")

			return
		}

		claims, err := h.tokens.VerifyAccessToken(parts[1])
		if err != nil {
			newErrorResponse(c, http.StatusUnauthorized, "invalid token")

			return
		}

		c.Set(userCtxKey, claims.User)

		c.Next()
	}
}

func currentUser(c *gin.Context) (models.TokenUser, bool) {
	value, ok := c.Get(userCtxKey)
	if !ok {
		return models.TokenUser{}, false
	}

	user, ok := value.(models.TokenUser)

	return user, ok
}

// respondError translates the domain error taxonomy to status codes.
func (h *Handler) respondError(c *gin.Context, log *slog.Logger, err error) {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		newErrorResponse(c, http.StatusNotFound, err.Error())
	case apperror.KindBadRequest:
		newErrorResponse(c, http.StatusBadRequest, err.Error())
	case apperror.KindUnauthorized:
		newErrorResponse(c, http.StatusUnauthorized, err.Error())
	case apperror.KindConflict:
		newErrorResponse(c, http.StatusConflict, err.Error())
	default:
		log.Error("internal error", slog.Any("error", err))

		newErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) setRefreshCookie(c *gin.Context, cookie service.RefreshCookie) {
	c.SetSameSite(cookie.SameSite)
	c.SetCookie(cookie.Name, cookie.Value, cookie.MaxAge, "/", "", cookie.Secure, cookie.HTTPOnly)
}

// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	const op = "handler.Register"

	log := h.log.With(slog.String("op", op))

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	result, err := h.serviceLayer.Register(c.Request.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		log.Error("failed to register user", slog.Any("error", err))

		h.respondError(c, log, err)

		return
	}

	h.setRefreshCookie(c, result.Cookie)

	c.JSON(http.StatusCreated, authResponse{AccessToken: result.AccessToken})
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	const op = "handler.Login"

	log := h.log.With(slog.String("op", op))

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	result, err := h.serviceLayer.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("failed to login", slog.Any("error", err))

		h.respondError(c, log, err)

		return
	}

	h.setRefreshCookie(c, result.Cookie)

	c.JSON(http.StatusOK, authResponse{AccessToken: result.AccessToken})
}

// POST /auth/refresh-token
func (h *Handler) RefreshTokens(c *gin.Context) {
	const op = "handler.RefreshTokens"

	log := h.log.With(slog.String("op", op))

	refreshToken, err := c.Cookie(service.RefreshCookieName)
	if err != nil {
		refreshToken = ""
	}

	result, err := h.serviceLayer.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		log.Error("failed to refresh tokens", slog.Any("error", err))

		h.respondError(c, log, err)

		return
	}

	h.setRefreshCookie(c, result.Cookie)

	c.JSON(http.StatusOK, authResponse{AccessToken: result.AccessToken})
}

// DELETE /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	const op = "handler.Logout"

	log := h.log.With(slog.String("op", op))

	user, ok := currentUser(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	cookie, err := h.serviceLayer.Logout(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to logout", slog.Any("error", err))

		h.respondError(c, log, err)

		return
	}

	h.setRefreshCookie(c, cookie)

	log.Info("user logout", slog.Any("user_id", user.ID))

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GET /auth/profile
func (h *Handler) GetProfile(c *gin.Context) {
	const op = "handler.GetProfile"

	log := h.log.With(slog.String("op", op))

	user, ok := currentUser(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	profile, err := h.serviceLayer.GetUserByID(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to get user by id", slog.Any("user_id", user.ID), slog.Any("error", err))

		h.respondError(c, log, err)

		return
	}

	c.JSON(http.StatusOK, profile)
}

// GET /auth/is-authenticated
func (h *Handler) IsAuthenticated(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")

		return
	}

	c.JSON(http.StatusOK, user)
}

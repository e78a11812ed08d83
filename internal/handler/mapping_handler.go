package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MappingHandler struct {
	service service.MappingService
	baseURL string
	logger  *zap.Logger
}

func NewMappingHandler(service service.MappingService, baseURL string, logger *zap.Logger) *MappingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MappingHandler{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type ShortenRequest struct {
	LongURL  string  `json:"long_url" binding:"required"`
	CustomID *string `json:"custom_id"`
}

type ShortenResponse struct {
	ShortURL string `json:"short_url"`
	LongURL  string `json:"long_url"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Shorten godoc
// @Summary Create a short URL
// @Description Store a long URL under a custom or generated short id
// @Accept json
// @Produce json
// @Param request body ShortenRequest true "URL to shorten"
// @Success 200 {object} ShortenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /shorten [post]
func (h *MappingHandler) Shorten(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Detail: "Invalid request body: " + err.Error(),
		})
		return
	}

	mapping, err := h.service.Create(c.Request.Context(), &models.CreateMappingInput{
		LongURL:  req.LongURL,
		CustomID: req.CustomID,
	})
	if err != nil {
		h.writeError(c, err, zap.String("long_url", req.LongURL))
		return
	}

	c.JSON(http.StatusOK, ShortenResponse{
		ShortURL: h.baseURLFor(c) + "/" + mapping.ID,
		LongURL:  mapping.LongURL,
	})
}

// Redirect godoc
// @Summary Redirect to the original URL
// @Description Resolve a short id and redirect to its long URL
// @Param short_id path string true "Short id"
// @Success 307
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /{short_id} [get]
func (h *MappingHandler) Redirect(c *gin.Context) {
	id := c.Param("short_id")

	longURL, err := h.service.Resolve(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, zap.String("short_id", id))
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, longURL)
}

// baseURLFor возвращает базовый адрес коротких ссылок: из конфигурации или из запроса
func (h *MappingHandler) baseURLFor(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + c.Request.Host
}

func (h *MappingHandler) writeError(c *gin.Context, err error, fields ...zap.Field) {
	status, detail := errorStatus(err)
	fields = append(fields, zap.Int("status", status), zap.Error(err))

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields...)
	} else {
		h.logger.Warn("Request rejected", fields...)
	}

	_ = c.Error(err)
	c.JSON(status, ErrorResponse{Detail: detail})
}

// errorStatus сопоставляет ошибку сервиса HTTP статусу и сообщению для клиента
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		return http.StatusUnprocessableEntity, "Invalid URL: an absolute http or https URL is required"
	case errors.Is(err, service.ErrEmptyCustomID):
		return http.StatusUnprocessableEntity, "Custom ID must not be empty"
	case errors.Is(err, service.ErrInvalidCustomID):
		return http.StatusUnprocessableEntity, "Custom ID is not allowed"
	case errors.Is(err, service.ErrDuplicateID):
		return http.StatusBadRequest, "Custom ID already in use"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "URL not found"
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "Storage unavailable"
	case errors.Is(err, service.ErrStorageRead):
		return http.StatusInternalServerError, "Failed to read URL mapping"
	case errors.Is(err, service.ErrStorageWrite):
		return http.StatusInternalServerError, "Failed to store URL mapping"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// Package handler implements the marketsync HTTP API handlers.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hyperpc/marketsync/internal/domain/integration"
	"github.com/hyperpc/marketsync/internal/domain/saleflow"
	"github.com/hyperpc/marketsync/internal/domain/shared"
	"github.com/hyperpc/marketsync/internal/infrastructure/ecommerce"
	"github.com/hyperpc/marketsync/internal/infrastructure/logger"
	"github.com/hyperpc/marketsync/internal/interfaces/http/dto"
	"github.com/hyperpc/marketsync/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response for work continuing in the background
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	code = dto.NormalizeErrorCode(code)
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// Unavailable sends a 503 response when a component is not serving
func (h *BaseHandler) Unavailable(c *gin.Context, message string) {
	h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, message string, details []dto.ValidationDetail) {
	if message == "" {
		message = "Request validation failed"
	}
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(message, getRequestID(c), details))
}

// sentinelCodes maps package sentinel errors to domain error codes
var sentinelCodes = []struct {
	err  error
	code string
}{
	{integration.ErrMarketplaceNotFound, "NOT_FOUND"},
	{integration.ErrAdapterNotFound, "NOT_FOUND"},
	{integration.ErrOrderNotFound, "NOT_FOUND"},
	{integration.ErrProductNotFound, "NOT_FOUND"},
	{saleflow.ErrFlowNotFound, "NOT_FOUND"},
	{ecommerce.ErrSimulatedOrderNotFound, "NOT_FOUND"},
	{integration.ErrInvalidMarketplace, "VALIDATION_ERROR"},
	{integration.ErrInvalidPayload, "VALIDATION_ERROR"},
	{integration.ErrEmptySKU, "VALIDATION_ERROR"},
	{integration.ErrNegativeStock, "VALIDATION_ERROR"},
	{integration.ErrNegativePrice, "VALIDATION_ERROR"},
	{integration.ErrInvalidQuantity, "VALIDATION_ERROR"},
	{integration.ErrZeroQuantity, "VALIDATION_ERROR"},
	{integration.ErrEmptyOrder, "VALIDATION_ERROR"},
	{integration.ErrInvalidPrice, "VALIDATION_ERROR"},
	{saleflow.ErrUnknownStep, "VALIDATION_ERROR"},
	{saleflow.ErrInvalidStatus, "VALIDATION_ERROR"},
	{saleflow.ErrStepOutOfOrder, "INVALID_STATE"},
	{saleflow.ErrStepAlreadyRecorded, "INVALID_STATE"},
	{saleflow.ErrNotRetryable, "INVALID_STATE"},
	{integration.ErrMarketplaceUnavailable, "UNAVAILABLE"},
}

// HandleError converts domain and sentinel errors to HTTP responses.
// Anything unrecognised is logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, domainErr.Code, err.Error())
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
		return
	}

	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			h.ErrorWithCode(c, s.code, err.Error())
			return
		}
	}

	logger.GetGinLogger(c).Error("Unhandled request error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

// Package handlers contains the HTTP handlers of the v1 API.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/domain/scope"
	"bookkeeper/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses a path parameter as UUID.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").WithDetail("param", param))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseIDQuery parses a repeated query parameter as a UUID list.
func (h *BaseHandler) ParseIDQuery(c *gin.Context, key string) ([]id.ID, bool) {
	values := c.QueryArray(key)
	ids := make([]id.ID, 0, len(values))
	for _, v := range values {
		parsed, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid id").WithDetail("param", key).WithDetail("value", v))
			return nil, false
		}
		ids = append(ids, parsed)
	}
	return ids, true
}

// ParseDateQuery parses an optional YYYY-MM-DD query parameter.
func (h *BaseHandler) ParseDateQuery(c *gin.Context, key string) (*time.Time, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", val)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid date").WithDetail("param", key).WithDetail("value", val))
		return nil, false
	}
	return &parsed, true
}

// ParseBoolQuery parses a boolean query parameter with default value.
func (h *BaseHandler) ParseBoolQuery(c *gin.Context, key string, defaultVal bool) bool {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseScope assembles a reporting scope from query parameters:
// fiscalYearId, periodIds (repeated), posted, date (YYYY-MM-DD).
func (h *BaseHandler) ParseScope(c *gin.Context) (scope.Scope, bool) {
	var sc scope.Scope
	if raw := c.Query("fiscalYearId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid id").WithDetail("param", "fiscalYearId"))
			return sc, false
		}
		sc.FiscalYearID = parsed
	}
	periodIDs, ok := h.ParseIDQuery(c, "periodIds")
	if !ok {
		return sc, false
	}
	sc.PeriodIDs = periodIDs
	sc.Posted = h.ParseBoolQuery(c, "posted", false)
	date, ok := h.ParseDateQuery(c, "date")
	if !ok {
		return sc, false
	}
	sc.Date = date
	return sc, true
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, entityID id.ID) {
	c.JSON(http.StatusCreated, dto.NewIDResponse(entityID))
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}

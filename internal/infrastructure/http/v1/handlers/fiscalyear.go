package handlers

import (
	"github.com/gin-gonic/gin"

	"bookkeeper/internal/domain/catalogs/account"
	"bookkeeper/internal/domain/catalogs/fiscalyear"
	"bookkeeper/internal/infrastructure/http/v1/dto"
)

// FiscalYearHandler serves fiscal years and their periods.
type FiscalYearHandler struct {
	*BaseHandler
	fiscalYears *fiscalyear.Service
	accounts    *account.Service
}

// NewFiscalYearHandler creates a new fiscal year handler.
func NewFiscalYearHandler(fiscalYears *fiscalyear.Service, accounts *account.Service) *FiscalYearHandler {
	return &FiscalYearHandler{
		BaseHandler: NewBaseHandler(),
		fiscalYears: fiscalYears,
		accounts:    accounts,
	}
}

// Create handles POST /fiscal-years
func (h *FiscalYearHandler) Create(c *gin.Context) {
	var req dto.CreateFiscalYearRequest
	if !h.BindJSON(c, &req) {
		return
	}
	fy := req.ToEntity()
	if err := h.fiscalYears.Create(c.Request.Context(), fy); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, fy.ID)
}

// Get handles GET /fiscal-years/:id
func (h *FiscalYearHandler) Get(c *gin.Context) {
	fiscalYearID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	fy, err := h.fiscalYears.GetByID(c.Request.Context(), fiscalYearID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, fy)
}

// CreateMonthlyPeriods handles POST /fiscal-years/:id/periods
func (h *FiscalYearHandler) CreateMonthlyPeriods(c *gin.Context) {
	fiscalYearID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	periods, err := h.fiscalYears.CreateMonthlyPeriods(c.Request.Context(), fiscalYearID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, periods)
}

// Close handles POST /fiscal-years/:id/close
//
// Closing checks every period is closed, then snapshots deferral account
// balances into the next fiscal year.
func (h *FiscalYearHandler) Close(c *gin.Context) {
	fiscalYearID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.fiscalYears.Close(ctx, fiscalYearID); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.accounts.CreateDeferrals(ctx, fiscalYearID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "fiscal year closed")
}

// ClosePeriod handles POST /periods/:id/close
func (h *FiscalYearHandler) ClosePeriod(c *gin.Context) {
	periodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.fiscalYears.ClosePeriod(c.Request.Context(), periodID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "period closed")
}

// ReopenPeriod handles POST /periods/:id/reopen
func (h *FiscalYearHandler) ReopenPeriod(c *gin.Context) {
	periodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.fiscalYears.ReopenPeriod(c.Request.Context(), periodID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "period reopened")
}

// GetPeriod handles GET /periods/:id
func (h *FiscalYearHandler) GetPeriod(c *gin.Context) {
	periodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	period, err := h.fiscalYears.GetPeriod(c.Request.Context(), periodID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, period)
}

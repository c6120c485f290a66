package handlers

import (
	"github.com/gin-gonic/gin"

	"bookkeeper/internal/domain/catalogs/currency"
	"bookkeeper/internal/infrastructure/http/v1/dto"
)

// CurrencyHandler serves the currency catalog.
type CurrencyHandler struct {
	*BaseHandler
	currencies *currency.Service
}

// NewCurrencyHandler creates a new currency handler.
func NewCurrencyHandler(currencies *currency.Service) *CurrencyHandler {
	return &CurrencyHandler{BaseHandler: NewBaseHandler(), currencies: currencies}
}

// Create handles POST /currencies
func (h *CurrencyHandler) Create(c *gin.Context) {
	var req dto.CreateCurrencyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	curr := req.ToEntity()
	if err := h.currencies.Create(c.Request.Context(), curr); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, curr.ID)
}

// Get handles GET /currencies/:id
func (h *CurrencyHandler) Get(c *gin.Context) {
	currencyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	curr, err := h.currencies.GetByID(c.Request.Context(), currencyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, curr)
}

// AddRate handles POST /currencies/:id/rates
func (h *CurrencyHandler) AddRate(c *gin.Context) {
	currencyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddRateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.currencies.AddRate(c.Request.Context(), currencyID, req.Date, req.Rate); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "rate added")
}

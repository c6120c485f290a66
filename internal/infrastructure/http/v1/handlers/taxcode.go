package handlers

import (
	"github.com/gin-gonic/gin"

	"bookkeeper/internal/domain/catalogs/taxcode"
	"bookkeeper/internal/infrastructure/http/v1/dto"
)

// TaxCodeHandler serves the tax code catalog and declaration sums.
type TaxCodeHandler struct {
	*BaseHandler
	codes *taxcode.Service
}

// NewTaxCodeHandler creates a new tax code handler.
func NewTaxCodeHandler(codes *taxcode.Service) *TaxCodeHandler {
	return &TaxCodeHandler{BaseHandler: NewBaseHandler(), codes: codes}
}

// Create handles POST /tax-codes
func (h *TaxCodeHandler) Create(c *gin.Context) {
	var req dto.CreateTaxCodeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	code := req.ToEntity()
	if err := h.codes.Create(c.Request.Context(), code); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, code.ID)
}

// Get handles GET /tax-codes/:id
func (h *TaxCodeHandler) Get(c *gin.Context) {
	codeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	code, err := h.codes.GetByID(c.Request.Context(), codeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, code)
}

// Update handles PATCH /tax-codes/:id
func (h *TaxCodeHandler) Update(c *gin.Context) {
	codeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTaxCodeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	code, err := h.codes.GetByID(c.Request.Context(), codeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(code)
	if err := h.codes.Update(c.Request.Context(), code); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, code)
}

// Delete handles DELETE /tax-codes/:id
func (h *TaxCodeHandler) Delete(c *gin.Context) {
	codeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.codes.Delete(c.Request.Context(), codeID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Sum handles GET /tax-codes/sum?ids=...&fiscalYearId=...&periodIds=...&posted=...&date=...
// Sums roll up over each requested code's subtree.
func (h *TaxCodeHandler) Sum(c *gin.Context) {
	codeIDs, ok := h.ParseIDQuery(c, "ids")
	if !ok {
		return
	}
	sc, ok := h.ParseScope(c)
	if !ok {
		return
	}
	sums, err := h.codes.GetSum(c.Request.Context(), sc, codeIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := make([]dto.BalanceResponse, 0, len(sums))
	for codeID, amount := range sums {
		resp = append(resp, dto.BalanceResponse{ID: codeID.String(), Amount: amount})
	}
	h.OK(c, resp)
}

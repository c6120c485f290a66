package handlers

import (
	"github.com/gin-gonic/gin"

	"bookkeeper/internal/domain/tax"
	"bookkeeper/internal/infrastructure/http/v1/dto"
)

// TaxHandler serves the tax catalog and computation endpoints.
type TaxHandler struct {
	*BaseHandler
	taxes *tax.Service
}

// NewTaxHandler creates a new tax handler.
func NewTaxHandler(taxes *tax.Service) *TaxHandler {
	return &TaxHandler{BaseHandler: NewBaseHandler(), taxes: taxes}
}

// Create handles POST /taxes
func (h *TaxHandler) Create(c *gin.Context) {
	var req dto.CreateTaxRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t := req.ToEntity()
	if err := h.taxes.Create(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t.ID)
}

// Get handles GET /taxes/:id
func (h *TaxHandler) Get(c *gin.Context) {
	taxID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	t, err := h.taxes.GetByID(c.Request.Context(), taxID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Update handles PATCH /taxes/:id
func (h *TaxHandler) Update(c *gin.Context) {
	taxID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTaxRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.taxes.GetByID(c.Request.Context(), taxID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(t)
	if err := h.taxes.Update(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Delete handles DELETE /taxes/:id
func (h *TaxHandler) Delete(c *gin.Context) {
	taxID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.taxes.Delete(c.Request.Context(), taxID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Compute handles POST /taxes/compute
func (h *TaxHandler) Compute(c *gin.Context) {
	var req dto.ComputeTaxRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.taxes.Compute(c.Request.Context(), req.TaxIDs, req.UnitPrice, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// ComputeInverse handles POST /taxes/compute-inverse
//
// The unit price is tax inclusive; the result reports the extracted base
// and per-tax amounts.
func (h *TaxHandler) ComputeInverse(c *gin.Context) {
	var req dto.ComputeTaxRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.taxes.ComputeInverse(c.Request.Context(), req.TaxIDs, req.UnitPrice, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/domain/ledger"
	"bookkeeper/internal/infrastructure/http/v1/dto"
)

// LineHandler serves move lines and reconciliations.
type LineHandler struct {
	*BaseHandler
	ledger *ledger.Service
}

// NewLineHandler creates a new line handler.
func NewLineHandler(ledgerSvc *ledger.Service) *LineHandler {
	return &LineHandler{BaseHandler: NewBaseHandler(), ledger: ledgerSvc}
}

// Create handles POST /lines
func (h *LineHandler) Create(c *gin.Context) {
	var req dto.CreateLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	line, err := h.ledger.CreateLine(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, line.ID)
}

// Get handles GET /lines/:id
func (h *LineHandler) Get(c *gin.Context) {
	lineID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	line, err := h.ledger.GetLine(c.Request.Context(), lineID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, line)
}

// Update handles PATCH /lines/:id
func (h *LineHandler) Update(c *gin.Context) {
	lineID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	line, err := h.ledger.GetLine(c.Request.Context(), lineID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(line)
	if err := h.ledger.WriteLine(c.Request.Context(), line); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, line)
}

// Delete handles POST /lines/delete
func (h *LineHandler) Delete(c *gin.Context) {
	var req dto.LineIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.ledger.DeleteLines(c.Request.Context(), req.LineIDs); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Reconcile handles POST /reconciliations
func (h *LineHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	rec, err := h.ledger.Reconcile(c.Request.Context(), req.LineIDs, req.ToWriteOff())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rec.ID)
}

// Unreconcile handles POST /reconciliations/delete
func (h *LineHandler) Unreconcile(c *gin.Context) {
	var req dto.LineIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.ledger.Unreconcile(c.Request.Context(), req.LineIDs); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// PartyBalance handles GET /lines/party-balance?partyId=...&accountId=...
//
// Reports the unreconciled debit minus credit for a party on one account.
func (h *LineHandler) PartyBalance(c *gin.Context) {
	partyIDs, ok := h.ParseIDQuery(c, "partyId")
	if !ok {
		return
	}
	accountIDs, ok := h.ParseIDQuery(c, "accountId")
	if !ok {
		return
	}
	if len(partyIDs) != 1 || len(accountIDs) != 1 {
		h.Error(c, apperror.NewValidation("partyId and accountId are required"))
		return
	}
	balance, err := h.ledger.PartyBalance(c.Request.Context(), partyIDs[0], accountIDs[0])
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.BalanceResponse{ID: partyIDs[0].String(), Amount: balance})
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"bookkeeper/internal/domain/ledger"
	"bookkeeper/internal/infrastructure/http/v1/dto"
)

// MoveHandler serves account moves and journal period state.
type MoveHandler struct {
	*BaseHandler
	ledger *ledger.Service
}

// NewMoveHandler creates a new move handler.
func NewMoveHandler(ledgerSvc *ledger.Service) *MoveHandler {
	return &MoveHandler{BaseHandler: NewBaseHandler(), ledger: ledgerSvc}
}

// Create handles POST /moves
func (h *MoveHandler) Create(c *gin.Context) {
	var req dto.CreateMoveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	move, err := h.ledger.CreateMove(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, move.ID)
}

// Get handles GET /moves/:id
func (h *MoveHandler) Get(c *gin.Context) {
	moveID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	move, err := h.ledger.GetMove(c.Request.Context(), moveID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, move)
}

// Delete handles DELETE /moves/:id
func (h *MoveHandler) Delete(c *gin.Context) {
	moveID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteMove(c.Request.Context(), moveID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Post handles POST /moves/post
func (h *MoveHandler) Post(c *gin.Context) {
	var req dto.MoveIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.ledger.Post(c.Request.Context(), req.MoveIDs); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "moves posted")
}

// Draft handles POST /moves/draft
func (h *MoveHandler) Draft(c *gin.Context) {
	var req dto.MoveIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.ledger.Draft(c.Request.Context(), req.MoveIDs); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "moves drafted")
}

// SetDate handles PUT /moves/:id/date
func (h *MoveHandler) SetDate(c *gin.Context) {
	moveID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetMoveDateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.ledger.SetMoveDate(c.Request.Context(), moveID, req.Date); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "date changed")
}

// SetPeriod handles PUT /moves/:id/period
func (h *MoveHandler) SetPeriod(c *gin.Context) {
	moveID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetMovePeriodRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.ledger.SetMovePeriod(c.Request.Context(), moveID, req.PeriodID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "period changed")
}

// SetJournal handles PUT /moves/:id/journal
func (h *MoveHandler) SetJournal(c *gin.Context) {
	moveID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetMoveJournalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.ledger.SetMoveJournal(c.Request.Context(), moveID, req.JournalID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "journal changed")
}

// Counterpart handles GET /moves/:id/counterpart
//
// Returns the single balancing line that would square the move, without
// creating it.
func (h *MoveHandler) Counterpart(c *gin.Context) {
	moveID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	proposal, err := h.ledger.ProposeCounterpart(c.Request.Context(), moveID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, proposal)
}

// CloseJournalPeriod handles POST /journal-periods/close
func (h *MoveHandler) CloseJournalPeriod(c *gin.Context) {
	var req dto.JournalPeriodRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.ledger.CloseJournalPeriod(c.Request.Context(), req.JournalID, req.PeriodID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "journal period closed")
}

// ReopenJournalPeriod handles POST /journal-periods/reopen
func (h *MoveHandler) ReopenJournalPeriod(c *gin.Context) {
	var req dto.JournalPeriodRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.ledger.ReopenJournalPeriod(c.Request.Context(), req.JournalID, req.PeriodID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "journal period reopened")
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"bookkeeper/internal/domain/catalogs/journal"
	"bookkeeper/internal/infrastructure/http/v1/dto"
)

// JournalHandler serves the journal catalog.
type JournalHandler struct {
	*BaseHandler
	journals *journal.Service
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(journals *journal.Service) *JournalHandler {
	return &JournalHandler{BaseHandler: NewBaseHandler(), journals: journals}
}

// Create handles POST /journals
func (h *JournalHandler) Create(c *gin.Context) {
	var req dto.CreateJournalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	j := req.ToEntity()
	if err := h.journals.Create(c.Request.Context(), j); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, j.ID)
}

// Get handles GET /journals/:id
func (h *JournalHandler) Get(c *gin.Context) {
	journalID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	j, err := h.journals.GetByID(c.Request.Context(), journalID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, j)
}

// List handles GET /journals?activeOnly=true
func (h *JournalHandler) List(c *gin.Context) {
	activeOnly := h.ParseBoolQuery(c, "activeOnly", false)
	journals, err := h.journals.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, journals)
}

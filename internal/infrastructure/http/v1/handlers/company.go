package handlers

import (
	"github.com/gin-gonic/gin"

	"bookkeeper/internal/domain/catalogs/company"
	"bookkeeper/internal/infrastructure/http/v1/dto"
)

// CompanyHandler serves the company catalog.
type CompanyHandler struct {
	*BaseHandler
	companies *company.Service
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(companies *company.Service) *CompanyHandler {
	return &CompanyHandler{BaseHandler: NewBaseHandler(), companies: companies}
}

// Create handles POST /companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	comp := req.ToEntity()
	if err := h.companies.Create(c.Request.Context(), comp); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, comp.ID)
}

// Get handles GET /companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	companyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	comp, err := h.companies.GetByID(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, comp)
}

// List handles GET /companies
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.companies.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, companies)
}

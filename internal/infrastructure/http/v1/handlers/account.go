package handlers

import (
	"github.com/gin-gonic/gin"

	"bookkeeper/internal/domain/catalogs/account"
	"bookkeeper/internal/infrastructure/http/v1/dto"
)

// AccountHandler serves the chart of accounts.
type AccountHandler struct {
	*BaseHandler
	accounts *account.Service
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accounts *account.Service) *AccountHandler {
	return &AccountHandler{BaseHandler: NewBaseHandler(), accounts: accounts}
}

// Create handles POST /accounts
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	acc := req.ToEntity()
	if err := h.accounts.Create(c.Request.Context(), acc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, acc.ID)
}

// Get handles GET /accounts/:id
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	acc, err := h.accounts.GetByID(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, acc)
}

// Update handles PATCH /accounts/:id
func (h *AccountHandler) Update(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	acc, err := h.accounts.GetByID(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(acc)
	if err := h.accounts.Update(c.Request.Context(), acc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, acc)
}

// Delete handles DELETE /accounts/:id
func (h *AccountHandler) Delete(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.Delete(c.Request.Context(), accountID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Balance handles GET /accounts/balance?ids=...&fiscalYearId=...&periodIds=...&posted=...&date=...
// Balances roll up over each requested account's subtree.
func (h *AccountHandler) Balance(c *gin.Context) {
	accountIDs, ok := h.ParseIDQuery(c, "ids")
	if !ok {
		return
	}
	sc, ok := h.ParseScope(c)
	if !ok {
		return
	}
	balances, err := h.accounts.GetBalance(c.Request.Context(), sc, accountIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := make([]dto.BalanceResponse, 0, len(balances))
	for accountID, amount := range balances {
		resp = append(resp, dto.BalanceResponse{ID: accountID.String(), Amount: amount})
	}
	h.OK(c, resp)
}

// CreditDebit handles GET /accounts/credit-debit with the same query shape
// as Balance. Sums are per account, without subtree rollup.
func (h *AccountHandler) CreditDebit(c *gin.Context) {
	accountIDs, ok := h.ParseIDQuery(c, "ids")
	if !ok {
		return
	}
	sc, ok := h.ParseScope(c)
	if !ok {
		return
	}
	sums, err := h.accounts.GetCreditDebit(c.Request.Context(), sc, accountIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := make([]dto.CreditDebitResponse, 0, len(sums))
	for accountID, cd := range sums {
		resp = append(resp, dto.CreditDebitResponse{
			ID:     accountID.String(),
			Credit: cd.Credit,
			Debit:  cd.Debit,
		})
	}
	h.OK(c, resp)
}

package dto

import (
	"time"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/catalogs/account"
	"bookkeeper/internal/domain/catalogs/company"
	"bookkeeper/internal/domain/catalogs/currency"
	"bookkeeper/internal/domain/catalogs/fiscalyear"
	"bookkeeper/internal/domain/catalogs/journal"
	"bookkeeper/internal/domain/catalogs/taxcode"
)

// --- Currency ---

// CreateCurrencyRequest is the request body for creating a currency.
type CreateCurrencyRequest struct {
	ISOCode string  `json:"isoCode" binding:"required"`
	Name    string  `json:"name" binding:"required"`
	Digits  int     `json:"digits"`
	Symbol  *string `json:"symbol"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCurrencyRequest) ToEntity() *currency.Currency {
	c := currency.NewCurrency(r.ISOCode, r.Name, r.Digits)
	c.Symbol = r.Symbol
	return c
}

// AddRateRequest is the request body for quoting an exchange rate.
type AddRateRequest struct {
	Date time.Time   `json:"date" binding:"required"`
	Rate types.Money `json:"rate" binding:"required"`
}

// --- Company ---

// CreateCompanyRequest is the request body for creating a company.
type CreateCompanyRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name" binding:"required"`
	CurrencyID id.ID  `json:"currencyId" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCompanyRequest) ToEntity() *company.Company {
	return company.NewCompany(r.Code, r.Name, r.CurrencyID)
}

// --- Journal ---

// CreateJournalRequest is the request body for creating a journal.
type CreateJournalRequest struct {
	Code            string `json:"code" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Type            string `json:"type" binding:"required"`
	Centralised     bool   `json:"centralised"`
	UpdatePosted    bool   `json:"updatePosted"`
	DebitAccountID  *id.ID `json:"debitAccountId"`
	CreditAccountID *id.ID `json:"creditAccountId"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateJournalRequest) ToEntity() *journal.Journal {
	j := journal.NewJournal(r.Code, r.Name, journal.Type(r.Type))
	j.Centralised = r.Centralised
	j.UpdatePosted = r.UpdatePosted
	j.DebitAccountID = r.DebitAccountID
	j.CreditAccountID = r.CreditAccountID
	return j
}

// --- Fiscal year ---

// CreateFiscalYearRequest is the request body for creating a fiscal year.
type CreateFiscalYearRequest struct {
	Code      string    `json:"code"`
	Name      string    `json:"name" binding:"required"`
	CompanyID id.ID     `json:"companyId" binding:"required"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateFiscalYearRequest) ToEntity() *fiscalyear.FiscalYear {
	return fiscalyear.NewFiscalYear(r.Code, r.Name, r.CompanyID, r.StartDate, r.EndDate)
}

// --- Account ---

// CreateAccountRequest is the request body for creating an account.
type CreateAccountRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
	CompanyID id.ID  `json:"companyId" binding:"required"`
	ParentID  *id.ID `json:"parentId"`
	TypeID    *id.ID `json:"typeId"`
	Reconcile bool   `json:"reconcile"`
	Deferral  bool   `json:"deferral"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateAccountRequest) ToEntity() *account.Account {
	acc := account.NewAccount(r.Code, r.Name, account.Kind(r.Kind), r.CompanyID)
	acc.ParentID = r.ParentID
	acc.TypeID = r.TypeID
	acc.Reconcile = r.Reconcile
	acc.Deferral = r.Deferral
	return acc
}

// UpdateAccountRequest is the request body for updating an account.
type UpdateAccountRequest struct {
	Code      *string `json:"code"`
	Name      *string `json:"name"`
	ParentID  *id.ID  `json:"parentId"`
	TypeID    *id.ID  `json:"typeId"`
	Reconcile *bool   `json:"reconcile"`
	Deferral  *bool   `json:"deferral"`
	Active    *bool   `json:"active"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateAccountRequest) ApplyTo(acc *account.Account) {
	if r.Code != nil {
		acc.Code = *r.Code
	}
	if r.Name != nil {
		acc.Name = *r.Name
	}
	if r.ParentID != nil {
		acc.SetParent(*r.ParentID)
	}
	if r.TypeID != nil {
		acc.TypeID = r.TypeID
	}
	if r.Reconcile != nil {
		acc.Reconcile = *r.Reconcile
	}
	if r.Deferral != nil {
		acc.Deferral = *r.Deferral
	}
	if r.Active != nil {
		acc.Active = *r.Active
	}
}

// BalanceResponse is one aggregated amount per account or tax code.
type BalanceResponse struct {
	ID     string      `json:"id"`
	Amount types.Money `json:"amount"`
}

// CreditDebitResponse is a per-account pair of sums.
type CreditDebitResponse struct {
	ID     string      `json:"id"`
	Credit types.Money `json:"credit"`
	Debit  types.Money `json:"debit"`
}

// --- Tax code ---

// CreateTaxCodeRequest is the request body for creating a tax code.
type CreateTaxCodeRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	CompanyID id.ID  `json:"companyId" binding:"required"`
	ParentID  *id.ID `json:"parentId"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateTaxCodeRequest) ToEntity() *taxcode.TaxCode {
	code := taxcode.NewTaxCode(r.Code, r.Name, r.CompanyID)
	code.ParentID = r.ParentID
	return code
}

// UpdateTaxCodeRequest is the request body for updating a tax code.
type UpdateTaxCodeRequest struct {
	Code     *string `json:"code"`
	Name     *string `json:"name"`
	ParentID *id.ID  `json:"parentId"`
	Active   *bool   `json:"active"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateTaxCodeRequest) ApplyTo(code *taxcode.TaxCode) {
	if r.Code != nil {
		code.Code = *r.Code
	}
	if r.Name != nil {
		code.Name = *r.Name
	}
	if r.ParentID != nil {
		code.SetParent(*r.ParentID)
	}
	if r.Active != nil {
		code.Active = *r.Active
	}
}

// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"bookkeeper/internal/domain/catalogs/account"
	"bookkeeper/internal/domain/catalogs/company"
	"bookkeeper/internal/domain/catalogs/currency"
	"bookkeeper/internal/domain/catalogs/fiscalyear"
	"bookkeeper/internal/domain/catalogs/journal"
	"bookkeeper/internal/domain/catalogs/taxcode"
	"bookkeeper/internal/domain/ledger"
	"bookkeeper/internal/domain/tax"
	"bookkeeper/internal/infrastructure/http/v1/handlers"
	"bookkeeper/internal/infrastructure/http/v1/middleware"
	"bookkeeper/internal/infrastructure/sequence"
	"bookkeeper/internal/infrastructure/storage/postgres"
	"bookkeeper/internal/infrastructure/storage/postgres/catalog_repo"
	"bookkeeper/internal/infrastructure/storage/postgres/document_repo"
	"bookkeeper/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (also used for health checks)
	Pool *postgres.Pool

	// TxManager coordinates transactions across repositories
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Repositories
	txm := cfg.TxManager
	accountRepo := catalog_repo.NewAccountRepo(txm)
	currencyRepo := catalog_repo.NewCurrencyRepo(txm)
	companyRepo := catalog_repo.NewCompanyRepo(txm)
	journalRepo := catalog_repo.NewJournalRepo(txm)
	fiscalYearRepo := catalog_repo.NewFiscalYearRepo(txm)
	taxRepo := catalog_repo.NewTaxRepo(txm)
	taxCodeRepo := catalog_repo.NewTaxCodeRepo(txm)
	lineRepo := document_repo.NewLineRepo(txm)
	moveRepo := document_repo.NewMoveRepo(txm, lineRepo)
	reconciliationRepo := document_repo.NewReconciliationRepo(txm, lineRepo)
	journalPeriodRepo := document_repo.NewJournalPeriodRepo(txm)

	// Services
	seq := sequence.New(txm, cfg.Pool.Unwrap())
	currencySvc := currency.NewService(currencyRepo, txm)
	companySvc := company.NewService(companyRepo, txm)
	journalSvc := journal.NewService(journalRepo, txm)
	fiscalYearSvc := fiscalyear.NewService(fiscalYearRepo, txm)
	accountSvc := account.NewService(accountRepo, txm, currencySvc, companySvc, fiscalYearSvc)
	taxCodeSvc := taxcode.NewService(taxCodeRepo, txm, currencySvc, companySvc, fiscalYearSvc)
	taxSvc := tax.NewService(taxRepo, txm, tax.NewEngine(taxRepo))
	ledgerSvc := ledger.NewService(
		moveRepo,
		lineRepo,
		reconciliationRepo,
		journalPeriodRepo,
		txm,
		seq,
		journalSvc,
		fiscalYearSvc,
		accountSvc,
		currencySvc,
		companySvc,
	)

	// Handlers
	accountHandler := handlers.NewAccountHandler(accountSvc)
	currencyHandler := handlers.NewCurrencyHandler(currencySvc)
	companyHandler := handlers.NewCompanyHandler(companySvc)
	journalHandler := handlers.NewJournalHandler(journalSvc)
	fiscalYearHandler := handlers.NewFiscalYearHandler(fiscalYearSvc, accountSvc)
	taxHandler := handlers.NewTaxHandler(taxSvc)
	taxCodeHandler := handlers.NewTaxCodeHandler(taxCodeSvc)
	moveHandler := handlers.NewMoveHandler(ledgerSvc)
	lineHandler := handlers.NewLineHandler(ledgerSvc)

	// API v1
	api := router.Group("/api/v1")
	{
		accounts := api.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("/balance", accountHandler.Balance)
			accounts.GET("/credit-debit", accountHandler.CreditDebit)
			accounts.GET("/:id", accountHandler.Get)
			accounts.PATCH("/:id", accountHandler.Update)
			accounts.DELETE("/:id", accountHandler.Delete)
		}

		currencies := api.Group("/currencies")
		{
			currencies.POST("", currencyHandler.Create)
			currencies.GET("/:id", currencyHandler.Get)
			currencies.POST("/:id/rates", currencyHandler.AddRate)
		}

		companies := api.Group("/companies")
		{
			companies.POST("", companyHandler.Create)
			companies.GET("", companyHandler.List)
			companies.GET("/:id", companyHandler.Get)
		}

		journals := api.Group("/journals")
		{
			journals.POST("", journalHandler.Create)
			journals.GET("", journalHandler.List)
			journals.GET("/:id", journalHandler.Get)
		}

		fiscalYears := api.Group("/fiscal-years")
		{
			fiscalYears.POST("", fiscalYearHandler.Create)
			fiscalYears.GET("/:id", fiscalYearHandler.Get)
			fiscalYears.POST("/:id/periods", fiscalYearHandler.CreateMonthlyPeriods)
			fiscalYears.POST("/:id/close", fiscalYearHandler.Close)
		}

		periods := api.Group("/periods")
		{
			periods.GET("/:id", fiscalYearHandler.GetPeriod)
			periods.POST("/:id/close", fiscalYearHandler.ClosePeriod)
			periods.POST("/:id/reopen", fiscalYearHandler.ReopenPeriod)
		}

		taxes := api.Group("/taxes")
		{
			taxes.POST("", taxHandler.Create)
			taxes.POST("/compute", taxHandler.Compute)
			taxes.POST("/compute-inverse", taxHandler.ComputeInverse)
			taxes.GET("/:id", taxHandler.Get)
			taxes.PATCH("/:id", taxHandler.Update)
			taxes.DELETE("/:id", taxHandler.Delete)
		}

		taxCodes := api.Group("/tax-codes")
		{
			taxCodes.POST("", taxCodeHandler.Create)
			taxCodes.GET("/sum", taxCodeHandler.Sum)
			taxCodes.GET("/:id", taxCodeHandler.Get)
			taxCodes.PATCH("/:id", taxCodeHandler.Update)
			taxCodes.DELETE("/:id", taxCodeHandler.Delete)
		}

		moves := api.Group("/moves")
		{
			moves.POST("", moveHandler.Create)
			moves.POST("/post", moveHandler.Post)
			moves.POST("/draft", moveHandler.Draft)
			moves.GET("/:id", moveHandler.Get)
			moves.DELETE("/:id", moveHandler.Delete)
			moves.PUT("/:id/date", moveHandler.SetDate)
			moves.PUT("/:id/period", moveHandler.SetPeriod)
			moves.PUT("/:id/journal", moveHandler.SetJournal)
			moves.GET("/:id/counterpart", moveHandler.Counterpart)
		}

		lines := api.Group("/lines")
		{
			lines.POST("", lineHandler.Create)
			lines.POST("/delete", lineHandler.Delete)
			lines.GET("/party-balance", lineHandler.PartyBalance)
			lines.GET("/:id", lineHandler.Get)
			lines.PATCH("/:id", lineHandler.Update)
		}

		reconciliations := api.Group("/reconciliations")
		{
			reconciliations.POST("", lineHandler.Reconcile)
			reconciliations.POST("/delete", lineHandler.Unreconcile)
		}

		journalPeriods := api.Group("/journal-periods")
		{
			journalPeriods.POST("/close", moveHandler.CloseJournalPeriod)
			journalPeriods.POST("/reopen", moveHandler.ReopenJournalPeriod)
		}
	}

	return router
}

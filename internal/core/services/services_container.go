package services

import (
	portsrepo "github.com/pesavault/pesavault/internal/core/ports/repositories"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, gateway portssvc.SettlementGateway) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The ledger service is the balance mutator everything else funds through.
	container.Ledger = NewLedgerService(repos.LedgerRepo, repos.AccountRepo)
	container.Account = NewAccountService(repos.AccountRepo, container.Ledger)
	container.Savings = NewSavingsService(repos.SavingsRepo, container.Account)
	container.Investment = NewInvestmentService(repos.InvestmentRepo, container.Account)
	container.Settlement = NewSettlementService(
		repos.SettlementRepo,
		repos.LedgerRepo,
		container.Account,
		gateway,
		cfg.SettlementStaleAfter,
		cfg.SettlementPollLimit,
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade    = (*accountService)(nil)
	_ portssvc.LedgerSvcFacade     = (*ledgerService)(nil)
	_ portssvc.SavingsSvcFacade    = (*savingsService)(nil)
	_ portssvc.InvestmentSvcFacade = (*investmentService)(nil)
	_ portssvc.SettlementSvcFacade = (*settlementService)(nil)
)

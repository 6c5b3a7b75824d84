package repositories

// RepositoryProvider bundles the concrete repositories handed to the service
// layer at startup.
type RepositoryProvider struct {
	AccountRepo    AccountRepositoryFacade
	LedgerRepo     LedgerRepositoryFacade
	SavingsRepo    SavingsGoalRepository
	InvestmentRepo InvestmentRepository
	SettlementRepo SettlementRepository
}

package services

// ServiceContainer holds all the services handed to the HTTP layer and the
// background workers.
type ServiceContainer struct {
	Account    AccountSvcFacade
	Ledger     LedgerSvcFacade
	Savings    SavingsSvcFacade
	Investment InvestmentSvcFacade
	Settlement SettlementSvcFacade
}

package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/pesavault/pesavault/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool, accountRepo)
	savingsRepo := newPgxSavingsGoalRepository(dbPool, accountRepo)
	investmentRepo := newPgxInvestmentRepository(dbPool, accountRepo)
	settlementRepo := newPgxSettlementRepository(dbPool, accountRepo)

	return portsrepo.RepositoryProvider{
		AccountRepo:    accountRepo,
		LedgerRepo:     ledgerRepo,
		SavingsRepo:    savingsRepo,
		InvestmentRepo: investmentRepo,
		SettlementRepo: settlementRepo,
	}
}

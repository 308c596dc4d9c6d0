package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every PostgreSQL repository against the shared
// connection pool. The ledger repository gets the account repository so it
// can lock and move account balances inside its own transactions.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		LedgerRepo:      newPgxLedgerRepository(dbPool, accountRepo),
		CustomerRepo:    newPgxCustomerRepository(dbPool),
		BankAccountRepo: newPgxBankAccountRepository(dbPool),
		TransferRepo:    newPgxTransferRepository(dbPool),
		ExpenseRepo:     newPgxExpenseRepository(dbPool),
		IncomeRepo:      newPgxIncomeRepository(dbPool),
		ProductRepo:     newPgxProductRepository(dbPool),
		SupplierRepo:    newPgxSupplierRepository(dbPool),
		SaleRepo:        newPgxSaleRepository(dbPool),
		UserRepo:        newPgxUserRepository(dbPool),
		APITokenRepo:    newPgxAPITokenRepository(dbPool),
	}
}

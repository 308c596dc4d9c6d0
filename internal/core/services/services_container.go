package services

import (
	portsrepo "github.com/shopledger/shopledger_backend/internal/core/ports/repositories"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Account service first; nearly everything that posts needs the chart.
	container.Account = NewAccountServiceImpl(repos.AccountRepo)
	container.Ledger = NewLedgerService(repos.LedgerRepo, container.Account, cfg.BranchID)

	// The poster is deliberately not part of the container: it is the
	// internal capability handed to the flows that must not fail their
	// own commit when a posting fails.
	poster := NewLedgerPoster(repos.LedgerRepo, container.Account)

	container.Validation = NewLedgerValidationService(repos.LedgerRepo, repos.CustomerRepo)
	container.Customer = NewCustomerService(repos.CustomerRepo)
	container.BankAccount = NewBankAccountService(repos.BankAccountRepo, container.Account)
	container.Transfer = NewTransferService(repos.TransferRepo, container.BankAccount, container.Account, poster, cfg.BranchID)
	container.Expense = NewExpenseService(repos.ExpenseRepo, container.BankAccount, container.Account, poster, cfg.BranchID)
	container.Income = NewIncomeService(repos.IncomeRepo, container.BankAccount, container.Account, poster, cfg.BranchID)
	container.Product = NewProductService(repos.ProductRepo)
	container.Supplier = NewSupplierService(repos.SupplierRepo)
	container.Sale = NewSaleService(repos.SaleRepo, container.Customer, container.Product, container.BankAccount, container.Account, poster, cfg.BranchID)

	container.User = NewUserService(repos.UserRepo)
	container.Token = NewTokenService(cfg, container.User)
	container.APIToken = NewAPITokenService(repos.APITokenRepo, container.User)

	return container
}

package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Account     AccountSvcFacade
	Ledger      LedgerSvcFacade
	Validation  LedgerValidationSvc
	Customer    CustomerSvcFacade
	BankAccount BankAccountSvcFacade
	Transfer    TransferSvcFacade
	Expense     ExpenseSvcFacade
	Income      IncomeSvcFacade
	Product     ProductSvcFacade
	Supplier    SupplierSvcFacade
	Sale        SaleSvcFacade
	User        UserSvcFacade
	Token       TokenSvcFacade
	APIToken    APITokenSvc
}

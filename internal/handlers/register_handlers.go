package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/shopledger/shopledger_backend/cmd/docs"
	portssvc "github.com/shopledger/shopledger_backend/internal/core/ports/services"
	"github.com/shopledger/shopledger_backend/internal/middleware"
	"github.com/shopledger/shopledger_backend/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	r.GET("/", getHome)
	r.GET("/health", getHealth)

	// Register public authentication routes
	registerAuthRoutes(r, cfg, services)

	// Setup API v1 routes with auth middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services)

	// Swagger routes (conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// API tokens are tried first; requests they leave untouched must carry a JWT.
	v1 := r.Group("/api/v1",
		middleware.APITokenAuth(services.APIToken),
		middleware.AuthMiddleware(cfg.JWTSecret),
	)

	// Delegate route registration to specific handlers, passing required services
	RegisterAccountRoutes(v1, services.Account, services.Ledger)
	RegisterLedgerRoutes(v1, services.Ledger, services.Validation)
	registerCustomerRoutes(v1, services.Customer)
	registerBankAccountRoutes(v1, services.BankAccount)
	registerTransferRoutes(v1, services.Transfer)
	registerExpenseRoutes(v1, services.Expense)
	registerIncomeRoutes(v1, services.Income)
	registerProductRoutes(v1, services.Product)
	registerSupplierRoutes(v1, services.Supplier)
	registerSaleRoutes(v1, services.Sale)
	registerUserRoutes(v1, services.User)
	RegisterAPITokenRoutes(v1, services.APIToken)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Package server wires services, handlers and middleware into the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"duobudget/internal/config"
	_ "duobudget/internal/docs" // registers the swagger document
	"duobudget/internal/handlers"
	"duobudget/internal/middleware"
	"duobudget/internal/models"
	"duobudget/internal/notify"
	"duobudget/internal/services"
)

// NewRouter builds the API router on top of db. Email jobs go out through
// publisher.
func NewRouter(cfg *config.Config, db *gorm.DB, publisher notify.Publisher) *gin.Engine {
	issuer := middleware.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.MagicLinkTTL)
	mailer := notify.NewMailer(publisher, cfg.FrontendURL)

	// Services
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	expenseService := services.NewExpenseService(db)
	chargeService := services.NewRecurringChargeService(db)
	projectService := services.NewProjectService(db)
	childBudgetService := services.NewChildBudgetService(db)
	childExpenseService := services.NewChildExpenseService(db, cfg.Now)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, issuer, mailer, auditService)
	userHandler := handlers.NewUserHandler(userService, issuer, mailer, auditService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService)
	chargeHandler := handlers.NewRecurringChargeHandler(chargeService, auditService)
	projectHandler := handlers.NewProjectHandler(projectService, auditService)
	childBudgetHandler := handlers.NewChildBudgetHandler(childBudgetService, auditService)
	childExpenseHandler := handlers.NewChildExpenseHandler(childExpenseService, auditService)
	internalHandler := handlers.NewInternalHandler(userService, childBudgetService, cfg.Now)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	if !cfg.IsProduction() {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/set-password", authHandler.SetPassword)
	auth.POST("/forgot-password", authHandler.ForgotPassword)

	// Machine-to-machine routes
	internal := v1.Group("/internal")
	internal.Use(middleware.ServiceKeyMiddleware(cfg.ServiceAPIKey))
	internal.POST("/child-budgets/rollover", internalHandler.RolloverCarryover)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(issuer))

	protected.GET("/auth/me", authHandler.Me)

	users := protected.Group("/users")
	users.GET("", middleware.RequireRole(models.RoleAdmin, models.RoleUser), userHandler.ListUsers)
	users.POST("", middleware.RequireRole(models.RoleAdmin), userHandler.InviteUser)
	users.GET("/:id", userHandler.GetUser)
	users.PATCH("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), userHandler.DeleteUser)

	// Children only ever reach their own purchases and summary.
	childExpenses := protected.Group("/child-expenses")
	childExpenses.GET("", childExpenseHandler.ListChildExpenses)
	childExpenses.POST("", childExpenseHandler.CreateChildExpense)
	childExpenses.GET("/summary", childExpenseHandler.GetSummary)
	childExpenses.GET("/:id", childExpenseHandler.GetChildExpense)
	childExpenses.PUT("/:id", childExpenseHandler.UpdateChildExpense)
	childExpenses.DELETE("/:id", childExpenseHandler.DeleteChildExpense)

	// Shared household areas
	adults := protected.Group("")
	adults.Use(middleware.RequireRole(models.RoleAdmin, models.RoleUser))

	accounts := adults.Group("/accounts")
	accounts.GET("", accountHandler.ListAccounts)
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PATCH("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.POST("/:id/funds", accountHandler.AddFunds)

	categories := adults.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PATCH("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	expenses := adults.Group("/expenses")
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("/stats/by-category", expenseHandler.TotalsByCategory)
	expenses.GET("/stats/monthly/:year", expenseHandler.MonthlyTotals)
	expenses.GET("/stats/balance", expenseHandler.Balance)
	expenses.GET("/stats/history", expenseHandler.MonthlyHistory)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PATCH("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	charges := adults.Group("/recurring-charges")
	charges.GET("", chargeHandler.ListCharges)
	charges.POST("", chargeHandler.CreateCharge)
	charges.GET("/summary", chargeHandler.GetSummary)
	charges.GET("/:id", chargeHandler.GetCharge)
	charges.PATCH("/:id", chargeHandler.UpdateCharge)
	charges.DELETE("/:id", chargeHandler.DeleteCharge)

	projects := adults.Group("/projects")
	projects.GET("", projectHandler.ListProjects)
	projects.POST("", projectHandler.CreateProject)
	projects.GET("/:id", projectHandler.GetProject)
	projects.PATCH("/:id", projectHandler.UpdateProject)
	projects.DELETE("/:id", projectHandler.DeleteProject)
	projects.GET("/:id/contributions", projectHandler.ListContributions)
	projects.POST("/:id/contributions", projectHandler.AddContribution)
	projects.DELETE("/:id/contributions/:contribution_id", projectHandler.RemoveContribution)

	childBudgets := protected.Group("/child-budgets")
	childBudgets.Use(middleware.RequireRole(models.RoleAdmin))
	childBudgets.GET("", childBudgetHandler.ListBudgets)
	childBudgets.POST("", childBudgetHandler.SetBudget)
	childBudgets.POST("/carryover", childBudgetHandler.ApplyCarryover)
	childBudgets.GET("/:year/:month", childBudgetHandler.GetBudget)
	childBudgets.PUT("/:year/:month", childBudgetHandler.UpdateBudget)
	childBudgets.DELETE("/:year/:month", childBudgetHandler.DeleteBudget)
	childBudgets.GET("/:year/:month/carryover", childBudgetHandler.CalculateCarryover)

	return router
}

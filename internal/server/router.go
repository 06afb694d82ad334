// Package server assembles the HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "budgeteer/internal/docs" // Import swagger docs
	"budgeteer/internal/handlers"
	"budgeteer/internal/logger"
	"budgeteer/internal/middleware"
	"budgeteer/internal/services"
	"budgeteer/internal/validator"
)

// Deps are the collaborators the router needs.
type Deps struct {
	JWTSecret  string
	Log        *zap.SugaredLogger
	Categories services.CategoryServicer
	Budgets    services.BudgetServicer
	Audit      services.AuditServicer
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}

	// Register custom validators before any route binds a request
	validator.Register()

	categoryHandler := handlers.NewCategoryHandler(d.Categories, d.Audit)
	budgetHandler := handlers.NewBudgetHandler(d.Budgets, d.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging(log))
	router.Use(middleware.ErrorHandler(log))
	router.Use(cors())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Every route is scoped to the user in the path, who must be the token's user.
	user := router.Group("/api/v1/:user_id")
	user.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.RequireSameUser())

	categories := user.Group("/categories")
	categories.POST("/create", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:category_id", categoryHandler.GetCategory)
	categories.PUT("/:category_id/update", categoryHandler.UpdateCategory)
	categories.DELETE("/:category_id/delete", categoryHandler.DeleteCategory)

	budgets := user.Group("/budgets")
	budgets.POST("/upsert", budgetHandler.UpsertBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:budget_id", budgetHandler.GetBudget)
	budgets.GET("/:budget_id/progress", budgetHandler.GetBudgetProgress)
	budgets.PUT("/:budget_id/update", budgetHandler.UpdateBudget)
	budgets.DELETE("/:budget_id/delete", budgetHandler.DeleteBudget)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

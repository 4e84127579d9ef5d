package api

import (
	"net/http"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/service"

	"github.com/gin-gonic/gin"
)

// Services bundles what the router needs.
type Services struct {
	Auth     service.AuthService
	Members  service.MemberService
	Catalog  service.CatalogService
	Expenses service.ExpenseService
	POS      service.POSService
	Sales    service.SalesService
	Reports  service.ReportService
	Location *time.Location
	Clock    service.Clock
}

func SetupRoutes(router *gin.Engine, svc Services) {
	loc := svc.Location
	if loc == nil {
		loc = time.UTC
	}

	authHandler := NewAuthHandler(svc.Auth)
	memberHandler := NewMemberHandler(svc.Members, loc)
	catalogHandler := NewCatalogHandler(svc.Catalog)
	expenseHandler := NewExpenseHandler(svc.Expenses, loc)
	posHandler := NewPOSHandler(svc.POS, loc)
	salesHandler := NewSalesHandler(svc.Sales, loc, svc.Clock)
	reportHandler := NewReportHandler(svc.Reports, loc, svc.Clock)

	authMiddleware := AuthMiddleware(svc.Auth)
	adminOnly := RoleMiddleware(domain.RoleAdmin)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Operator accounts (admin) ---
		users := protected.Group("/users", adminOnly)
		{
			users.GET("", authHandler.ListUsers)
			users.POST("", authHandler.CreateUser)
			users.GET("/:id", authHandler.GetUser)
		}

		// --- Members ---
		members := protected.Group("/members")
		{
			members.GET("", memberHandler.ListMembers)
			members.POST("", memberHandler.CreateMember)
			members.GET("/:id", memberHandler.GetMember)
			members.PUT("/:id", memberHandler.UpdateMember)
			members.DELETE("/:id", adminOnly, memberHandler.DeleteMember)
			members.POST("/reconcile", adminOnly, memberHandler.Reconcile)
		}

		// --- Catalog ---
		trainers := protected.Group("/trainers")
		{
			trainers.GET("", catalogHandler.ListTrainers)
			trainers.POST("", catalogHandler.CreateTrainer)
			trainers.GET("/:id", catalogHandler.GetTrainer)
			trainers.PUT("/:id", catalogHandler.UpdateTrainer)
			trainers.DELETE("/:id", adminOnly, catalogHandler.DeleteTrainer)
		}
		plans := protected.Group("/memberships")
		{
			plans.GET("", catalogHandler.ListPlans)
			plans.POST("", catalogHandler.CreatePlan)
			plans.GET("/:id", catalogHandler.GetPlan)
			plans.PUT("/:id", catalogHandler.UpdatePlan)
			plans.DELETE("/:id", adminOnly, catalogHandler.DeletePlan)
		}
		products := protected.Group("/products")
		{
			products.GET("", catalogHandler.ListProducts)
			products.POST("", catalogHandler.CreateProduct)
			products.GET("/:id", catalogHandler.GetProduct)
			products.PUT("/:id", catalogHandler.UpdateProduct)
			products.DELETE("/:id", adminOnly, catalogHandler.DeleteProduct)
			products.PUT("/:id/image", catalogHandler.UploadProductImage)
			products.GET("/:id/image", catalogHandler.ProductImage)
		}
		food := protected.Group("/food")
		{
			food.GET("", catalogHandler.ListFood)
			food.POST("", catalogHandler.CreateFood)
			food.GET("/:id", catalogHandler.GetFood)
			food.PUT("/:id", catalogHandler.UpdateFood)
			food.DELETE("/:id", adminOnly, catalogHandler.DeleteFood)
		}

		// --- Expenses ---
		expenses := protected.Group("/expenses")
		{
			expenses.GET("", expenseHandler.ListExpenses)
			expenses.POST("", expenseHandler.CreateExpense)
			expenses.GET("/departments", expenseHandler.Departments)
			expenses.GET("/:id", expenseHandler.GetExpense)
			expenses.PUT("/:id", expenseHandler.UpdateExpense)
			expenses.DELETE("/:id", adminOnly, expenseHandler.DeleteExpense)
		}

		// --- Point of sale ---
		pos := protected.Group("/pos")
		{
			pos.POST("/membership", posHandler.SellMembership)
			pos.POST("/trainer", posHandler.AssignTrainer)
			pos.POST("/products", posHandler.SellProducts)
			pos.POST("/restaurant", posHandler.SellFood)
		}

		// --- Sales ledger ---
		sales := protected.Group("/sales")
		{
			sales.GET("", salesHandler.ListSales)
			sales.GET("/export.csv", adminOnly, salesHandler.ExportCSV)
			sales.GET("/:invoiceId", salesHandler.GetSale)
			sales.POST("/:invoiceId/settle", salesHandler.SettleSale)
			sales.GET("/:invoiceId/invoice", salesHandler.GetInvoice)
			sales.GET("/:invoiceId/invoice.pdf", salesHandler.InvoicePDF)
			sales.POST("/:invoiceId/invoice/archive", salesHandler.ArchiveInvoice)
		}

		// --- Reports (admin) ---
		reports := protected.Group("/reports", adminOnly)
		{
			reports.GET("/dashboard", reportHandler.Dashboard)
			reports.GET("/expenses", reportHandler.ExpenseReport)
			reports.GET("/memberships", reportHandler.MembershipReport)
			reports.GET("/products", reportHandler.ProductReport)
			reports.GET("/kitchen", reportHandler.KitchenReport)
		}
	}
}

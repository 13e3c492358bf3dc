package http

import (
	"github.com/edamame-dev/canteen/internal/adapter/config"
	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/edamame-dev/canteen/internal/core/port"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	conf *config.HTTP,
	tokenService port.TokenService,
	accountHandler *AccountHandler,
	orderHandler *OrderHandler,
	menuHandler *MenuHandler,
	reportHandler *ReportHandler) (*Router, error) {

	router := gin.New()

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	{
		api.POST("/auth/login", accountHandler.Login)

		accounts := api.Group("/accounts")
		{
			accounts.Use(authCheck(tokenService))
			accounts.GET("", roleCheck(domain.RoleAdmin, domain.RoleCurator), accountHandler.ListAccounts)
			accounts.POST("", roleCheck(domain.RoleAdmin, domain.RoleCurator), accountHandler.CreateAccount)
			accounts.GET("/:id", accountHandler.GetAccount)
			accounts.PATCH("/:id", roleCheck(domain.RoleAdmin, domain.RoleCurator), accountHandler.UpdateAccount)
			accounts.POST("/:id/password", accountHandler.ChangePassword)
			accounts.POST("/:id/balance", accountHandler.AdjustBalance)
			accounts.GET("/:id/ledger", accountHandler.LedgerHistory)
		}

		menu := api.Group("/menu")
		{
			menu.Use(authCheck(tokenService))
			menu.GET("", menuHandler.GetMenu)
			menu.POST("", roleCheck(domain.RoleCurator), menuHandler.CreateDishes)
			menu.PATCH("/:id", roleCheck(domain.RoleCurator), menuHandler.UpdateDish)
			menu.DELETE("/:id", roleCheck(domain.RoleCurator), menuHandler.DeleteDish)
		}

		reports := api.Group("/reports")
		{
			reports.Use(authCheck(tokenService))
			staffOnly := roleCheck(domain.RoleAdmin, domain.RoleCurator)
			reports.GET("/orders", staffOnly, reportHandler.GroupOrders)
			reports.GET("/cafeteria", staffOnly, reportHandler.GroupCafeteria)
			reports.GET("/balances", staffOnly, reportHandler.GroupBalances)
			reports.GET("/debtors", staffOnly, reportHandler.GroupDebtors)
			reports.GET("/ledger", staffOnly, reportHandler.GroupLedger)
			reports.GET("/my/orders", reportHandler.MyOrders)
			reports.GET("/my/ledger", reportHandler.MyLedger)
		}

		orders := api.Group("/orders")
		{
			orders.Use(authCheck(tokenService))
			orders.POST("", orderHandler.CreateOrder)
			orders.POST("/beneficiary", orderHandler.CreateBeneficiaryOrder)
			orders.PUT("/:id", orderHandler.UpdateOrder)
			orders.DELETE("/:id", orderHandler.DeleteOrder)
			orders.GET("", roleCheck(domain.RoleAdmin, domain.RoleCurator), orderHandler.ListOrders)
			orders.GET("/my", orderHandler.ListMyOrders)
			orders.GET("/today", orderHandler.ListTodayOrders)
		}
	}

	return &Router{router}, nil
}

// Serve starts the HTTP server
func (r *Router) Serve(listenAddr string) error {
	return r.Run(listenAddr)
}

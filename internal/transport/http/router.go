package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mperera/lottery-dms/internal/handlers"
	"github.com/mperera/lottery-dms/internal/service/token"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	LotteryHandler *handlers.LotteryHandler
	CartHandler    *handlers.CartHandler
	OrderHandler   *handlers.OrderHandler
	ReportHandler  *handlers.ReportHandler
	SearchHandler  *handlers.SearchHandler
	TokenService   *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.GET("/search", d.SearchHandler.Search)

	lotteries := v1.Group("/lotteries")
	lotteries.GET("", d.LotteryHandler.GetLotteries)
	lotteries.GET("/:id", d.LotteryHandler.GetLottery)

	agent := v1.Group("", d.TokenService.RequireAgent())
	agent.GET("/cart", d.CartHandler.GetCart)
	agent.POST("/cart", d.CartHandler.AddToCart)
	agent.DELETE("/cart/:id", d.CartHandler.DeleteFromCart)
	agent.DELETE("/cart/:id/all", d.CartHandler.ClearCartLine)
	agent.POST("/cart/checkout", d.CartHandler.Checkout)
	agent.GET("/orders", d.OrderHandler.ListOwn)
	agent.GET("/orders/:id", d.OrderHandler.GetOwn)
	agent.PATCH("/orders/:id/items", d.OrderHandler.UpdateOwnItems)

	staff := v1.Group("/staff", d.TokenService.RequireStaff())
	staff.GET("/orders", d.OrderHandler.List)
	staff.PATCH("/orders/:id/status", d.OrderHandler.AdvanceStatus)
	staff.PUT("/orders/:id/delivery", d.OrderHandler.AssignDelivery)
	staff.PATCH("/orders/:id/items", d.OrderHandler.UpdateItems)
	staff.PATCH("/stock/:lotteryID", d.LotteryHandler.SetStock)
	staff.GET("/reports/sales", d.ReportHandler.Sales)

	admin := v1.Group("/admin", d.TokenService.RequireAdmin())
	admin.POST("/lotteries", d.LotteryHandler.CreateLottery)
	admin.PATCH("/lotteries/:id", d.LotteryHandler.PatchLottery)
	admin.DELETE("/lotteries/:id", d.LotteryHandler.DeleteLottery)
	admin.DELETE("/orders/:id", d.OrderHandler.Delete)
	admin.POST("/users", d.AuthHandler.CreateUser)
}

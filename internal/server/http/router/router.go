package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/polkiloo/checkout/internal/config"
	_ "github.com/polkiloo/checkout/internal/server/http/docs"
	"github.com/polkiloo/checkout/internal/server/http/handlers"
	"github.com/polkiloo/checkout/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.Facade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest(middleware.DefaultMaxBodyBytes))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	checkoutHandler := handlers.NewCheckoutHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade, facade)
	paymentHandler := handlers.NewPaymentHandler(facade, cfg.FrontendURL, logger)
	adminHandler := handlers.NewAdminHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group("/api")
	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.POST("/checkout", checkoutHandler.Checkout)
	authed.GET("/user/orders", orderHandler.List)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(facade), middleware.AdminRequired())
	admin.PATCH("/orders/:orderId/status", adminHandler.ChangeStatus)
	admin.POST("/orders/:orderId/cash-collected", adminHandler.CashCollected)

	payment := engine.Group("/payment")
	for _, route := range []struct {
		path    string
		handler gin.HandlerFunc
	}{
		{"/success-redirect/:orderId", paymentHandler.SuccessRedirect},
		{"/fail-redirect/:orderId", paymentHandler.FailRedirect},
		{"/cancel-redirect/:orderId", paymentHandler.CancelRedirect},
	} {
		payment.GET(route.path, route.handler)
		payment.POST(route.path, route.handler)
	}
	payment.POST("/ipn", paymentHandler.Notify)

	owned := payment.Group("/order")
	owned.Use(middleware.AuthRequired(facade))
	owned.GET("/:orderId", orderHandler.Get)
	owned.POST("/:orderId/retry", orderHandler.RetryPayment)

	return engine
}

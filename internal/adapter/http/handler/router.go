package handler

import (
	"wallet-settlement/internal/adapter/http/middleware"
	redisStore "wallet-settlement/internal/adapter/storage/redis"
	"wallet-settlement/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	SettlementSvc  ports.SettlementService
	PaymentSvc     ports.PaymentQueryService
	MerchantSvc    ports.MerchantService
	WalletSvc      ports.WalletService
	TokenSvc       ports.TokenService
	Currency       string
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep: verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AccountSvc)
	register := v1.Group("/register")
	{
		register.POST("/start", rl("register_start"), authHandler.RegisterStart)
		register.POST("/verify", rl("register_verify"), authHandler.RegisterVerify)
		register.POST("/complete", rl("register_verify"), authHandler.RegisterComplete)
	}

	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)

		email := auth.Group("/email", jwtAuth)
		email.POST("/start", rl("email_start"), authHandler.EmailStart)
		email.POST("/verify", rl("register_verify"), authHandler.EmailVerify)
	}

	// --- JWT-authenticated routes ---
	paymentHandler := NewPaymentHandler(deps.SettlementSvc, deps.PaymentSvc, deps.MerchantSvc)
	payments := v1.Group("/payments", jwtAuth)
	{
		payments.POST("", rl("payments"), paymentHandler.Settle)
		payments.GET("", rl("read"), paymentHandler.List)
		payments.GET("/:id", rl("read"), paymentHandler.Get)
		payments.PUT("/:id", rl("writes"), paymentHandler.Update)
		payments.DELETE("/:id", rl("writes"), paymentHandler.Delete)
		payments.PUT("/:id/cancel", rl("writes"), paymentHandler.Cancel)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc, deps.Currency)
	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/me", rl("read"), walletHandler.GetMine)
	}

	userHandler := NewUserHandler(deps.AccountSvc)
	users := v1.Group("/users", jwtAuth)
	{
		users.GET("/me", rl("read"), userHandler.GetMe)
		users.PUT("/me", rl("writes"), userHandler.UpdateMe)
		users.PUT("/me/password", rl("auth_login"), userHandler.ChangePassword)
	}

	merchantHandler := NewMerchantHandler(deps.MerchantSvc)
	merchants := v1.Group("/merchants", jwtAuth)
	{
		merchants.POST("", rl("writes"), merchantHandler.Create)
		merchants.GET("/mine", rl("read"), merchantHandler.ListMine)
	}

	return r
}

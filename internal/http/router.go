// Package httpapi assembles the HTTP surface: middleware chain, route
// registration, and the dependency wiring that turns the storage, retrieval,
// and completion layers into request handlers.
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/auralabs/go-assistant-backend/internal/config"
	"github.com/auralabs/go-assistant-backend/internal/http/handlers"
	"github.com/auralabs/go-assistant-backend/internal/http/middleware"
	"github.com/auralabs/go-assistant-backend/internal/llm"
	"github.com/auralabs/go-assistant-backend/internal/memory"
	"github.com/auralabs/go-assistant-backend/internal/services"
	"github.com/auralabs/go-assistant-backend/internal/vector"
)

// maxBodyBytes caps request bodies. Chat messages are small; anything larger
// is abuse or a mistake.
const maxBodyBytes = 1 << 20

// Deps carries the externally constructed dependencies the HTTP layer wires
// together. The semantic store backs conversation memory; the manual store
// backs retrieval.
type Deps struct {
	DB       *gorm.DB
	LLM      llm.Completer
	Semantic *vector.Store
	Manuals  *vector.Store
}

// limitBody rejects oversized request bodies before handlers read them.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			handlers.Fail(c, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// RegisterRoutes installs the middleware chain and all API routes on r, and
// returns the assembled retrieval service so the caller can warm the manual
// index at boot.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) *services.RetrievalService {
	// --- middleware chain, order matters ---
	if cfg.OTEL.Enabled {
		r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySessionOrIP())
	r.Use(rl.Handler())

	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORS.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Session-ID"},
			ExposeHeaders: []string{"X-Request-ID"},
		}))
	} else {
		r.Use(cors.Default())
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// --- operational endpoints ---
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// --- dependency wiring ---
	mem := memory.New(deps.DB, deps.Semantic, cfg.Memory.CacheSize)
	products := &services.ProductService{DB: deps.DB}
	orders := &services.OrderService{DB: deps.DB}

	retrieval := &services.RetrievalService{
		Memory:    mem,
		Products:  products,
		Manuals:   deps.Manuals,
		LLM:       deps.LLM,
		TopK:      cfg.Retrieval.TopK,
		Threshold: cfg.Retrieval.Threshold,
	}
	actions := &services.Actions{
		Orders:   orders,
		Products: products,
		Manuals:  retrieval,
	}
	assistant := &services.AssistantService{
		Memory: mem,
		Router: &services.Router{
			Memory:        mem,
			LLM:           deps.LLM,
			ProductExpert: retrieval,
			OrderSupport:  &services.CustomerService{Memory: mem, LLM: deps.LLM, Actions: actions},
			GeneralChat:   &services.GeneralChatService{Memory: mem, LLM: deps.LLM},
		},
		MaxMessageRunes: cfg.Memory.MaxMessageRunes,
	}

	chatH := &handlers.ChatHandler{Assistant: assistant}
	orderH := &handlers.OrderHandler{Orders: orders}
	productH := &handlers.ProductHandler{Products: products}

	// --- API routes ---
	api := r.Group(cfg.APIBasePath)
	{
		api.POST("/chat", chatH.SendMessage)
		api.GET("/chat/:sessionId/history", chatH.GetHistory)
		api.DELETE("/chat/:sessionId/history", chatH.ClearHistory)

		api.POST("/orders", orderH.PlaceOrder)
		api.GET("/orders", orderH.ListOrders)
		api.GET("/orders/:orderNumber", orderH.GetOrder)
		api.PUT("/orders/:orderNumber/status", orderH.UpdateStatus)
		api.PUT("/orders/:orderNumber/address", orderH.UpdateAddress)

		api.GET("/products", productH.ListProducts)
		api.GET("/products/:id", productH.GetProduct)
	}

	return retrieval
}

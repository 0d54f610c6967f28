package router

import (
	"github.com/gin-gonic/gin"

	"greenledger/internal/handler"
	"greenledger/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	corsOrigins []string,
	invoiceH *handler.InvoiceHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	invoices := v1.Group("/invoices")
	invoices.POST("/upload", invoiceH.Upload)
	invoices.GET("", invoiceH.List)
	// Static segments before the :id parameter route.
	invoices.GET("/duplicates", invoiceH.Duplicates)
	invoices.GET("/export", invoiceH.Export)
	invoices.GET("/:id", invoiceH.Get)
	invoices.DELETE("/:id", invoiceH.Delete)

	return r
}

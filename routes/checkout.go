package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutControllers "github.com/templateverse/marketplace-api/controllers/checkout"
	"github.com/templateverse/marketplace-api/middleware"
)

// SetupCheckoutRoutes registers the two PayPal broker endpoints the hosted
// payment widget calls, plus the cancel hook.
func SetupCheckoutRoutes(r *gin.Engine, broker *checkoutControllers.Broker) {
	checkoutGroup := r.Group("/checkout/paypal")

	// The hosted widget preflights both brokers.
	checkoutGroup.OPTIONS("/orders", preflightOK)
	checkoutGroup.OPTIONS("/orders/capture", preflightOK)

	checkoutGroup.Use(middleware.ValidateToken)
	{
		checkoutGroup.POST("/orders", broker.CreateOrder)
		checkoutGroup.POST("/orders/capture", broker.CaptureOrder)
		checkoutGroup.POST("/orders/cancel", broker.CancelAttempt)
	}
}

func preflightOK(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/xresponse"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	router *gin.Engine,
	accountHandler *AccountHandler,
	transactionHandler *TransactionHandler,
	internalSecret string,
) {
	router.GET("/", func(c *gin.Context) {
		xresponse.Success(c, "Service is online", gin.H{
			"service": "banking-api",
			"status":  "online",
		})
	})

	// Balance lookups are internal-only, shielded by the gateway's shared
	// secret. Transfer submission is fronted by the gateway directly.
	accounts := router.Group("/accounts")
	accounts.Use(InternalAuth(internalSecret))
	{
		accounts.GET("/:id/balance", accountHandler.GetBalance)
	}

	router.POST("/transactions", transactionHandler.SubmitTransaction)

	logger.Info("API routes configured successfully")
}

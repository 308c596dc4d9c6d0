package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getHome godoc
// @Summary Show service banner
// @Description Returns a welcome message for the ShopLedger backend API.
// @Tags home
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func getHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the ShopLedger API. See /swagger/index.html for documentation."})
}

// getHealth godoc
// @Summary Health check
// @Description Liveness probe for load balancers and orchestrators.
// @Tags home
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

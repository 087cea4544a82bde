package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const brandName = "D-Carbon"

// HomeHandler serves the landing page.
func HomeHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", gin.H{
		"Title":   "Home",
		"Service": brandName,
	})
}

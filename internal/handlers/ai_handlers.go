package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ResearchInput struct {
	Query string `json:"query" binding:"required,max=4000"`
}

// RunResearch sends the query to the research service. Each call uses one
// unit of the daily research allowance.
func (h *Handlers) RunResearch(c *gin.Context) {
	var input ResearchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.Resources.RunResearch(c.Request.Context(), currentAdmin(c), input.Query)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"research":   r,
		"tokensUsed": r.TokensUsed,
	})
}

func (h *Handlers) GetMyResearch(c *gin.Context) {
	list, err := h.Resources.ListResearch(c.Request.Context(), currentAdmin(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"research": list})
}

package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

// RazorpayWebhook receives gateway events. It is public; the signature is
// the only authentication.
func (h *Handlers) RazorpayWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	res := h.Webhooks.HandleWebhook(c.Request.Context(), body,
		c.GetHeader("x-razorpay-signature"), c.GetHeader("x-razorpay-event-id"))
	if res.Status != http.StatusOK {
		c.JSON(res.Status, gin.H{"error": res.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "status": res.Message})
}

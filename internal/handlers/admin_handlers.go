package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/01moynul/projectforge-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// --- Admin Registration ---

type RegisterAdminInput struct {
	FullName    string  `json:"fullName" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	CompanyName *string `json:"companyName"`
}

// RegisterAdmin creates a tenant on the free plan.
func (h *Handlers) RegisterAdmin(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterAdminInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// 2. --- Email must be unused ---
	if _, err := h.Store.GetAdminByEmail(ctx, email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeServiceError(c, err)
		return
	}

	// 3. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	// 4. --- Save on the free plan (single transaction) ---
	admin := &models.Admin{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     input.FullName,
		CompanyName:  input.CompanyName,
		PasswordHash: password.Hash,
	}
	if _, err := h.Billing.SignUp(ctx, admin); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Signup failed")
		writeServiceError(c, err)
		return
	}

	token, err := h.Tokens.GenerateToken(admin.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	created, err := h.Store.GetAdmin(ctx, admin.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Admin registered successfully",
		"token":   token,
		"admin":   created,
	})
}

// --- Login ---

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin, err := h.Store.GetAdminByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		writeServiceError(c, err)
		return
	}

	password := models.Password{Hash: admin.PasswordHash}
	ok, err := password.Matches(input.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.Tokens.GenerateToken(admin.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

package handlers

import (
	"errors"
	"fmt"
	"sync"

	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the custom binding tags used by request structs.
// Binding a struct with an unregistered tag panics, so callers must treat an
// error here as fatal.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding engine is not go-playground/validator")
			return
		}
		if err := v.RegisterValidation("billing_cycle", func(fl validator.FieldLevel) bool {
			return models.BillingCycle(fl.Field().String()).Valid()
		}); err != nil {
			registerErr = fmt.Errorf("register billing_cycle validator: %w", err)
		}
	})
	return registerErr
}

package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	govalidator "github.com/go-playground/validator/v10"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/middleware"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse is returned by operations that only report success.
type MessageResponse struct {
	Message string `json:"message"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// bindingError turns a gin binding failure into an AppError. Month format
// failures keep the same message the services use.
func bindingError(err error) *apperrors.AppError {
	var verrs govalidator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "budget_month" {
				return apperrors.ErrInvalidMonth
			}
		}
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// respondWithError hands err to middleware.ErrorHandler, which renders it,
// and stops the chain.
func respondWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

package apierrors

import (
	"github.com/gin-gonic/gin"
)

// APIError represents the JSON error response structure.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error sends an error response using a registered error code.
func Error(c *gin.Context, code string) {
	status := Registry.HTTPStatus(code)
	message := Registry.Message(code)
	c.JSON(status, gin.H{"error": APIError{Code: code, Message: message}})
}

// ErrorWithMessage sends an error response with a custom message.
func ErrorWithMessage(c *gin.Context, code, message string) {
	status := Registry.HTTPStatus(code)
	c.JSON(status, gin.H{"error": APIError{Code: code, Message: message}})
}

// ErrorFrom maps a sentinel error from the service layer to its registered
// code and sends the response. The NotFound message is always the registry
// default so "missing" and "out of scope" responses are byte-identical.
func ErrorFrom(c *gin.Context, err error) {
	Error(c, CodeForError(err))
}

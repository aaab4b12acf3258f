package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"tracker/internal/auth"
	"tracker/internal/models"
	"tracker/internal/storage"
)

var (
	notFoundBody    = gin.H{"detail": "Not found."}
	serverErrorBody = gin.H{"detail": "Internal Server Error"}
)

// fieldErrors is the body of a 400 answer: field name to messages.
type fieldErrors map[string][]string

func fieldError(field, message string) fieldErrors {
	return fieldErrors{field: {message}}
}

// respondError maps err to a status and body and logs it.
func (s *Server) respondError(c *gin.Context, err error) {
	status, body := classify(err)

	event := s.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = s.logger.Error()
	}
	event.Err(err).
		Str("path", c.FullPath()).
		Str("request_id", c.GetString(requestIDKey)).
		Int("status", status).
		Msg("request failed")

	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, any) {
	var (
		verr      *models.ValidationError
		bindErrs  validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, fieldError(verr.Field, verr.Message)
	case errors.As(err, &bindErrs):
		body := fieldErrors{}
		for _, fe := range bindErrs {
			body[fe.Field()] = append(body[fe.Field()], tagMessage(fe))
		}
		return http.StatusBadRequest, body
	case errors.As(err, &typeErr):
		return http.StatusBadRequest, fieldError(typeErr.Field, "Incorrect type.")
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, gin.H{"detail": "JSON parse error."}
	case errors.Is(err, storage.ErrUsernameTaken):
		return http.StatusBadRequest, fieldError("username", "A user with that username already exists.")
	case errors.Is(err, storage.ErrEmailTaken):
		return http.StatusBadRequest, fieldError("email", "A user with that email already exists.")
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, notFoundBody
	case errors.Is(err, models.ErrColumnOccupied):
		return http.StatusConflict, gin.H{"detail": "Column still contains tasks."}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"}
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, gin.H{"detail": "Given token not valid."}
	default:
		return http.StatusInternalServerError, serverErrorBody
	}
}

// tagMessage renders a failed binding rule the way field errors read
// everywhere else in the API.
func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	default:
		return "Invalid value."
	}
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"auth_backend/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorEnvelope is the uniform JSON error body for every non-2xx response.
// Message is either a string or a list of field-level validation errors.
type ErrorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
}

func writeEnvelope(c *gin.Context, status int, message any, tag string) {
	c.JSON(status, ErrorEnvelope{
		StatusCode: status,
		Message:    message,
		Error:      tag,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       c.Request.URL.Path,
	})
}

// ErrorNormalizer is the single boundary translating every failure raised by
// handlers or upstream middleware into the error envelope. Nothing escapes
// unnormalized: unrecognized errors become a generic 500.
func ErrorNormalizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, message, tag := normalize(err)
		if status >= http.StatusInternalServerError {
			LoggerFromContext(c).Error("unhandled error", "error", err.Error(), "status", status)
		}
		writeEnvelope(c, status, message, tag)
	}
}

// Recovery converts panics into the same envelope instead of gin's default
// plain-text 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, _ any) {
		writeEnvelope(c, http.StatusInternalServerError, "Internal server error", "")
		c.Abort()
	})
}

// NotFoundHandler answers unrouted paths with the envelope.
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		writeEnvelope(c, http.StatusNotFound, "Cannot "+c.Request.Method+" "+c.Request.URL.Path, "Not Found")
	}
}

// normalize maps one failure to exactly one (status, message, tag) triple.
func normalize(err error) (int, any, string) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, fieldErrors(vErrs), "Bad Request"
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperr.KindValidation:
			return http.StatusBadRequest, appErr.Message, "Bad Request"
		case apperr.KindUnauthenticated:
			return http.StatusUnauthorized, appErr.Message, "Unauthorized"
		case apperr.KindForbidden:
			return http.StatusForbidden, appErr.Message, "Forbidden"
		case apperr.KindNotFound:
			return http.StatusNotFound, appErr.Message, "RecordNotFound"
		case apperr.KindConflict:
			return http.StatusConflict, appErr.Message, "UniqueConstraintViolation"
		case apperr.KindStoreRequest:
			return http.StatusBadRequest, appErr.Message, "StoreRequestError"
		case apperr.KindStoreValidation:
			return http.StatusBadRequest, appErr.Message, "StoreValidationError"
		case apperr.KindStoreUnavailable:
			return http.StatusServiceUnavailable, appErr.Message, "StoreInitializationError"
		case apperr.KindStoreInternal:
			return http.StatusInternalServerError, appErr.Message, "StoreInternalError"
		case apperr.KindUnknown:
			if appErr.Err != nil {
				return http.StatusInternalServerError, appErr.Err.Error(), typeName(appErr.Err)
			}
		}
	}

	if err != nil && err.Error() != "" {
		return http.StatusInternalServerError, err.Error(), typeName(err)
	}

	return http.StatusInternalServerError, "Internal server error", ""
}

func fieldErrors(vErrs validator.ValidationErrors) []apperr.FieldError {
	fields := make([]apperr.FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		fields = append(fields, apperr.FieldError{
			Field:  strings.ToLower(fe.Field()),
			Errors: []string{validationMessage(fe)},
		})
	}
	return fields
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", strings.ToLower(fe.Field()), fe.Param())
	case "phone":
		return "Invalid phone number"
	default:
		return fmt.Sprintf("%s failed on %s validation", strings.ToLower(fe.Field()), fe.Tag())
	}
}

// typeName reports the error's concrete Go type without package or pointer
// decoration, used as the tag for otherwise-unclassified errors.
func typeName(err error) string {
	name := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

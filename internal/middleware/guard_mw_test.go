package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"auth_backend/internal/apperr"
	"auth_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCheckApproved_NoPrincipal(t *testing.T) {
	err := CheckApproved(nil)

	var appErr *apperr.Error
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindUnauthenticated, appErr.Kind)
}

func TestCheckApproved_NotApproved(t *testing.T) {
	err := CheckApproved(&model.Principal{ID: uuid.New(), Status: model.StatusPending})

	var appErr *apperr.Error
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindForbidden, appErr.Kind)
	assert.Equal(t, "User is not approved", appErr.Message)
}

func TestCheckApproved_Approved(t *testing.T) {
	err := CheckApproved(&model.Principal{ID: uuid.New(), Status: model.StatusApproved})

	assert.NoError(t, err)
}

func guardRouter(principal *model.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorNormalizer())
	router.Use(func(c *gin.Context) {
		if principal != nil {
			c.Set(PrincipalKey, principal)
		}
		c.Next()
	})
	router.GET("/guarded", ApprovedUserMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestApprovedUserMiddleware_Passes(t *testing.T) {
	router := guardRouter(&model.Principal{ID: uuid.New(), Status: model.StatusApproved})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApprovedUserMiddleware_MissingPrincipal(t *testing.T) {
	router := guardRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var envelope ErrorEnvelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, http.StatusUnauthorized, envelope.StatusCode)
	assert.Equal(t, "Unauthorized", envelope.Error)
	assert.Equal(t, "/guarded", envelope.Path)
}

func TestApprovedUserMiddleware_NotApproved(t *testing.T) {
	router := guardRouter(&model.Principal{ID: uuid.New(), Status: model.StatusPending})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var envelope ErrorEnvelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "Forbidden", envelope.Error)
	assert.Equal(t, "User is not approved", envelope.Message)
}

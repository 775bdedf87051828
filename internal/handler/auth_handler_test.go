package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"auth_backend/internal/apperr"
	"auth_backend/internal/middleware"
	"auth_backend/internal/model"
	"auth_backend/internal/repository"
	"auth_backend/internal/service"
	"auth_backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// memoryUserRepo backs the full handler stack without a database.
type memoryUserRepo struct {
	users map[string]*model.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*model.User)}
}

func (m *memoryUserRepo) Create(_ context.Context, user *model.User) error {
	if _, exists := m.users[user.Phone]; exists {
		return apperr.New(apperr.KindConflict, "Unique constraint violation")
	}
	user.Status = model.StatusPending
	m.users[user.Phone] = user
	return nil
}

func (m *memoryUserRepo) FindByPhone(_ context.Context, phone string) (*model.User, error) {
	return m.users[phone], nil
}

func (m *memoryUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

var _ repository.UserRepository = (*memoryUserRepo)(nil)

// newTestRouter wires the real service, handler, and middleware chain over
// the in-memory repo, mirroring cmd/server.
func newTestRouter(repo repository.UserRepository, issuer *utils.TokenIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	binding.EnableDecoderDisallowUnknownFields = true
	RegisterValidators()

	authService := service.NewAuthService(repo, issuer)
	h := NewAuthHandler(authService)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorNormalizer())
	router.NoRoute(middleware.NotFoundHandler())

	jwtMW := middleware.JWTAuthMiddleware(issuer, repo)
	guardMW := middleware.ApprovedUserMiddleware()
	// Generous limits so throttling does not interfere with these tests
	limitMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000,
	})

	h.RegisterAuthRoutes(&router.RouterGroup, jwtMW, guardMW, limitMW, limitMW)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRegister_Success(t *testing.T) {
	router := newTestRouter(newMemoryUserRepo(), utils.NewTokenIssuer("secret", 15*time.Minute))

	w := postJSON(router, "/auth/register", `{"phone":"+12345678","password":"secret1"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"phone":"+12345678"}`, w.Body.String())
}

func TestRegister_InvalidPhone(t *testing.T) {
	router := newTestRouter(newMemoryUserRepo(), utils.NewTokenIssuer("secret", 15*time.Minute))

	tests := []string{
		`{"phone":"0123456789","password":"secret1"}`, // leading zero
		`{"phone":"+123","password":"secret1"}`,       // too short
		`{"phone":"not-a-phone","password":"secret1"}`,
		`{"phone":"+1234567890123456","password":"secret1"}`, // too long
	}

	for _, body := range tests {
		w := postJSON(router, "/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)

		var envelope struct {
			StatusCode int                 `json:"statusCode"`
			Message    []apperr.FieldError `json:"message"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.Len(t, envelope.Message, 1)
		assert.Equal(t, "phone", envelope.Message[0].Field)
		assert.Contains(t, envelope.Message[0].Errors, "Invalid phone number")
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	router := newTestRouter(newMemoryUserRepo(), utils.NewTokenIssuer("secret", 15*time.Minute))

	w := postJSON(router, "/auth/register", `{"phone":"+12345678","password":"short"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Message []apperr.FieldError `json:"message"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Message, 1)
	assert.Equal(t, "password", envelope.Message[0].Field)
}

func TestRegister_UnknownField(t *testing.T) {
	router := newTestRouter(newMemoryUserRepo(), utils.NewTokenIssuer("secret", 15*time.Minute))

	w := postJSON(router, "/auth/register", `{"phone":"+12345678","password":"secret1","role":"admin"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_Duplicate(t *testing.T) {
	router := newTestRouter(newMemoryUserRepo(), utils.NewTokenIssuer("secret", 15*time.Minute))

	w := postJSON(router, "/auth/register", `{"phone":"+12345678","password":"secret1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/auth/register", `{"phone":"+12345678","password":"other99"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	var envelope middleware.ErrorEnvelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "UniqueConstraintViolation", envelope.Error)
}

func TestLogin_Success(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret", 15*time.Minute)
	router := newTestRouter(newMemoryUserRepo(), issuer)

	postJSON(router, "/auth/register", `{"phone":"+12345678","password":"secret1"}`)

	w := postJSON(router, "/auth/login", `{"phone":"+12345678","password":"secret1"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)

	claims, err := issuer.Verify(resp.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, "+12345678", claims.Phone)
}

func TestLogin_WrongPassword(t *testing.T) {
	router := newTestRouter(newMemoryUserRepo(), utils.NewTokenIssuer("secret", 15*time.Minute))

	postJSON(router, "/auth/register", `{"phone":"+12345678","password":"secret1"}`)

	w := postJSON(router, "/auth/login", `{"phone":"+12345678","password":"wrongpass"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var envelope middleware.ErrorEnvelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "Invalid credentials", envelope.Message)
	assert.Equal(t, "Unauthorized", envelope.Error)
}

func TestLogin_UnknownPhone_SameMessage(t *testing.T) {
	router := newTestRouter(newMemoryUserRepo(), utils.NewTokenIssuer("secret", 15*time.Minute))

	postJSON(router, "/auth/register", `{"phone":"+12345678","password":"secret1"}`)

	wrongPass := postJSON(router, "/auth/login", `{"phone":"+12345678","password":"wrongpass"}`)
	unknownPhone := postJSON(router, "/auth/login", `{"phone":"+19999999","password":"wrongpass"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownPhone.Code)

	var first, second middleware.ErrorEnvelope
	assert.NoError(t, json.Unmarshal(wrongPass.Body.Bytes(), &first))
	assert.NoError(t, json.Unmarshal(unknownPhone.Body.Bytes(), &second))
	assert.Equal(t, first.Message, second.Message)
	assert.Equal(t, first.Error, second.Error)
}

func TestMe_ApprovedFlow(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret", 15*time.Minute)
	repo := newMemoryUserRepo()
	router := newTestRouter(repo, issuer)

	postJSON(router, "/auth/register", `{"phone":"+12345678","password":"secret1"}`)

	var loginResp struct {
		AccessToken string `json:"accessToken"`
	}
	w := postJSON(router, "/auth/login", `{"phone":"+12345678","password":"secret1"}`)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	// Freshly registered users are pending; the guard must reject them
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.AccessToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Approval is an external administrative transition
	repo.users["+12345678"].Status = model.StatusApproved

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.AccessToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var principal model.Principal
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &principal))
	assert.Equal(t, "+12345678", principal.Phone)
	assert.Equal(t, model.StatusApproved, principal.Status)
}

func TestMe_NoToken(t *testing.T) {
	router := newTestRouter(newMemoryUserRepo(), utils.NewTokenIssuer("secret", 15*time.Minute))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_ExpiredToken(t *testing.T) {
	expiredIssuer := utils.NewTokenIssuer("secret", -time.Minute)
	repo := newMemoryUserRepo()
	router := newTestRouter(repo, expiredIssuer)

	postJSON(router, "/auth/register", `{"phone":"+12345678","password":"secret1"}`)
	repo.users["+12345678"].Status = model.StatusApproved

	token, err := expiredIssuer.Sign(repo.users["+12345678"].ID, "+12345678")
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

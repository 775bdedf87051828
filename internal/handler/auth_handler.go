package handler

import (
	"errors"
	"net/http"
	"regexp"

	"auth_backend/internal/apperr"
	"auth_backend/internal/middleware"
	"auth_backend/internal/model"
	"auth_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// phoneRegex is the E.164-like login handle shape: optional +, first digit
// 1-9, 8 to 15 digits total.
var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{7,14}$`)

// RegisterValidators installs the custom phone rule on gin's binding engine.
// Call once at startup before serving.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phoneRegex.MatchString(fl.Field().String())
		})
	}
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindingError(err))
		c.Abort()
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	// The hash and internal id are never echoed back.
	c.JSON(http.StatusCreated, gin.H{"phone": user.Phone})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindingError(err))
		c.Abort()
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

// Me returns the authenticated, approved principal.
func (h *AuthHandler) Me(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)
	if p == nil {
		c.Error(apperr.New(apperr.KindUnauthenticated, "Unauthorized"))
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, p)
}

// bindingError converts gin binding failures into the tagged validation
// error the boundary normalizer formats per-field. Malformed JSON and
// unknown fields come through as a plain 400 with the decoder's message.
func bindingError(err error) error {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return vErrs
	}
	return apperr.Wrap(apperr.KindValidation, "Invalid request: "+err.Error(), err)
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW, guardMW, defaultLimitMW, loginLimitMW gin.HandlerFunc) {
	// Login overrides the default throttle profile with its own.
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", defaultLimitMW, h.Register)
		authGroup.POST("/login", loginLimitMW, h.Login)
		authGroup.GET("/me", defaultLimitMW, authMW, guardMW, h.Me)
	}
}

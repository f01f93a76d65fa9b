package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/walidkhelifa/consulink/internal/auth"
	"github.com/walidkhelifa/consulink/internal/auth/providers"
	"github.com/walidkhelifa/consulink/internal/models"
	"github.com/walidkhelifa/consulink/pkg/errors"
	"github.com/walidkhelifa/consulink/pkg/metrics"
	"github.com/walidkhelifa/consulink/pkg/response"
)

// AuthHandler exposes the code-based login and signup flows plus the
// authenticated profile endpoint.
type AuthHandler struct {
	db     *gorm.DB
	jwt    *iauth.JWTService
	login  providers.Provider
	signup providers.Provider
}

func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService, login, signup providers.Provider) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt, login: login, signup: signup}
}

type sendRequest struct {
	Identifier string `json:"identifier" validate:"required,max=254"`
}

type verifyRequest struct {
	Identifier string `json:"identifier" validate:"required,max=254"`
	Code       string `json:"code" validate:"required,min=4,max=10"`
}

type signupSendRequest struct {
	Identifier  string `json:"identifier" validate:"required,max=254"`
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,max=32"`
	CountryCode string `json:"country_code" validate:"required,len=2"`
}

// POST /api/auth/login/send
func (h *AuthHandler) LoginSend(c *gin.Context) {
	var req sendRequest
	if !bindAndValidate(c, &req) {
		return
	}

	outcome, err := h.login.Authenticate(c.Request.Context(), providers.Credentials{
		Action:     providers.ActionSend,
		Identifier: req.Identifier,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":  outcome.Status,
		"receipt": outcome.Receipt,
	})
}

// POST /api/auth/login/verify
func (h *AuthHandler) LoginVerify(c *gin.Context) {
	var req verifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	outcome, err := h.login.Authenticate(c.Request.Context(), providers.Credentials{
		Action:     providers.ActionVerify,
		Identifier: req.Identifier,
		Code:       req.Code,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		response.Error(c, err)
		return
	}

	h.respondAuthenticated(c, "login", outcome.User)
}

// POST /api/auth/signup/send
func (h *AuthHandler) SignupSend(c *gin.Context) {
	var req signupSendRequest
	if !bindAndValidate(c, &req) {
		return
	}

	outcome, err := h.signup.Authenticate(c.Request.Context(), providers.Credentials{
		Action:     providers.ActionSend,
		Identifier: req.Identifier,
		Signup: &providers.SignupDetails{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Phone:       req.Phone,
			CountryCode: req.CountryCode,
		},
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("signup", "failure").Inc()
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":  outcome.Status,
		"receipt": outcome.Receipt,
	})
}

// POST /api/auth/signup/verify
func (h *AuthHandler) SignupVerify(c *gin.Context) {
	var req verifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	outcome, err := h.signup.Authenticate(c.Request.Context(), providers.Credentials{
		Action:     providers.ActionVerify,
		Identifier: req.Identifier,
		Code:       req.Code,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("signup", "failure").Inc()
		response.Error(c, err)
		return
	}

	h.respondAuthenticated(c, "signup", outcome.User)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	v, ok := c.Get("userID")
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	userID, _ := v.(string)

	var user models.User
	if err := h.db.Preload("Profile").Take(&user, "id = ?", userID).Error; err != nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, userPayload(&user))
}

func (h *AuthHandler) respondAuthenticated(c *gin.Context, flow string, user *models.User) {
	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues(flow, "failure").Inc()
		response.Error(c, errors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues(flow, "success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"status":       providers.StatusAuthenticated,
		"access_token": token,
		"user":         userPayload(user),
	})
}

func userPayload(user *models.User) gin.H {
	payload := gin.H{
		"id":             user.ID,
		"name":           user.Name,
		"email":          user.Email,
		"phone":          user.Phone,
		"country_code":   user.CountryCode,
		"role":           user.Role,
		"is_active":      user.IsActive,
		"phone_verified": user.PhoneVerified,
		"email_verified": user.EmailVerifiedAt != nil,
	}
	if user.Profile != nil {
		payload["profile"] = user.Profile
	}
	return payload
}

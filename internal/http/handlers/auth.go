package handlers

import (
	"context"
	"net/http"

	"github.com/ArnavJain-cy/sih-app/internal/account"
	"github.com/ArnavJain-cy/sih-app/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const (
	MsgSignupOK = "User created successfully"
	MsgLoginOK  = "Login successful"
	MsgGuestOK  = "Guest login successful"
)

type AuthService interface {
	Signup(ctx context.Context, in account.SignupInput) (account.AuthResult, error)
	Login(ctx context.Context, in account.LoginInput) (account.AuthResult, error)
	GuestLogin(ctx context.Context) (account.GuestResult, error)
}

// AuthObserver counts auth outcomes; observability.Prom satisfies it.
type AuthObserver interface {
	ObserveAuth(op, result string)
}

type AuthHandler struct {
	svc     AuthService
	metrics AuthObserver
}

func NewAuthHandler(svc AuthService, metrics AuthObserver) *AuthHandler {
	return &AuthHandler{svc: svc, metrics: metrics}
}

type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest
	if !BindJSON(ctx, &req) {
		return
	}

	res, err := h.svc.Signup(ctx.Request.Context(), account.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.observe("signup", err)
		RespondServiceError(ctx, err, "Internal server error during signup")
		return
	}
	h.observe("signup", nil)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": MsgSignupOK,
		"user":    res.User,
		"token":   res.Token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	res, err := h.svc.Login(ctx.Request.Context(), account.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.observe("login", err)
		RespondServiceError(ctx, err, "Internal server error during login")
		return
	}
	h.observe("login", nil)

	ctx.JSON(http.StatusOK, gin.H{
		"message": MsgLoginOK,
		"user":    res.User,
		"token":   res.Token,
	})
}

func (h *AuthHandler) Guest(ctx *gin.Context) {
	res, err := h.svc.GuestLogin(ctx.Request.Context())
	if err != nil {
		h.observe("guest", err)
		RespondServiceError(ctx, err, "Internal server error during guest login")
		return
	}
	h.observe("guest", nil)

	ctx.JSON(http.StatusOK, gin.H{
		"message": MsgGuestOK,
		"user":    res.User,
		"token":   res.Token,
	})
}

// Verify echoes the decoded claims; the auth gate has already checked them.
func (h *AuthHandler) Verify(ctx *gin.Context) {
	claims, ok := middlewares.ClaimsFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", middlewares.MsgTokenRequired, nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user":  claims,
	})
}

func (h *AuthHandler) observe(op string, err error) {
	if h.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
		if account.KindOf(err) == account.KindInternal {
			result = "error"
		}
	}
	h.metrics.ObserveAuth(op, result)
}

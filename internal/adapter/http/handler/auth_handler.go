package handler

import (
	"strconv"

	"wallet-settlement/internal/adapter/http/dto"
	"wallet-settlement/internal/adapter/http/middleware"
	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"
	"wallet-settlement/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration, login and email verification endpoints.
type AuthHandler struct {
	accountSvc ports.AccountService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accountSvc ports.AccountService) *AuthHandler {
	return &AuthHandler{accountSvc: accountSvc}
}

// RegisterStart handles POST /api/v1/register/start.
func (h *AuthHandler) RegisterStart(c *gin.Context) {
	var req dto.RegisterStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.accountSvc.StartRegistration(c.Request.Context(), req.PhoneNumber)
	respondIssued(c, result, err)
}

// RegisterVerify handles POST /api/v1/register/verify.
func (h *AuthHandler) RegisterVerify(c *gin.Context) {
	var req dto.RegisterVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	outcome, err := h.accountSvc.VerifyRegistration(c.Request.Context(), req.PhoneNumber, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewCodeVerifiedResponse(outcome))
}

// RegisterComplete handles POST /api/v1/register/complete.
func (h *AuthHandler) RegisterComplete(c *gin.Context) {
	var req dto.RegisterCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	user, err := h.accountSvc.CompleteRegistration(c.Request.Context(), ports.RegistrationRequest{
		PhoneNumber: req.PhoneNumber,
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, strconv.FormatInt(user.ID, 10))
	response.Created(c, dto.NewUserResponse(user))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	token, expiry, err := h.accountSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.LoginResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// EmailStart handles POST /api/v1/auth/email/start.
func (h *AuthHandler) EmailStart(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	result, err := h.accountSvc.RequestEmailVerification(c.Request.Context(), userID)
	respondIssued(c, result, err)
}

// EmailVerify handles POST /api/v1/auth/email/verify.
func (h *AuthHandler) EmailVerify(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.EmailVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	user, err := h.accountSvc.VerifyEmail(c.Request.Context(), userID, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewUserResponse(user))
}

// respondIssued answers 202 when the code was stored but not delivered, so
// the client knows to retry once the resend cooldown has passed.
func respondIssued(c *gin.Context, result *domain.IssueResult, err error) {
	if err != nil {
		if result != nil && apperror.KindOf(err) == apperror.KindDeliveryFailed {
			response.Accepted(c, dto.NewCodeIssuedResponse(result, false))
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewCodeIssuedResponse(result, true))
}

package handler

import (
	"context"
	"strconv"
	"strings"

	"wallet-settlement/internal/adapter/http/dto"
	"wallet-settlement/internal/adapter/http/middleware"
	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"
	"wallet-settlement/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey deduplicates settlement retries per payer.
const HeaderIdempotencyKey = "Idempotency-Key"

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	settlementSvc ports.SettlementService
	paymentSvc    ports.PaymentQueryService
	merchantSvc   ports.MerchantService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(settlementSvc ports.SettlementService, paymentSvc ports.PaymentQueryService, merchantSvc ports.MerchantService) *PaymentHandler {
	return &PaymentHandler{
		settlementSvc: settlementSvc,
		paymentSvc:    paymentSvc,
		merchantSvc:   merchantSvc,
	}
}

// Settle handles POST /api/v1/payments. The caller always pays.
func (h *PaymentHandler) Settle(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if req.PayerUserID != nil && *req.PayerUserID != userID {
		response.Error(c, apperror.ErrForbidden())
		return
	}

	payment, err := h.settlementSvc.Settle(c.Request.Context(), ports.SettlementRequest{
		PayerUserID:    userID,
		MerchantID:     req.MerchantID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		ProductID:      req.ProductID,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey)),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewPaymentResponse(payment))
}

// List handles GET /api/v1/payments?merchant_id= or ?user_id=.
func (h *PaymentHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var query dto.ListPaymentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if (query.MerchantID == nil) == (query.UserID == nil) {
		response.Error(c, apperror.Validation("exactly one of merchant_id or user_id is required"))
		return
	}

	var (
		payments []domain.Payment
		err      error
	)
	if query.MerchantID != nil {
		if err := h.requireMerchantOwner(c.Request.Context(), *query.MerchantID, userID); err != nil {
			response.Error(c, err)
			return
		}
		payments, err = h.paymentSvc.ListByMerchant(c.Request.Context(), *query.MerchantID)
	} else {
		if *query.UserID != userID {
			response.Error(c, apperror.ErrForbidden())
			return
		}
		payments, err = h.paymentSvc.ListByUser(c.Request.Context(), userID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewPaymentListResponse(payments))
}

// Get handles GET /api/v1/payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	response.OK(c, dto.NewPaymentResponse(payment))
}

// Update handles PUT /api/v1/payments/:id.
func (h *PaymentHandler) Update(c *gin.Context) {
	var req dto.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	payment, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	updated, err := h.paymentSvc.UpdateFields(c.Request.Context(), payment.ID, req.ToDomain())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewPaymentResponse(updated))
}

// Cancel handles PUT /api/v1/payments/:id/cancel.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	payment, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	cancelled, err := h.paymentSvc.Cancel(c.Request.Context(), payment.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewPaymentResponse(cancelled))
}

// Delete handles DELETE /api/v1/payments/:id.
func (h *PaymentHandler) Delete(c *gin.Context) {
	payment, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	if err := h.paymentSvc.Delete(c.Request.Context(), payment.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": payment.ID, "deleted": true})
}

// loadAuthorized fetches the payment named by :id and checks that the
// caller paid or received it. On failure the error response is already written.
func (h *PaymentHandler) loadAuthorized(c *gin.Context) (*domain.Payment, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return nil, false
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, apperror.Validation("payment id must be a positive integer"))
		return nil, false
	}

	payment, err := h.paymentSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !payment.InvolvesUser(userID) {
		response.Error(c, apperror.ErrForbidden())
		return nil, false
	}
	return payment, true
}

func (h *PaymentHandler) requireMerchantOwner(ctx context.Context, merchantID, userID int64) error {
	merchant, err := h.merchantSvc.Get(ctx, merchantID)
	if err != nil {
		return err
	}
	if !merchant.IsLinked() || *merchant.OwnerUserID != userID {
		return apperror.ErrForbidden()
	}
	return nil
}

package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxAuditResourceID lets a handler name the resource it created.
const CtxAuditResourceID = "audit_resource_id"

type auditRoute struct {
	method string
	route  string
}

type auditTarget struct {
	action       domain.AuditAction
	resourceType string
}

// auditRoutes maps gin route patterns to audit actions. Settlements are
// audited by the settlement engine itself, so POST /payments is absent.
var auditRoutes = map[auditRoute]auditTarget{
	{http.MethodPost, "/api/v1/register/start"}:     {domain.AuditActionIssueCode, "verification"},
	{http.MethodPost, "/api/v1/register/verify"}:    {domain.AuditActionVerifyCode, "verification"},
	{http.MethodPost, "/api/v1/register/complete"}:  {domain.AuditActionRegister, "user"},
	{http.MethodPost, "/api/v1/auth/login"}:         {domain.AuditActionLogin, "session"},
	{http.MethodPost, "/api/v1/auth/email/start"}:   {domain.AuditActionIssueCode, "verification"},
	{http.MethodPost, "/api/v1/auth/email/verify"}:  {domain.AuditActionVerifyCode, "verification"},
	{http.MethodPut, "/api/v1/payments/:id"}:        {domain.AuditActionUpdatePayment, "payment"},
	{http.MethodPut, "/api/v1/payments/:id/cancel"}: {domain.AuditActionCancelPayment, "payment"},
	{http.MethodDelete, "/api/v1/payments/:id"}:     {domain.AuditActionDeletePayment, "payment"},
	{http.MethodPost, "/api/v1/merchants"}:          {domain.AuditActionCreateMerchant, "merchant"},
	{http.MethodPut, "/api/v1/users/me"}:            {domain.AuditActionUpdateProfile, "user"},
	{http.MethodPut, "/api/v1/users/me/password"}:   {domain.AuditActionChangePassword, "user"},
}

// AuditLog creates an audit middleware that logs successful write operations.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		var userID *int64
		if id, ok := UserID(c); ok {
			userID = &id
		}

		resourceID := c.Param("id")
		if resourceID == "" {
			resourceID = c.GetString(CtxAuditResourceID)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			UserID:       userID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func mapRouteToAction(route, method string) (domain.AuditAction, string) {
	target, ok := auditRoutes[auditRoute{method: method, route: route}]
	if !ok {
		return "", ""
	}
	return target.action, target.resourceType
}

package intake

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"opsconsole/internal/audit"
	"opsconsole/internal/slapolicy"
	"opsconsole/internal/workitem"
	"opsconsole/pkg/logger"

	"github.com/gin-gonic/gin"
)

const headerProducerSecret = "X-Producer-Secret"

// WebhookHandler receives producer events and creates work items. The shared
// secret gates these routes instead of user auth; a failed check is recorded
// as a Fail audit entry so the viewer surfaces producer misconfiguration.
type WebhookHandler struct {
	Items  *workitem.Service
	Policy *slapolicy.Service
	Audit  *audit.Service
	Secret string
}

func (h WebhookHandler) HandleProducerEvent(c *gin.Context) {
	log := logger.FromGin(c)

	src := Source(c.Param("source"))
	if _, ok := defaultKind[src]; !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "unknown_source", "message": "unknown producer source"}})
		return
	}

	if h.Secret == "" || subtle.ConstantTimeCompare([]byte(c.GetHeader(headerProducerSecret)), []byte(h.Secret)) != 1 {
		if h.Audit != nil {
			if _, err := h.Audit.RecordFailure(c.Request.Context(), "producer:"+string(src), string(src), audit.ActionCreated, "producer secret verification failed"); err != nil {
				log.Error("audit failure record failed", "err", err)
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "unauthorized", "message": "invalid producer secret"}})
		return
	}

	var ev Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "invalid_json", "message": "invalid json"}})
		return
	}

	req, err := ev.ToCreateRequest(src)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "invalid_event", "message": err.Error()}})
		return
	}

	// Producers may omit the deadline; policy fills it for SLA-bearing kinds.
	if req.SLADeadline == nil && req.Kind.HasSLA() && h.Policy != nil {
		anchor := ev.OccurredAt
		if anchor.IsZero() {
			anchor = time.Now().UTC()
		}
		d, err := h.Policy.DeadlineFor(c.Request.Context(), req.Kind, req.Severity, anchor)
		switch {
		case err == nil:
			req.SLADeadline = d
		case errors.Is(err, slapolicy.ErrPolicyNotFound):
			log.Warn("no sla policy for intake", "kind", req.Kind, "severity", req.Severity)
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": gin.H{"code": "policy_failed", "message": "sla policy lookup failed"}})
			return
		}
	}

	item, err := h.Items.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, workitem.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "invalid_event", "message": err.Error()}})
			return
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": gin.H{"code": "store_unavailable", "message": "intake temporarily unavailable"}})
		return
	}

	log.Info("work item created", "source", src, "work_item_id", item.ID, "kind", item.Kind)
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": item})
}

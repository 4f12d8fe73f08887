package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"opsconsole/internal/audit"
	"opsconsole/internal/auth"
	"opsconsole/internal/rbac"
	"opsconsole/internal/reporting"
	"opsconsole/internal/slapolicy"
	"opsconsole/internal/workitem"
	"opsconsole/pkg/logger"
	"opsconsole/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Items   *workitem.Service
	Audit   *audit.Service
	Reports *reporting.Service
	Policy  *slapolicy.Service

	// Gate bounds in-flight bulk batches per actor across replicas. Nil
	// disables the cap (tests, single-node local runs).
	Gate          *redis.Client
	BulkGateLimit int
	BulkGateTTL   time.Duration
}

// --- Work items ---

// ListWorkItems serves the console's filtered, sorted, paged list view.
func (h Handlers) ListWorkItems(c *gin.Context) {
	f := workitem.Filter{
		Kind:       workitem.Kind(c.Query("kind")),
		Category:   c.Query("category"),
		Status:     workitem.Status(c.Query("status")),
		ActiveOnly: c.Query("active") == "true",
		Severity:   workitem.Severity(c.Query("severity")),
		Search:     c.Query("search"),
	}
	var ok bool
	if f.CreatedFrom, ok = parseTimeParam(c, "dateFrom"); !ok {
		return
	}
	if f.CreatedTo, ok = parseTimeParam(c, "dateTo"); !ok {
		return
	}

	sortBy := workitem.Sort{
		Field: workitem.SortField(c.Query("sort")),
		Desc:  c.Query("order") == "desc",
	}
	page := workitem.Page{
		Page:  intQuery(c, "page"),
		Limit: intQuery(c, "limit"),
	}

	res, err := h.Items.List(c.Request.Context(), f, sortBy, page)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondList(c, res.Items, listMeta{
		Total: res.Total,
		Page:  res.Page,
		Limit: res.Limit,
		Pages: res.Pages,
	})
}

func (h Handlers) GetWorkItem(c *gin.Context) {
	item, err := h.Items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

// CreateWorkItem is the authenticated producer intake. When the producer
// omits the deadline and the kind carries SLA semantics, the policy default
// fills it.
func (h Handlers) CreateWorkItem(c *gin.Context) {
	var req workitem.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if req.RequestedBy == "" {
		if uid, err := auth.UserID(c.Request.Context()); err == nil {
			req.RequestedBy = uid
		}
	}
	if req.RequesterRole == "" {
		if role, err := auth.Role(c.Request.Context()); err == nil {
			req.RequesterRole = role
		}
	}

	if req.SLADeadline == nil && req.Kind.HasSLA() && h.Policy != nil {
		d, err := h.Policy.DeadlineFor(c.Request.Context(), req.Kind, req.Severity, time.Now().UTC())
		switch {
		case err == nil:
			req.SLADeadline = d
		case errors.Is(err, slapolicy.ErrPolicyNotFound):
			logger.FromGin(c).Warn("no sla policy for intake", "kind", req.Kind, "severity", req.Severity)
		default:
			respondError(c, http.StatusInternalServerError, "policy_failed", "sla policy lookup failed")
			return
		}
	}

	item, err := h.Items.Create(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondData(c, http.StatusCreated, item)
}

// --- Decisions ---

type decisionRequest struct {
	Action      workitem.Action `json:"action"`
	Note        string          `json:"note,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	SnoozeUntil *time.Time      `json:"snooze_until,omitempty"`
}

func (r decisionRequest) payload() workitem.Payload {
	return workitem.Payload{Note: r.Note, Reason: r.Reason, SnoozeUntil: r.SnoozeUntil}
}

// Decide applies one decision to one work item. RBAC is per kind, so the
// item is loaded before the role check; the hidden scheduler identity may
// only expire.
func (h Handlers) Decide(c *gin.Context) {
	actor, role, ok := identity(c)
	if !ok {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	item, err := h.Items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if !h.decisionPermitted(c, role, item.Kind, req.Action) {
		return
	}

	updated, err := h.Items.Decide(c.Request.Context(), item.ID, req.Action, actor, role, req.payload())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, updated)
}

type bulkDecisionRequest struct {
	IDs         []string        `json:"ids"`
	Action      workitem.Action `json:"action"`
	Note        string          `json:"note,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	SnoozeUntil *time.Time      `json:"snooze_until,omitempty"`
}

// BulkDecide applies one decision to many ids. The batch is best-effort:
// the response always carries per-id results, HTTP 200 even when some fail.
// RBAC is enforced per id against each item's kind; denied ids report a
// validation failure instead of silently vanishing from the results.
func (h Handlers) BulkDecide(c *gin.Context) {
	actor, role, ok := identity(c)
	if !ok {
		return
	}

	var req bulkDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	if h.Gate != nil {
		key := "opsconsole:bulkgate:" + actor
		ttl := h.BulkGateTTL
		if ttl <= 0 {
			ttl = 2 * time.Minute
		}
		limit := h.BulkGateLimit
		if limit <= 0 {
			limit = 2
		}
		acquired, err := utils.AcquireGate(c.Request.Context(), h.Gate, key, limit, ttl)
		if err != nil {
			logger.FromGin(c).Warn("bulk gate unavailable, proceeding uncapped", "err", err)
		} else if !acquired {
			respondError(c, http.StatusTooManyRequests, "too_many_batches", "too many concurrent bulk batches, retry shortly")
			return
		} else {
			defer func() {
				if err := utils.ReleaseGate(c.Request.Context(), h.Gate, key); err != nil {
					logger.FromGin(c).Warn("bulk gate release failed", "err", err)
				}
			}()
		}
	}

	allowed, denied := h.splitByPermission(c, req.IDs, role, req.Action)

	p := workitem.Payload{Note: req.Note, Reason: req.Reason, SnoozeUntil: req.SnoozeUntil}
	results, err := h.Items.ApplyBulk(c.Request.Context(), allowed, req.Action, actor, role, p)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondData(c, http.StatusOK, mergeResults(req.IDs, results, denied))
}

// splitByPermission partitions ids into those the role may decide on and a
// per-id denial map for the rest. Unknown ids pass through so the bulk
// coordinator reports NotFound in order.
func (h Handlers) splitByPermission(c *gin.Context, ids []string, role string, action workitem.Action) ([]string, map[string]*workitem.TransitionError) {
	allowed := make([]string, 0, len(ids))
	denied := make(map[string]*workitem.TransitionError)
	for _, id := range ids {
		item, err := h.Items.Get(c.Request.Context(), id)
		if err != nil {
			allowed = append(allowed, id)
			continue
		}
		if !rbac.DecisionAllowed(role, string(item.Kind)) || (rbac.IsHiddenRole(role) && action != workitem.ActionExpire) {
			denied[id] = &workitem.TransitionError{
				Kind:    workitem.ErrKindValidationFailed,
				Message: "role " + role + " may not decide on " + string(item.Kind) + " items",
			}
			continue
		}
		allowed = append(allowed, id)
	}
	return allowed, denied
}

// mergeResults restores the caller's input order across decided and denied
// ids.
func mergeResults(ids []string, decided []workitem.ItemResult, denied map[string]*workitem.TransitionError) []workitem.ItemResult {
	byID := make(map[string]workitem.ItemResult, len(decided))
	for _, r := range decided {
		byID[r.ID] = r
	}
	out := make([]workitem.ItemResult, 0, len(ids))
	for _, id := range ids {
		if te, ok := denied[id]; ok {
			out = append(out, workitem.ItemResult{ID: id, Err: te})
			continue
		}
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (h Handlers) decisionPermitted(c *gin.Context, role string, kind workitem.Kind, action workitem.Action) bool {
	if !rbac.DecisionAllowed(role, string(kind)) {
		respondError(c, http.StatusForbidden, "forbidden", "role may not decide on this kind")
		return false
	}
	if rbac.IsHiddenRole(role) && action != workitem.ActionExpire {
		respondError(c, http.StatusForbidden, "forbidden", "scheduler identity may only expire")
		return false
	}
	return true
}

// --- Audit ---

// QueryAudit serves the audit-log viewer. The query vocabulary keeps the
// console's names (entity, user, eventType).
func (h Handlers) QueryAudit(c *gin.Context) {
	f := audit.QueryFilter{
		WorkItemID: c.Query("entity"),
		Actor:      c.Query("user"),
		Action:     audit.Action(c.Query("eventType")),
		Result:     audit.Result(c.Query("result")),
	}
	var ok bool
	if f.From, ok = parseTimeParam(c, "dateFrom"); !ok {
		return
	}
	if f.To, ok = parseTimeParam(c, "dateTo"); !ok {
		return
	}

	entries, err := h.Audit.Query(c.Request.Context(), f)
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "store_unavailable", "audit storage unavailable")
		return
	}
	respondData(c, http.StatusOK, entries)
}

// --- Summary ---

func (h Handlers) Summary(c *gin.Context) {
	s, err := h.Reports.Summary(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "store_unavailable", "summary unavailable")
		return
	}
	respondData(c, http.StatusOK, s)
}

// --- helpers ---

func identity(c *gin.Context) (actor, role string, ok bool) {
	actor, err := auth.UserID(c.Request.Context())
	if err != nil || actor == "" {
		respondError(c, http.StatusUnauthorized, "unauthorized", "identity required")
		return "", "", false
	}
	role, err = auth.Role(c.Request.Context())
	if err != nil || role == "" {
		respondError(c, http.StatusUnauthorized, "unauthorized", "role required")
		return "", "", false
	}
	return actor, role, true
}

func parseTimeParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Date-only values come from the console's date pickers.
		d, derr := time.Parse("2006-01-02", raw)
		if derr != nil {
			respondError(c, http.StatusBadRequest, "validation_failed", name+" must be RFC3339 or YYYY-MM-DD")
			return time.Time{}, false
		}
		t = d
	}
	return t, true
}

func intQuery(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}

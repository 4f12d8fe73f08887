package intake

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opsconsole/internal/audit"
	"opsconsole/internal/slapolicy"
	"opsconsole/internal/workitem"

	"github.com/gin-gonic/gin"
)

func newTestRouter(secret string) (*gin.Engine, *workitem.Service, *audit.MemoryRepo) {
	gin.SetMode(gin.TestMode)

	rec := audit.NewMemoryRepo()
	items := workitem.NewService(workitem.NewMemoryRepo(rec))
	policy := slapolicy.NewService(&slapolicy.MemoryRepo{Rules: slapolicy.DefaultRules(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))})

	h := WebhookHandler{
		Items:  items,
		Policy: policy,
		Audit:  audit.NewService(rec),
		Secret: secret,
	}
	r := gin.New()
	r.POST("/webhooks/producer/:source", h.HandleProducerEvent)
	return r, items, rec
}

func TestProducerWebhook_CreatesWorkItemWithPolicyDeadline(t *testing.T) {
	r, items, _ := newTestRouter("s3cret")

	body := `{"severity":"critical","title":"payment release pending","category":"payment_release"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/producer/recon-service", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Producer-Secret", "s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	res, err := items.List(context.Background(), workitem.Filter{Kind: workitem.KindReconExc}, workitem.Sort{}, workitem.Page{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Total != 1 {
		t.Fatalf("expected 1 recon exception, got %d", res.Total)
	}
	item := res.Items[0]
	if item.Status != workitem.StatusPending {
		t.Fatalf("expected pending, got %s", item.Status)
	}
	if item.SLADeadline == nil {
		t.Fatalf("expected policy-assigned deadline")
	}
	if item.RequestedBy != "recon-service" {
		t.Fatalf("expected producer attribution, got %q", item.RequestedBy)
	}
}

func TestProducerWebhook_BadSecretRecordsFailEntry(t *testing.T) {
	r, _, rec := newTestRouter("s3cret")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/producer/pricing-engine", strings.NewReader(`{}`))
	req.Header.Set("X-Producer-Secret", "wrong")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	evs := rec.Entries()
	if len(evs) != 1 || evs[0].Result != audit.ResultFail {
		t.Fatalf("expected one Fail entry, got %+v", evs)
	}
}

func TestProducerWebhook_UnknownSource(t *testing.T) {
	r, _, _ := newTestRouter("s3cret")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/producer/mystery", strings.NewReader(`{}`))
	req.Header.Set("X-Producer-Secret", "s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestEvent_ToCreateRequestDefaults(t *testing.T) {
	ev := Event{Severity: workitem.SeverityWarning, Title: "stockout risk"}
	req, err := ev.ToCreateRequest(SourceCampaignScheduler)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if req.Kind != workitem.KindMerchAlert {
		t.Fatalf("expected merch_alert default for campaign scheduler, got %s", req.Kind)
	}
	if req.RequestedBy != string(SourceCampaignScheduler) {
		t.Fatalf("expected producer fallback attribution")
	}

	// Kind override is honored when valid.
	ev.Kind = workitem.KindCompliance
	req, err = ev.ToCreateRequest(SourceCampaignScheduler)
	if err != nil || req.Kind != workitem.KindCompliance {
		t.Fatalf("expected kind override, got %s %v", req.Kind, err)
	}
}

package intake

import (
	"errors"
	"time"

	"opsconsole/internal/workitem"
)

// Source identifies an upstream producer pushing work into the engine.
// Business logic (state transitions) is not made here; this package only
// maps producer payloads onto create requests.
type Source string

const (
	SourcePricingEngine     Source = "pricing-engine"
	SourceReconService      Source = "recon-service"
	SourceCampaignScheduler Source = "campaign-scheduler"
)

// defaultKind is the kind a producer's events land in when the payload does
// not say otherwise.
var defaultKind = map[Source]workitem.Kind{
	SourcePricingEngine:     workitem.KindCompliance,
	SourceReconService:      workitem.KindReconExc,
	SourceCampaignScheduler: workitem.KindMerchAlert,
}

var ErrUnknownSource = errors.New("intake: unknown producer source")

func KindFor(src Source, override workitem.Kind) (workitem.Kind, error) {
	if override != "" {
		if !override.Valid() {
			return "", errors.New("intake: unknown kind " + string(override))
		}
		return override, nil
	}
	kind, ok := defaultKind[src]
	if !ok {
		return "", ErrUnknownSource
	}
	return kind, nil
}

// Event is the producer webhook payload. Severity vocabulary is the engine's;
// producers using their own scale map it before pushing.
type Event struct {
	Kind           workitem.Kind     `json:"kind,omitempty"`
	Category       string            `json:"category,omitempty"`
	Severity       workitem.Severity `json:"severity"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	RequestedBy    string            `json:"requested_by,omitempty"`
	RequesterRole  string            `json:"requester_role,omitempty"`
	SLADeadline    *time.Time        `json:"sla_deadline,omitempty"`
	ApproverChain  []string          `json:"approver_chain,omitempty"`
	LinkedEntities map[string]string `json:"linked_entities,omitempty"`

	// OccurredAt is the producer-side event time; the SLA policy window is
	// anchored on it when present, otherwise on delivery time.
	OccurredAt time.Time `json:"occurred_at,omitempty"`
}

// ToCreateRequest maps the event onto the engine's intake contract. The
// producer identity becomes the requester when the payload omits one.
func (e Event) ToCreateRequest(src Source) (workitem.CreateRequest, error) {
	kind, err := KindFor(src, e.Kind)
	if err != nil {
		return workitem.CreateRequest{}, err
	}
	req := workitem.CreateRequest{
		Kind:           kind,
		Category:       e.Category,
		Severity:       e.Severity,
		Title:          e.Title,
		Description:    e.Description,
		RequestedBy:    e.RequestedBy,
		RequesterRole:  e.RequesterRole,
		ApproverChain:  e.ApproverChain,
		LinkedEntities: e.LinkedEntities,
	}
	if req.RequestedBy == "" {
		req.RequestedBy = string(src)
	}
	if e.SLADeadline != nil {
		t := *e.SLADeadline
		req.SLADeadline = &t
	}
	return req, nil
}

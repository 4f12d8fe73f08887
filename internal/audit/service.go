package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit entries.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, f QueryFilter) ([]Entry, error)
}

// Recorder is the write-side contract consumed by the workflow engine. The
// engine's Postgres repository bypasses this and uses InsertTx so the entry
// commits in the same transaction as the transition; in-memory stores append
// through a Recorder directly.
type Recorder interface {
	Append(ctx context.Context, e Entry) error
}

var ErrInvalidEntry = errors.New("audit: invalid entry")

// Service validates and records audit entries and serves the audit viewer's
// queries. Append fills id/timestamp/result when absent.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Entry) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	filled, err := Fill(e, s.clock().UTC())
	if err != nil {
		return err
	}
	return s.repo.Append(ctx, filled)
}

// Record appends a Pass entry for a committed transition.
func (s *Service) Record(ctx context.Context, workItemID, actor, actorRole string, action Action, summary string) (Entry, error) {
	e, err := Fill(Entry{
		WorkItemID: workItemID,
		Actor:      actor,
		ActorRole:  actorRole,
		Action:     action,
		Result:     ResultPass,
		Summary:    summary,
	}, s.clock().UTC())
	if err != nil {
		return Entry{}, err
	}
	if s.repo == nil {
		return Entry{}, errors.New("audit: repository not configured")
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// RecordFailure appends a Fail entry for a recorded violation or system-check
// failure. These do not correspond to a committed transition.
func (s *Service) RecordFailure(ctx context.Context, workItemID, actor string, action Action, summary string) (Entry, error) {
	e, err := Fill(Entry{
		WorkItemID: workItemID,
		Actor:      actor,
		Action:     action,
		Result:     ResultFail,
		Summary:    summary,
	}, s.clock().UTC())
	if err != nil {
		return Entry{}, err
	}
	if s.repo == nil {
		return Entry{}, errors.New("audit: repository not configured")
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) Query(ctx context.Context, f QueryFilter) ([]Entry, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.Query(ctx, f)
}

// Fill validates required fields and assigns id, timestamp and result
// defaults. Exported so transactional writers (workitem Postgres repo) build
// complete entries before InsertTx.
func Fill(e Entry, now time.Time) (Entry, error) {
	if e.WorkItemID == "" {
		return Entry{}, ErrInvalidEntry
	}
	if e.Actor == "" {
		return Entry{}, ErrInvalidEntry
	}
	if e.Action == "" {
		return Entry{}, ErrInvalidEntry
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	if e.Result == "" {
		e.Result = ResultPass
	}
	return e, nil
}

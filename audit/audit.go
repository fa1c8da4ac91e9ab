// Package audit defines the semantic security facts the engine emits and
// the sink contract that carries them outward.
//
// Emission is fire-and-forget from the engine's perspective: a sink that
// fails must not fail the operation that produced the fact. Redaction,
// formatting, and storage policy all belong to the sink implementation.
package audit

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Event statuses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Actions paired with the resource they touch.
const (
	ActionRegister  = "register"
	ActionLogin     = "login"
	ActionLogout    = "logout"
	ActionRevokeAll = "revoke_all"
	ActionTouch     = "touch"
	ActionMFASetup  = "mfa_setup"
	ActionMFAVerify = "mfa_verify"
	ActionRehash    = "rehash"
	ActionLockout   = "lockout"
)

// Event is one structured audit fact. IDs are ULIDs so an append-only
// audit log sorts chronologically by id alone.
type Event struct {
	ID        string            `json:"id"`
	Action    string            `json:"action"`
	Resource  string            `json:"resource"`
	Status    string            `json:"status"`
	Actor     string            `json:"actor,omitempty"`
	TargetID  string            `json:"target_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	At        time.Time         `json:"at"`
}

// NewEvent stamps an event with a ULID and the current time.
func NewEvent(action, resource, status string) Event {
	return Event{
		ID:       ulid.Make().String(),
		Action:   action,
		Resource: resource,
		Status:   status,
		At:       time.Now(),
	}
}

// Sink receives audit facts. Implementations must be safe for concurrent
// use and should never block an authentication path for long.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// ZapSink writes audit facts as structured log lines.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log}
}

func (s *ZapSink) Emit(ctx context.Context, ev Event) {
	fields := []zap.Field{
		zap.String("audit_id", ev.ID),
		zap.String("action", ev.Action),
		zap.String("resource", ev.Resource),
		zap.String("status", ev.Status),
	}
	if ev.Actor != "" {
		fields = append(fields, zap.String("actor", ev.Actor))
	}
	if ev.TargetID != "" {
		fields = append(fields, zap.String("target_id", ev.TargetID))
	}
	if ev.SessionID != "" {
		fields = append(fields, zap.String("session_id", ev.SessionID))
	}
	if ev.Reason != "" {
		fields = append(fields, zap.String("reason", ev.Reason))
	}
	for k, v := range ev.Meta {
		fields = append(fields, zap.String("meta_"+k, v))
	}
	s.log.Info("audit", fields...)
}

// Discard drops every event. Useful as a default when no sink is wired.
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}

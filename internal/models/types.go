package models

import "errors"

// EntityKind identifies the type of record an audit entry refers to
type EntityKind string

const (
	KindShow    EntityKind = "show"
	KindEpisode EntityKind = "episode"
)

// AuditAction represents what happened to a record
type AuditAction string

const (
	ActionCreated AuditAction = "created"
	ActionChanged AuditAction = "changed"
)

// DefaultActor is recorded on audit entries when no actor is supplied
const DefaultActor = "system"

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// Fields maps tracked field names to values
type Fields map[string]any

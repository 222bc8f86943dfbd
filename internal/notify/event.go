// Package notify delivers domain events to connected clients over per-user
// and per-resource websocket channels. Delivery is best-effort: failures are
// logged and never affect the mutation that produced the event.
package notify

import "github.com/atinyakov/NoteSync/internal/models"

// EventKind identifies the type of a delivered event.
type EventKind string

const (
	// ItemShared tells a principal a resource was shared with them.
	ItemShared EventKind = "item_shared"
	// AccessLevelChanged tells a principal their level on a resource changed.
	AccessLevelChanged EventKind = "access_level_changed"
	// AccessRevoked tells a principal the owner revoked their access.
	AccessRevoked EventKind = "access_revoked"
	// AccessSelfRemoved confirms to a principal that they left a resource.
	AccessSelfRemoved EventKind = "access_self_removed"
	// ResourceUpdated tells owner and collaborators the payload changed.
	ResourceUpdated EventKind = "resource_updated"
	// ResourceDeleted tells former collaborators the owner deleted the resource.
	ResourceDeleted EventKind = "resource_deleted"

	// FieldChanged is an advisory live co-editing signal; never authoritative.
	FieldChanged EventKind = "field_changed"
	// TypingStart is an advisory co-editing signal.
	TypingStart EventKind = "typing_start"
	// TypingStop is an advisory co-editing signal.
	TypingStop EventKind = "typing_stop"
)

// Event is the wire payload delivered on a channel. Every event carries the
// resource id and kind; user-facing events also carry a readable message.
type Event struct {
	Kind         EventKind           `json:"kind"`
	ResourceID   string              `json:"resourceId"`
	ResourceKind models.ResourceKind `json:"resourceKind"`
	Message      string              `json:"message,omitempty"`
	Access       models.AccessLevel  `json:"access,omitempty"`
	// Field and Value carry live co-editing payloads.
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
	// Sender names the user behind advisory signals (typing indicators).
	Sender string `json:"sender,omitempty"`
}

// channelScope separates the two address spaces so a user id and a resource
// id can never collide as map keys.
type channelScope string

const (
	scopeUser     channelScope = "user"
	scopeResource channelScope = "resource"
)

// Channel is an opaque delivery address: either all sockets of one principal
// or all sockets joined to one resource's live-editing room.
type Channel struct {
	scope channelScope
	id    string
}

// PrincipalChannel addresses every socket belonging to p.
func PrincipalChannel(p models.Principal) Channel {
	return Channel{scope: scopeUser, id: string(p)}
}

// ResourceChannel addresses every socket joined to the resource's room.
func ResourceChannel(resourceID string) Channel {
	return Channel{scope: scopeResource, id: resourceID}
}

// String renders the address for logs.
func (c Channel) String() string {
	return string(c.scope) + ":" + c.id
}

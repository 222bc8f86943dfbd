package notify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/NoteSync/internal/models"
)

// Transport addresses a message to all sockets behind a channel.
type Transport interface {
	Publish(ch Channel, event Event) error
}

// Router maps a domain event to its recipient principals and hands it to the
// transport. All methods are fire-and-forget: a delivery failure is logged
// and swallowed, never surfaced to the mutation that emitted the event.
type Router struct {
	transport Transport
	log       *zap.Logger
}

// NewRouter constructs a Router over the given transport.
func NewRouter(transport Transport, log *zap.Logger) *Router {
	return &Router{transport: transport, log: log}
}

// ResourceUpdated notifies the owner and every collaborator of r that its
// payload changed.
func (n *Router) ResourceUpdated(r *models.Resource) {
	recipients := append([]models.Principal{r.Owner}, collaborators(r)...)
	event := Event{
		Kind:         ResourceUpdated,
		ResourceID:   r.ID,
		ResourceKind: r.Kind,
	}
	for _, p := range recipients {
		n.send(p, event)
	}
}

// ResourceDeleted notifies every former collaborator of the deleted resource
// snapshot that it is gone. The owner initiated the deletion and is not
// notified.
func (n *Router) ResourceDeleted(r *models.Resource) {
	event := Event{
		Kind:         ResourceDeleted,
		ResourceID:   r.ID,
		ResourceKind: r.Kind,
		Message:      fmt.Sprintf("A shared %s %q was deleted by the owner.", r.Kind, r.Title),
	}
	for _, p := range collaborators(r) {
		n.send(p, event)
	}
}

// ItemShared notifies target that ownerName shared r with them.
func (n *Router) ItemShared(r *models.Resource, target models.Principal, ownerName string, level models.AccessLevel) {
	n.send(target, Event{
		Kind:         ItemShared,
		ResourceID:   r.ID,
		ResourceKind: r.Kind,
		Access:       level,
		Message:      fmt.Sprintf("%s shared a %s with you", ownerName, r.Kind),
	})
}

// AccessLevelChanged notifies target that their level on r is now level.
func (n *Router) AccessLevelChanged(r *models.Resource, target models.Principal, level models.AccessLevel) {
	n.send(target, Event{
		Kind:         AccessLevelChanged,
		ResourceID:   r.ID,
		ResourceKind: r.Kind,
		Access:       level,
		Message:      fmt.Sprintf("Your access to %q was changed to %s", r.Title, level),
	})
}

// AccessRevoked notifies target that the owner revoked their access to r.
func (n *Router) AccessRevoked(r *models.Resource, target models.Principal) {
	n.send(target, Event{
		Kind:         AccessRevoked,
		ResourceID:   r.ID,
		ResourceKind: r.Kind,
		Message:      fmt.Sprintf("Your access to %q was revoked by the owner.", r.Title),
	})
}

// AccessSelfRemoved confirms to target that they removed themselves from r.
func (n *Router) AccessSelfRemoved(r *models.Resource, target models.Principal) {
	n.send(target, Event{
		Kind:         AccessSelfRemoved,
		ResourceID:   r.ID,
		ResourceKind: r.Kind,
		Message:      fmt.Sprintf("Your access to %q was removed.", r.Title),
	})
}

// send publishes to the principal's channel and logs any transport failure.
func (n *Router) send(p models.Principal, event Event) {
	if err := n.transport.Publish(PrincipalChannel(p), event); err != nil {
		n.log.Warn("notification failure",
			zap.String("recipient", string(p)),
			zap.String("kind", string(event.Kind)),
			zap.String("resource", event.ResourceID),
			zap.Error(err),
		)
	}
}

func collaborators(r *models.Resource) []models.Principal {
	out := make([]models.Principal, 0, len(r.SharedWith))
	for _, e := range r.SharedWith {
		out = append(out, e.Principal)
	}
	return out
}

package domain

import "strings"

// Ids synthesized on the client side live in a reserved namespace that the
// backend's generator (random UUIDs) can never produce. They are never
// persisted and never sent back to the backend.
const (
	// ProvisionalUserID marks the optimistically appended user message
	// while its send round trip is still in flight.
	ProvisionalUserID MessageID = "temp-user"

	// GreetingID marks the synthetic assistant greeting injected when a
	// character's fetched history is empty.
	GreetingID MessageID = "greeting"
)

// IsReserved reports whether id belongs to the client-side namespace.
func IsReserved(id MessageID) bool {
	return id == GreetingID || strings.HasPrefix(string(id), "temp-")
}

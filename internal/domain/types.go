package domain

import "time"

type CharacterID string
type MessageID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps a wire role string onto the closed Role enum.
// Anything that is not "user" (including the "model" spelling some
// LLM backends use for their side) collapses to RoleAssistant.
func ParseRole(s string) Role {
	if s == string(RoleUser) {
		return RoleUser
	}
	return RoleAssistant
}

type Timestamp = time.Time

package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in a session history. Turns are append-only and
// never mutated after they are recorded.
type Turn struct {
	Role    Role
	Content string
}

// GeneralSessionID is the shared session used by all unauthenticated general
// chat. General mode deliberately keeps one global conversation rather than
// per-caller isolation.
const GeneralSessionID = "general"

package domain

// Member is a cooperative member, owned by the membership subsystem.
// The engine only ever reads it through the member directory port.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

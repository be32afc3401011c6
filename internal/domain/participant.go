package domain

// Participant is the identity attached to one live connection. Ephemeral
// participants are minted per connection and discarded on disconnect;
// authenticated participants mirror stable account fields.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"username"`
	Avatar      string `json:"avatar"`
	IsBot       bool   `json:"is_bot"`
}

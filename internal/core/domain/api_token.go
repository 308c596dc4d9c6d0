package domain

import "time"

// APIToken is a long-lived credential for POS terminal devices that cannot
// hold an interactive JWT session. Only the SHA-256 hash is stored.
type APIToken struct {
	TokenID    string     `json:"tokenID"` // Primary key (UUID)
	UserID     string     `json:"userID"`  // Owning staff account; requests act as this user
	Name       string     `json:"name"`    // Label, e.g. "counter-2 terminal"
	TokenHash  string     `json:"-"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	CreatedBy  string     `json:"createdBy"`
}

// IsExpired checks whether the token has passed its expiry.
func (t *APIToken) IsExpired() bool {
	if t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.Before(time.Now())
}

// IsUsable reports whether the token can still authenticate requests.
func (t *APIToken) IsUsable() bool {
	return t.RevokedAt == nil && !t.IsExpired()
}

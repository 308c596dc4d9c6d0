package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID reference
}

// Touch stamps both audit pairs for a newly created entity.
func (a *AuditFields) Touch(userID string, at time.Time) {
	a.CreatedAt = at
	a.CreatedBy = userID
	a.LastUpdatedAt = at
	a.LastUpdatedBy = userID
}

// MarkUpdated stamps only the update pair.
func (a *AuditFields) MarkUpdated(userID string, at time.Time) {
	a.LastUpdatedAt = at
	a.LastUpdatedBy = userID
}

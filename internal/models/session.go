package models

import "time"

// UserSession is a cached session produced by the external auth provider.
// The auth middleware only reads it; issuing and revoking sessions is out
// of scope for this service.
type UserSession struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	TenantID         string    `json:"tenantId"`
	Role             Role      `json:"role"`
	ClassIDs         []string  `json:"classIds,omitempty"`
	LinkedStudentIDs []string  `json:"linkedStudentIds,omitempty"`
	IPAddress        string    `json:"ipAddress,omitempty"`
	UserAgent        string    `json:"userAgent,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	LastActivity     time.Time `json:"lastActivity"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry.
func (s *UserSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Principal converts the session into the request principal.
func (s *UserSession) Principal() Principal {
	return Principal{
		ID:               s.UserID,
		TenantID:         s.TenantID,
		Role:             s.Role,
		ClassIDs:         s.ClassIDs,
		LinkedStudentIDs: s.LinkedStudentIDs,
	}
}

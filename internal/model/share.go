package model

import "time"

// ScopeCategory is the only share scope kind currently issued. Scope is
// modeled as a tagged variant so new kinds can be added without a schema
// change.
const ScopeCategory = "category"

// ShareScope narrows what a share link grants access to.
type ShareScope struct {
	Kind       string `json:"kind"`
	CategoryID string `json:"category_id,omitempty"`
}

// ShareLink is a capability token: possession of Token alone grants scoped
// read access, no account required. Links are never deleted; expired or
// revoked links persist for audit but are permanently inert.
type ShareLink struct {
	Token       string     `json:"token"`
	OwnerID     string     `json:"owner_id,omitempty"`
	Scope       ShareScope `json:"scope"`
	IncludeDocs bool       `json:"include_docs"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Active reports whether the link can still be redeemed at the given
// instant: never revoked and not yet expired. Expiry is checked lazily at
// validation time; there is no background sweep.
func (l *ShareLink) Active(now time.Time) bool {
	return l.RevokedAt == nil && l.ExpiresAt.After(now)
}

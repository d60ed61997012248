package models

import "time"

// ProviderTier is the supplier trust tier. The race engine only ever needs
// the single IsTopTier distinction; the richer taxonomy belongs to the
// wider platform.
type ProviderTier string

const (
	TierPending         ProviderTier = "pending"
	TierApproved        ProviderTier = "approved"
	TierVerifiedPartner ProviderTier = "verified_partner"
	TierPremium         ProviderTier = "premium"
	TierSuspended       ProviderTier = "suspended"
)

// IsTopTier reports whether the tier broadcasts with zero delay and
// bypasses the accept gate.
func (t ProviderTier) IsTopTier() bool {
	return t == TierVerifiedPartner
}

// Provider is the supplier-directory record the race engine reads. The
// engine does not own this entity; it consumes tier and timezone for
// scheduling fairness and the activity/capacity fields for matching
// eligibility.
type Provider struct {
	ID                  string       `bson:"_id" json:"id"`
	Name                string       `bson:"name" json:"name"`
	ContactEmail        string       `bson:"contact_email" json:"contact_email"`
	Timezone            string       `bson:"timezone" json:"timezone"` // IANA name
	Tier                ProviderTier `bson:"tier" json:"tier"`
	IsActive            bool         `bson:"is_active" json:"is_active"`
	Categories          []string     `bson:"categories,omitempty" json:"categories,omitempty"`
	Skills              []string     `bson:"skills,omitempty" json:"skills,omitempty"`
	DayRate             *float64     `bson:"day_rate,omitempty" json:"day_rate,omitempty"`
	CompletionRate      float64      `bson:"completion_rate" json:"completion_rate"`
	AvgResponseHours    float64      `bson:"avg_response_hours" json:"avg_response_hours"`
	CurrentOrders       int          `bson:"current_orders" json:"current_orders"`
	MaxConcurrentOrders int          `bson:"max_concurrent_orders" json:"max_concurrent_orders"`
	CreatedAt           time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time    `bson:"updated_at" json:"updated_at"`
}

// HasCapacity reports whether the provider can take on another order.
// A zero max means the platform has not set a cap.
func (p *Provider) HasCapacity() bool {
	return p.MaxConcurrentOrders == 0 || p.CurrentOrders < p.MaxConcurrentOrders
}

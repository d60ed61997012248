package models

import (
	"time"
)

// RFQType selects the winner-resolution rule applied when suppliers accept.
type RFQType string

const (
	RFQTypeCommodity RFQType = "commodity" // first accept wins outright
	RFQTypeCustom    RFQType = "custom"    // first accept gets a priority hold
	RFQTypeService   RFQType = "service"   // buyer awards manually
)

// Valid reports whether t is one of the known RFQ types.
func (t RFQType) Valid() bool {
	switch t {
	case RFQTypeCommodity, RFQTypeCustom, RFQTypeService:
		return true
	}
	return false
}

// Urgency drives both race_opens_at stamping and broadcast scheduling.
type Urgency string

const (
	UrgencyUrgent   Urgency = "urgent"
	UrgencyStandard Urgency = "standard"
)

// Valid reports whether u is one of the known urgency classes.
func (u Urgency) Valid() bool {
	return u == UrgencyUrgent || u == UrgencyStandard
}

// RFQStatus is the stored lifecycle state of an RFQ.
type RFQStatus string

const (
	RFQStatusOpen         RFQStatus = "open"
	RFQStatusBidding      RFQStatus = "bidding"
	RFQStatusPriorityHold RFQStatus = "priority_hold"
	RFQStatusAwarded      RFQStatus = "awarded"
	RFQStatusClosed       RFQStatus = "closed"
	RFQStatusCancelled    RFQStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s RFQStatus) Terminal() bool {
	return s == RFQStatusAwarded || s == RFQStatusClosed || s == RFQStatusCancelled
}

// AcceptsResponses reports whether new supplier responses are admitted.
// Open and bidding are the only such states.
func (s RFQStatus) AcceptsResponses() bool {
	return s == RFQStatusOpen || s == RFQStatusBidding
}

// Specifications is an opaque structured document. It is validated by the
// intake surface, never interpreted by the race engine.
type Specifications map[string]interface{}

// RFQ is a buyer's procurement request.
//
// race_opens_at is stamped at creation from the urgency class and never
// mutated afterwards. awarded_to is set if and only if status is awarded.
// Cancellation is a terminal status, not deletion.
type RFQ struct {
	ID             string         `bson:"_id" json:"id"`
	BuyerID        string         `bson:"buyer_id" json:"buyer_id"`
	FoundryID      string         `bson:"foundry_id" json:"foundry_id"`
	Type           RFQType        `bson:"rfq_type" json:"rfq_type"`
	Title          string         `bson:"title" json:"title"`
	Specifications Specifications `bson:"specifications,omitempty" json:"specifications,omitempty"`
	BudgetMin      *float64       `bson:"budget_min,omitempty" json:"budget_min,omitempty"`
	BudgetMax      *float64       `bson:"budget_max,omitempty" json:"budget_max,omitempty"`
	Category       string         `bson:"category" json:"category"`
	SkillsRequired []string       `bson:"skills_required,omitempty" json:"skills_required,omitempty"`
	Urgency        Urgency        `bson:"urgency" json:"urgency"`

	Status                RFQStatus  `bson:"status" json:"status"`
	RaceOpensAt           *time.Time `bson:"race_opens_at,omitempty" json:"race_opens_at,omitempty"`
	PriorityHolderID      *string    `bson:"priority_holder_id,omitempty" json:"priority_holder_id,omitempty"`
	PriorityHoldExpiresAt *time.Time `bson:"priority_hold_expires_at,omitempty" json:"priority_hold_expires_at,omitempty"`
	AwardedTo             *string    `bson:"awarded_to,omitempty" json:"awarded_to,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

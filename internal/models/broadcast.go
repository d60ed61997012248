package models

import "time"

// Broadcast is the scheduled notification of one RFQ to one candidate
// provider. The (rfq_id, provider_id) pair is unique at the storage layer.
//
// delivered_at and viewed_at are set lazily, the first time the provider's
// response attempt touches the row, and never updated again.
type Broadcast struct {
	ID             string     `bson:"_id" json:"id"`
	RFQID          string     `bson:"rfq_id" json:"rfq_id"`
	ProviderID     string     `bson:"provider_id" json:"provider_id"`
	ScheduledAt    time.Time  `bson:"scheduled_at" json:"scheduled_at"`
	LocalTimeLabel string     `bson:"local_time_label" json:"local_time_label"`
	DeliveredAt    *time.Time `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	ViewedAt       *time.Time `bson:"viewed_at,omitempty" json:"viewed_at,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
}

package models

import "time"

// ResponseType classifies a provider's reply to an RFQ.
type ResponseType string

const (
	ResponseAccept      ResponseType = "accept"
	ResponseDecline     ResponseType = "decline"
	ResponseInfoRequest ResponseType = "info_request"
)

// Response is a provider's reply to an RFQ. A provider may respond to a
// given RFQ exactly once, whatever the type; the storage layer enforces
// this with a unique (rfq_id, provider_id) index. Rows are append-only.
type Response struct {
	ID           string       `bson:"_id" json:"id"`
	RFQID        string       `bson:"rfq_id" json:"rfq_id"`
	ProviderID   string       `bson:"provider_id" json:"provider_id"`
	ResponseType ResponseType `bson:"response_type" json:"response_type"`
	QuotedPrice  *float64     `bson:"quoted_price,omitempty" json:"quoted_price,omitempty"`
	Message      string       `bson:"message,omitempty" json:"message,omitempty"`
	RespondedAt  time.Time    `bson:"responded_at" json:"responded_at"`
}

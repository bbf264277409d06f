package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds emitted by the campaign subsystem.
const (
	NotifCampaignCreated   = "campaign_created"
	NotifDonationReceived  = "donation_received"
	NotifDonationVerified  = "donation_verified"
	NotifDonationRejected  = "donation_rejected"
	NotifCampaignCompleted = "campaign_completed"
	NotifCampaignDisbursed = "campaign_disbursed"
)

// Notification is an inbox entry. Dispatch is fire-and-forget: a failed
// insert is logged and never fails the action that triggered it.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Kind      string             `bson:"kind" json:"kind"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	Data      map[string]any     `bson:"data,omitempty" json:"data,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campaign statuses
const (
	CampaignActive    = "active"
	CampaignCompleted = "completed"
	CampaignCancelled = "cancelled"
	CampaignDisbursed = "disbursed"
)

// Donation statuses
const (
	DonationPending  = "pending"
	DonationVerified = "verified"
	DonationRejected = "rejected"
)

var campaignCategories = []string{
	"Education", "Healthcare", "Environment", "Community",
	"Emergency", "Technology", "Others",
}

type Campaign struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID   primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	OrganizationName string             `bson:"organization_name,omitempty" json:"organization_name,omitempty"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	Category         string             `bson:"category" json:"category"`
	GoalAmount       float64            `bson:"goal_amount" json:"goal_amount"`
	CurrentAmount    float64            `bson:"current_amount" json:"current_amount"` // derived, never client-set
	DueDate          time.Time          `bson:"due_date" json:"due_date"`
	ImageURL         string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Status           string             `bson:"status" json:"status"` // active, completed, cancelled, disbursed
	CompletedAt      *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	Disbursement     *Disbursement      `bson:"disbursement,omitempty" json:"disbursement,omitempty"`
	Donations        []Donation         `bson:"donations" json:"donations"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

type Donation struct {
	ID              primitive.ObjectID  `bson:"_id" json:"id"`
	DonorID         *primitive.ObjectID `bson:"donor_id,omitempty" json:"donor_id,omitempty"`
	DonorName       string              `bson:"donor_name" json:"donor_name"`
	DonorEmail      string              `bson:"donor_email,omitempty" json:"donor_email,omitempty"`
	Amount          float64             `bson:"amount" json:"amount"`
	ReferenceNumber string              `bson:"reference_number" json:"reference_number"`
	ScreenshotURL   string              `bson:"screenshot_url" json:"screenshot_url"`
	Message         string              `bson:"message,omitempty" json:"message,omitempty"`
	Anonymous       bool                `bson:"anonymous" json:"anonymous"`
	Status          string              `bson:"status" json:"status"` // pending, verified, rejected
	VerifiedBy      *primitive.ObjectID `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	VerifiedAt      *time.Time          `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
}

// Disbursement is written exactly once, when the campaign is settled.
// Nothing in the system mutates it afterward.
type Disbursement struct {
	PlatformFee float64            `bson:"platform_fee" json:"platform_fee"`
	NetAmount   float64            `bson:"net_amount" json:"net_amount"`
	DisbursedBy primitive.ObjectID `bson:"disbursed_by" json:"disbursed_by"`
	DisbursedAt time.Time          `bson:"disbursed_at" json:"disbursed_at"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// IsExpired reports whether the campaign's due date has passed. A campaign
// due exactly at now is not yet expired.
func (cp *Campaign) IsExpired(now time.Time) bool {
	return now.After(cp.DueDate)
}

// VerifiedTotal recomputes the raised amount from scratch: the sum of
// amounts over verified donations. currentAmount must always equal this.
func (cp *Campaign) VerifiedTotal() float64 {
	var total float64
	for _, d := range cp.Donations {
		if d.Status == DonationVerified {
			total += d.Amount
		}
	}
	return total
}

// HasVerifiedDonation guards campaign deletion: a campaign holding
// committed funds may not be removed.
func (cp *Campaign) HasVerifiedDonation() bool {
	for _, d := range cp.Donations {
		if d.Status == DonationVerified {
			return true
		}
	}
	return false
}

// FindDonation looks a donation up by id. Donations are only ever addressed
// by id, never by position.
func (cp *Campaign) FindDonation(id primitive.ObjectID) *Donation {
	for i := range cp.Donations {
		if cp.Donations[i].ID == id {
			return &cp.Donations[i]
		}
	}
	return nil
}

// ComputeDisbursement splits a raised amount into platform fee and net
// payout for the given fee percentage.
func ComputeDisbursement(amount, feePercentage float64) (platformFee, netAmount float64) {
	platformFee = amount * (feePercentage / 100)
	netAmount = amount - platformFee
	return platformFee, netAmount
}

// ValidCategory reports whether c is one of the supported campaign categories.
func ValidCategory(c string) bool {
	for _, cat := range campaignCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// ValidCampaignStatus reports whether s is a known campaign status.
func ValidCampaignStatus(s string) bool {
	switch s {
	case CampaignActive, CampaignCompleted, CampaignCancelled, CampaignDisbursed:
		return true
	}
	return false
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment methods
const (
	PaymentMethodGcash = "gcash"
	PaymentMethodBank  = "bank"
)

// DefaultFeePercentage applies until an admin configures a rate.
const DefaultFeePercentage = 5

// PaymentSettings is a singleton document: there is exactly one record once
// an admin has configured it, overwritten in place on update.
type PaymentSettings struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Method        string             `bson:"method" json:"method"` // gcash, bank
	AccountName   string             `bson:"account_name" json:"account_name"`
	AccountNumber string             `bson:"account_number" json:"account_number"`
	QRCodeURL     string             `bson:"qr_code_url,omitempty" json:"qr_code_url,omitempty"`
	FeePercentage float64            `bson:"fee_percentage" json:"fee_percentage"` // 0-100
	UpdatedBy     primitive.ObjectID `bson:"updated_by" json:"updated_by"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// ValidPaymentMethod reports whether m is a supported receiving method.
func ValidPaymentMethod(m string) bool {
	return m == PaymentMethodGcash || m == PaymentMethodBank
}

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/SebiosJade/Boluntik-sub002/config"
	models "github.com/SebiosJade/Boluntik-sub002/models"
)

// ---------------- GET ----------------
func GetPaymentSettings(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var settings models.PaymentSettings
		err := cfg.MongoClient.Database(cfg.DBName).
			Collection("payment_settings").
			FindOne(ctx, bson.M{}).
			Decode(&settings)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment settings not configured"})
			return
		}

		c.JSON(http.StatusOK, settings)
	}
}

// ---------------- UPSERT ----------------
// There is exactly one settings document; updates overwrite it in place and
// the first PUT creates it. Concurrent admin edits are last-writer-wins.
func UpdatePaymentSettings(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		var input struct {
			Method        string   `json:"method" binding:"required"`
			AccountName   string   `json:"account_name" binding:"required"`
			AccountNumber string   `json:"account_number" binding:"required"`
			QRCodeURL     string   `json:"qr_code_url"`
			FeePercentage *float64 `json:"fee_percentage"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if !models.ValidPaymentMethod(input.Method) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "method must be gcash or bank"})
			return
		}

		feePercentage := float64(models.DefaultFeePercentage)
		if input.FeePercentage != nil {
			feePercentage = *input.FeePercentage
		}
		if feePercentage < 0 || feePercentage > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fee_percentage must be between 0 and 100"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		col := cfg.MongoClient.Database(cfg.DBName).Collection("payment_settings")
		_, err = col.UpdateOne(ctx,
			bson.M{},
			bson.M{"$set": bson.M{
				"method":         input.Method,
				"account_name":   input.AccountName,
				"account_number": input.AccountNumber,
				"qr_code_url":    input.QRCodeURL,
				"fee_percentage": feePercentage,
				"updated_by":     adminID,
				"updated_at":     time.Now(),
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save payment settings"})
			return
		}

		var settings models.PaymentSettings
		if err := col.FindOne(ctx, bson.M{}).Decode(&settings); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve saved settings"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":  "payment settings saved",
			"settings": settings,
		})
	}
}

package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	config "github.com/SebiosJade/Boluntik-sub002/config"
	models "github.com/SebiosJade/Boluntik-sub002/models"
	utils "github.com/SebiosJade/Boluntik-sub002/utils"
)

// ---------------- DISBURSE ----------------
func DisburseCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		campaignID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		var input struct {
			Notes string `json:"notes"`
		}
		// The body is optional.
		_ = c.ShouldBindJSON(&input)

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		campaign, err := fetchCampaign(ctx, col, campaignID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		if campaign.Status == models.CampaignDisbursed {
			c.JSON(http.StatusConflict, gin.H{"error": "campaign already disbursed"})
			return
		}
		if campaign.CurrentAmount <= 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "nothing to disburse"})
			return
		}

		// The fee rate is read at disbursement time, never cached from
		// campaign creation.
		var settings models.PaymentSettings
		readErr := cfg.MongoClient.Database(cfg.DBName).
			Collection("payment_settings").
			FindOne(ctx, bson.M{}).
			Decode(&settings)
		feePercentage, err := disbursementFeeRate(settings, readErr)
		if err != nil {
			cfg.Logger.Error("payment settings read failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read payment settings"})
			return
		}

		platformFee, netAmount := models.ComputeDisbursement(campaign.CurrentAmount, feePercentage)
		now := time.Now()
		disbursement := models.Disbursement{
			PlatformFee: platformFee,
			NetAmount:   netAmount,
			DisbursedBy: adminID,
			DisbursedAt: now,
			Notes:       input.Notes,
		}

		// One-shot settlement: the filter re-checks that nobody disbursed
		// in the meantime and that the raised amount is still the one the
		// fee was computed from.
		res, err := col.UpdateOne(ctx,
			disburseFilter(campaignID, campaign.CurrentAmount),
			bson.M{"$set": bson.M{
				"status":       models.CampaignDisbursed,
				"disbursement": disbursement,
				"updated_at":   now,
			}},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not disburse campaign"})
			return
		}
		if res.MatchedCount == 0 {
			if current, err := fetchCampaign(ctx, col, campaignID); err == nil && current.Status == models.CampaignDisbursed {
				c.JSON(http.StatusConflict, gin.H{"error": "campaign already disbursed"})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": "campaign changed during disbursement, please retry"})
			return
		}

		utils.Notify(cfg, []primitive.ObjectID{campaign.OrganizationID}, models.NotifCampaignDisbursed,
			"Campaign funds disbursed",
			"The raised funds for \""+campaign.Title+"\" have been disbursed.",
			map[string]any{
				"campaign_id":  campaignID.Hex(),
				"platform_fee": platformFee,
				"net_amount":   netAmount,
			},
		)

		c.JSON(http.StatusOK, gin.H{
			"message":      "campaign disbursed",
			"disbursement": disbursement,
		})
	}
}

// disbursementFeeRate interprets the payment settings read. A missing
// document means the platform default rate; any other read error must stop
// the disbursement rather than settle at a rate nobody configured.
func disbursementFeeRate(settings models.PaymentSettings, readErr error) (float64, error) {
	if readErr != nil {
		if errors.Is(readErr, mongo.ErrNoDocuments) {
			return float64(models.DefaultFeePercentage), nil
		}
		return 0, readErr
	}
	return settings.FeePercentage, nil
}

// disburseFilter is the compare-and-swap that makes double disbursement
// impossible: it only matches while the campaign is not yet disbursed and
// its raised amount is still the amount the fee was computed from.
func disburseFilter(campaignID primitive.ObjectID, amount float64) bson.M {
	return bson.M{
		"_id":            campaignID,
		"status":         bson.M{"$ne": models.CampaignDisbursed},
		"current_amount": amount,
	}
}

// ---------------- EXPIRY SWEEP ----------------
func CompleteExpiredCampaigns(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		completed, failed, err := SweepExpiredCampaigns(ctx, cfg)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sweep campaigns"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "expired campaigns swept",
			"completed": completed,
			"failed":    failed,
		})
	}
}

// SweepExpiredCampaigns marks every active campaign past its due date as
// completed. Campaigns are processed independently: one failure is logged
// and counted, the rest of the batch continues. The admin endpoint and the
// background ticker both call this.
func SweepExpiredCampaigns(ctx context.Context, cfg *config.Config) (completed, failed int, err error) {
	col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
	now := time.Now()

	cursor, err := col.Find(ctx, bson.M{
		"status":   models.CampaignActive,
		"due_date": bson.M{"$lt": now},
	})
	if err != nil {
		return 0, 0, err
	}

	var expired []models.Campaign
	if err := cursor.All(ctx, &expired); err != nil {
		return 0, 0, err
	}

	for _, campaign := range expired {
		// Still conditional on active: a concurrent sweep or an explicit
		// edit may have transitioned it already.
		res, err := col.UpdateOne(ctx,
			bson.M{"_id": campaign.ID, "status": models.CampaignActive},
			bson.M{"$set": bson.M{
				"status":       models.CampaignCompleted,
				"completed_at": now,
				"updated_at":   now,
			}},
		)
		if err != nil {
			failed++
			cfg.Logger.Error("expiry sweep failed for campaign",
				zap.String("campaign_id", campaign.ID.Hex()),
				zap.Error(err),
			)
			continue
		}
		if res.ModifiedCount == 0 {
			continue
		}
		completed++

		utils.Notify(cfg, []primitive.ObjectID{campaign.OrganizationID}, models.NotifCampaignCompleted,
			"Campaign completed",
			"Your campaign \""+campaign.Title+"\" has reached its due date and is now completed.",
			map[string]any{"campaign_id": campaign.ID.Hex()},
		)
	}

	return completed, failed, nil
}

package controllers

import (
	"context"
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

// DonationEntry is a donation joined with its campaign, for cross-campaign
// listings (donor history, admin review queue).
type DonationEntry struct {
	CampaignID    primitive.ObjectID `bson:"_id" json:"campaign_id"`
	CampaignTitle string             `bson:"title" json:"campaign_title"`
	Donation      models.Donation    `bson:"donations" json:"donation"`
}

// ---------------- SUBMIT ----------------
func SubmitDonation(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		var input struct {
			DonorName       string  `form:"donor_name" binding:"required"`
			DonorEmail      string  `form:"donor_email"`
			Amount          float64 `form:"amount"`
			ReferenceNumber string  `form:"reference_number" binding:"required"`
			ScreenshotURL   string  `form:"screenshot_url"`
			Message         string  `form:"message"`
			Anonymous       bool    `form:"anonymous"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be greater than 0"})
			return
		}

		// --- Payment evidence: uploaded screenshot or an existing URL ---
		screenshotURL := input.ScreenshotURL
		form, err := c.MultipartForm()
		if err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
			return
		}
		if form != nil {
			if files := form.File["screenshot"]; len(files) > 0 {
				file, err := files[0].Open()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open screenshot"})
					return
				}
				url, err := utils.UploadDonationScreenshot(file)
				file.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "screenshot upload failed", "details": err.Error()})
					return
				}
				screenshotURL = url
			}
		}
		if screenshotURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment screenshot is required"})
			return
		}

		// --- Attach the donor account when signed in ---
		var donorID *primitive.ObjectID
		donorEmail := input.DonorEmail
		if uid := c.GetString("user_id"); uid != "" {
			if oid, err := primitive.ObjectIDFromHex(uid); err == nil {
				donorID = &oid
			}
			if donorEmail == "" {
				donorEmail = c.GetString("email")
			}
		}

		now := time.Now()
		donation := models.Donation{
			ID:              primitive.NewObjectID(),
			DonorID:         donorID,
			DonorName:       input.DonorName,
			DonorEmail:      donorEmail,
			Amount:          input.Amount,
			ReferenceNumber: input.ReferenceNumber,
			ScreenshotURL:   screenshotURL,
			Message:         input.Message,
			Anonymous:       input.Anonymous,
			Status:          models.DonationPending,
			CreatedAt:       now,
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// The campaign must still be active and not past due at append
		// time; both conditions ride in the filter.
		res, err := col.UpdateOne(ctx,
			acceptingDonationsFilter(campaignID, now),
			bson.M{
				"$push": bson.M{"donations": donation},
				"$set":  bson.M{"updated_at": now},
			},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit donation"})
			return
		}
		if res.MatchedCount == 0 {
			campaign, err := fetchCampaign(ctx, col, campaignID)
			switch {
			case err != nil:
				c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			case campaign.Status != models.CampaignActive:
				c.JSON(http.StatusConflict, gin.H{"error": "campaign is not accepting donations"})
			default:
				c.JSON(http.StatusConflict, gin.H{"error": "campaign has already ended"})
			}
			return
		}

		// --- Notify the owner and the review queue ---
		var campaign models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": campaignID}).Decode(&campaign); err == nil {
			recipients := []primitive.ObjectID{campaign.OrganizationID}
			if adminIDs, err := utils.AdminIDs(ctx, cfg); err == nil {
				recipients = append(recipients, adminIDs...)
			} else {
				cfg.Logger.Warn("could not list admins for notification", zap.Error(err))
			}
			utils.Notify(cfg, recipients, models.NotifDonationReceived,
				"New donation received",
				"A donation to \""+campaign.Title+"\" is awaiting verification.",
				map[string]any{
					"campaign_id": campaignID.Hex(),
					"donation_id": donation.ID.Hex(),
					"amount":      donation.Amount,
				},
			)
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":      donation.ID.Hex(),
			"message": "donation submitted and awaiting verification",
		})
	}
}

// ---------------- VERIFY / REJECT ----------------
func ReviewDonation(cfg *config.Config) gin.HandlerFunc {
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
		donationID, err := primitive.ObjectIDFromHex(c.Param("donationId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
			return
		}

		var input struct {
			Status string `json:"status" binding:"required"`
			Reason string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Status != models.DonationVerified && input.Status != models.DonationRejected {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be verified or rejected"})
			return
		}
		if input.Status == models.DonationRejected && input.Reason == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a reason is required when rejecting"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// One document write carries both the status transition and the
		// raised-amount recompute, so the invariant holds at every point a
		// reader can observe. The pending filter makes only the first
		// review match; a second review of the same donation matches
		// nothing.
		now := time.Now()
		res, err := col.UpdateOne(ctx,
			pendingDonationFilter(campaignID, donationID),
			reviewDonationPipeline(donationID, adminID, input.Status, input.Reason, now),
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update donation"})
			return
		}
		if res.MatchedCount == 0 {
			campaign, err := fetchCampaign(ctx, col, campaignID)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
				return
			}
			donation := campaign.FindDonation(donationID)
			if donation == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": "donation has already been " + donation.Status})
			return
		}

		campaign, err := fetchCampaign(ctx, col, campaignID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated campaign"})
			return
		}
		donation := campaign.FindDonation(donationID)

		// --- Notify the donor (account id, else email lookup, else skip) ---
		if donation != nil {
			notifyDonorOutcome(ctx, cfg, campaign, donation)
		}

		c.JSON(http.StatusOK, gin.H{
			"message":        "donation " + input.Status,
			"donation":       donation,
			"current_amount": campaign.CurrentAmount,
		})
	}
}

// acceptingDonationsFilter matches the campaign only while it is active and
// its deadline has not passed. A campaign due at exactly this instant still
// accepts the donation, mirroring Campaign.IsExpired.
func acceptingDonationsFilter(campaignID primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"_id":      campaignID,
		"status":   models.CampaignActive,
		"due_date": bson.M{"$gte": now},
	}
}

// pendingDonationFilter matches the campaign only while the target donation
// is still pending. This is the compare-and-swap that makes re-processing a
// decided donation impossible.
func pendingDonationFilter(campaignID, donationID primitive.ObjectID) bson.M {
	return bson.M{
		"_id": campaignID,
		"donations": bson.M{"$elemMatch": bson.M{
			"_id":    donationID,
			"status": models.DonationPending,
		}},
	}
}

// reviewDonationPipeline writes the review outcome onto the matching
// donation and recomputes current_amount in the same update, so the
// transition and the aggregate can never be persisted apart.
func reviewDonationPipeline(donationID, adminID primitive.ObjectID, status, reason string, now time.Time) mongo.Pipeline {
	outcome := bson.M{
		"status":      status,
		"verified_by": adminID,
		"verified_at": now,
	}
	if status == models.DonationRejected {
		outcome["rejection_reason"] = reason
	}

	transition := bson.D{{Key: "$set", Value: bson.M{
		"donations": bson.M{"$map": bson.M{
			"input": "$donations",
			"as":    "d",
			"in": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$$d._id", donationID}},
				bson.M{"$mergeObjects": bson.A{"$$d", outcome}},
				"$$d",
			}},
		}},
		"updated_at": now,
	}}}

	return append(mongo.Pipeline{transition}, verifiedTotalPipeline()...)
}

// verifiedTotalPipeline rewrites current_amount server-side as the sum of
// amounts over verified donations.
func verifiedTotalPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"current_amount": bson.M{"$sum": bson.M{"$map": bson.M{
				"input": bson.M{"$filter": bson.M{
					"input": "$donations",
					"as":    "d",
					"cond":  bson.M{"$eq": bson.A{"$$d.status", models.DonationVerified}},
				}},
				"as": "d",
				"in": "$$d.amount",
			}}},
		}}},
	}
}

func notifyDonorOutcome(ctx context.Context, cfg *config.Config, campaign *models.Campaign, donation *models.Donation) {
	kind := models.NotifDonationVerified
	title := "Donation verified"
	body := "Your donation to \"" + campaign.Title + "\" has been verified. Thank you!"
	if donation.Status == models.DonationRejected {
		kind = models.NotifDonationRejected
		title = "Donation rejected"
		body = "Your donation to \"" + campaign.Title + "\" was rejected."
		if donation.RejectionReason != "" {
			body += " Reason: " + donation.RejectionReason
		}
	}

	if donorID := utils.ResolveDonorID(ctx, cfg, donation); donorID != nil {
		utils.Notify(cfg, []primitive.ObjectID{*donorID}, kind, title, body, map[string]any{
			"campaign_id": campaign.ID.Hex(),
			"donation_id": donation.ID.Hex(),
			"amount":      donation.Amount,
		})
	}

	if donation.DonorEmail != "" {
		verified := donation.Status == models.DonationVerified
		name := donation.DonorName
		email := donation.DonorEmail
		amount := donation.Amount
		reason := donation.RejectionReason
		campaignTitle := campaign.Title
		campaignID := campaign.ID.Hex()
		go func() {
			subject, htmlBody := utils.DonationOutcomeEmail(campaignTitle, amount, verified, reason)
			if err := utils.SendEmail(email, name, subject, htmlBody); err != nil {
				cfg.Logger.Warn("donation outcome email failed",
					zap.String("campaign_id", campaignID),
					zap.Error(err),
				)
			}
		}()
	}
}

// ---------------- LIST (donor history) ----------------
func MyDonations(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		donorID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}
		email := c.GetString("email")

		// Match by account id, or by the email used on guest donations.
		match := bson.M{"donations.donor_id": donorID}
		if email != "" {
			match = bson.M{"$or": bson.A{
				bson.M{"donations.donor_id": donorID},
				bson.M{"donations.donor_email": email},
			}}
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := col.Aggregate(ctx, donationListPipeline(match, match))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch donations"})
			return
		}

		var entries []DonationEntry
		if err := cursor.All(ctx, &entries); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode donations"})
			return
		}
		if entries == nil {
			entries = []DonationEntry{}
		}

		c.JSON(http.StatusOK, entries)
	}
}

// ---------------- LIST (admin review queue) ----------------
func ListAllDonations(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		preMatch := bson.M{"donations.0": bson.M{"$exists": true}}
		var postMatch bson.M
		if status := c.Query("status"); status != "" {
			if status != models.DonationPending && status != models.DonationVerified && status != models.DonationRejected {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
				return
			}
			preMatch = bson.M{"donations.status": status}
			postMatch = bson.M{"donations.status": status}
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := col.Aggregate(ctx, donationListPipeline(preMatch, postMatch))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch donations"})
			return
		}

		var entries []DonationEntry
		if err := cursor.All(ctx, &entries); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode donations"})
			return
		}
		if entries == nil {
			entries = []DonationEntry{}
		}

		c.JSON(http.StatusOK, entries)
	}
}

// donationListPipeline unwinds the embedded donations across campaigns.
// preMatch narrows the campaigns scanned; postMatch (optional) filters the
// unwound per-donation rows. Newest donations first.
func donationListPipeline(preMatch, postMatch bson.M) mongo.Pipeline {
	p := mongo.Pipeline{
		bson.D{{Key: "$match", Value: preMatch}},
		bson.D{{Key: "$unwind", Value: "$donations"}},
	}
	if postMatch != nil {
		p = append(p, bson.D{{Key: "$match", Value: postMatch}})
	}
	return append(p,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "donations.created_at", Value: -1}}}},
		bson.D{{Key: "$project", Value: bson.M{
			"_id":       1,
			"title":     1,
			"donations": 1,
		}}},
	)
}

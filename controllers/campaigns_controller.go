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

// parseDueDate accepts RFC3339 plus a couple of date-only fallbacks the
// mobile client sends.
func parseDueDate(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	layouts := []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ---------------- CREATE ----------------
func CreateCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Authenticated organization ---
		uid := c.GetString("user_id")
		orgID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}
		if role := c.GetString("role"); role != models.RoleOrganization && role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "only organizations can create campaigns"})
			return
		}

		// --- Bind form fields ---
		var input struct {
			Title            string  `form:"title" binding:"required"`
			Description      string  `form:"description" binding:"required"`
			Category         string  `form:"category" binding:"required"`
			GoalAmount       float64 `form:"goal_amount"`
			DueDate          string  `form:"due_date" binding:"required"`
			OrganizationName string  `form:"organization_name"`
			ImageURL         string  `form:"image_url"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if !models.ValidCategory(input.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		if input.GoalAmount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "goal_amount must be greater than 0"})
			return
		}

		dueDate, ok := parseDueDate(input.DueDate)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date format, use RFC3339 or YYYY-MM-DD"})
			return
		}
		if !dueDate.After(time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be in the future"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// --- Donations cannot be received without configured payment settings ---
		settingsCol := cfg.MongoClient.Database(cfg.DBName).Collection("payment_settings")
		var settings models.PaymentSettings
		if err := settingsCol.FindOne(ctx, bson.M{}).Decode(&settings); err != nil {
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": "payment settings are not configured yet"})
			return
		}

		// --- Optional cover image upload ---
		imageURL := input.ImageURL
		form, err := c.MultipartForm()
		if err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
			return
		}
		if form != nil {
			if files := form.File["image"]; len(files) > 0 {
				file, err := files[0].Open()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open image"})
					return
				}
				url, err := utils.UploadCampaignImage(file)
				file.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed", "details": err.Error()})
					return
				}
				imageURL = url
			}
		}

		// --- Save campaign ---
		now := time.Now()
		campaign := models.Campaign{
			ID:               primitive.NewObjectID(),
			OrganizationID:   orgID,
			OrganizationName: input.OrganizationName,
			Title:            input.Title,
			Description:      input.Description,
			Category:         input.Category,
			GoalAmount:       input.GoalAmount,
			CurrentAmount:    0,
			DueDate:          dueDate,
			ImageURL:         imageURL,
			Status:           models.CampaignActive,
			Donations:        []models.Donation{},
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		if _, err := col.InsertOne(ctx, campaign); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create campaign"})
			return
		}

		utils.Notify(cfg, []primitive.ObjectID{orgID}, models.NotifCampaignCreated,
			"Campaign created",
			"Your campaign \""+campaign.Title+"\" is now live.",
			map[string]any{"campaign_id": campaign.ID.Hex()},
		)

		c.JSON(http.StatusCreated, campaign)
	}
}

// ---------------- LIST (public) ----------------
func ListCampaigns(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Build filter ---
		filter := bson.M{}
		if status := c.Query("status"); status != "" {
			if !models.ValidCampaignStatus(status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
				return
			}
			filter["status"] = status
		}
		if category := c.Query("category"); category != "" {
			filter["category"] = category
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// --- Fetch data ---
		cursor, err := col.Find(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch campaigns"})
			return
		}

		var campaigns []models.Campaign
		if err := cursor.All(ctx, &campaigns); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode campaigns"})
			return
		}

		if len(campaigns) == 0 {
			c.JSON(http.StatusOK, []models.Campaign{})
			return
		}

		for i := range campaigns {
			hideAnonymousDonors(&campaigns[i])
		}

		// --- Conditional GET from the most recently updated campaign ---
		latest := campaigns[0]
		for _, cp := range campaigns {
			if cp.UpdatedAt.After(latest.UpdatedAt) {
				latest = cp
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, campaigns)
	}
}

// ---------------- GET (public detail) ----------------
func GetCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var campaign models.Campaign
		err = cfg.MongoClient.Database(cfg.DBName).
			Collection("campaigns").
			FindOne(ctx, bson.M{"_id": campaignID}).
			Decode(&campaign)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		hideAnonymousDonors(&campaign)

		etag := utils.GenerateETag(campaign.ID, campaign.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		// Settings ride along so the client can render the QR / account
		// details for donors.
		var settings *models.PaymentSettings
		var s models.PaymentSettings
		if err := cfg.MongoClient.Database(cfg.DBName).
			Collection("payment_settings").
			FindOne(ctx, bson.M{}).
			Decode(&s); err == nil {
			settings = &s
		}

		c.JSON(http.StatusOK, gin.H{
			"campaign":         campaign,
			"payment_settings": settings,
		})
	}
}

// ---------------- LIST (own campaigns) ----------------
func MyCampaigns(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		orgID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := col.Find(ctx, bson.M{"organization_id": orgID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch campaigns"})
			return
		}

		var campaigns []models.Campaign
		if err := cursor.All(ctx, &campaigns); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode campaigns"})
			return
		}
		if campaigns == nil {
			campaigns = []models.Campaign{}
		}

		c.JSON(http.StatusOK, campaigns)
	}
}

// ---------------- UPDATE ----------------
func UpdateCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")
		if requesterID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		campaignID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		var input struct {
			Title       string  `json:"title"`
			Description string  `json:"description"`
			Category    string  `json:"category"`
			GoalAmount  float64 `json:"goal_amount"`
			DueDate     string  `json:"due_date"`
			ImageURL    string  `json:"image_url"`
			Status      string  `json:"status"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": campaignID}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		if role != models.RoleAdmin && existing.OrganizationID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		// A disbursed campaign is the audit record of an executed payout.
		if existing.Status == models.CampaignDisbursed {
			c.JSON(http.StatusConflict, gin.H{"error": "campaign already disbursed and can no longer be edited"})
			return
		}

		update := bson.M{"updated_at": time.Now()}
		if input.Title != "" {
			update["title"] = input.Title
		}
		if input.Description != "" {
			update["description"] = input.Description
		}
		if input.Category != "" {
			if !models.ValidCategory(input.Category) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
				return
			}
			update["category"] = input.Category
		}
		if input.GoalAmount > 0 {
			update["goal_amount"] = input.GoalAmount
		}
		if input.ImageURL != "" {
			update["image_url"] = input.ImageURL
		}
		if input.DueDate != "" {
			dueDate, ok := parseDueDate(input.DueDate)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			update["due_date"] = dueDate
		}
		if input.Status != "" {
			if !models.ValidCampaignStatus(input.Status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			// Only the disbursement flow may settle a campaign.
			if input.Status == models.CampaignDisbursed {
				c.JSON(http.StatusBadRequest, gin.H{"error": "status cannot be set to disbursed directly"})
				return
			}
			update["status"] = input.Status
			if input.Status == models.CampaignCompleted && existing.CompletedAt == nil {
				update["completed_at"] = time.Now()
			}
		}

		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		// Guard against a disbursement racing in between the read and the
		// write: the status condition rides in the filter.
		res, err := col.UpdateOne(ctx,
			bson.M{"_id": campaignID, "status": bson.M{"$ne": models.CampaignDisbursed}},
			bson.M{"$set": update},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update campaign"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "campaign already disbursed and can no longer be edited"})
			return
		}

		var updated models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": campaignID}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated campaign"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":  "campaign updated",
			"campaign": updated,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")
		if requesterID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		campaignID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": campaignID}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		if role != models.RoleAdmin && existing.OrganizationID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		// The verified-donation guard rides in the delete filter so a
		// verification racing in concurrently still blocks the delete.
		res, err := col.DeleteOne(ctx, bson.M{
			"_id":       campaignID,
			"donations": bson.M{"$not": bson.M{"$elemMatch": bson.M{"status": models.DonationVerified}}},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete campaign"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "campaign has verified donations and cannot be deleted"})
			return
		}

		if existing.ImageURL != "" {
			if err := utils.DeleteFromCloudinary(existing.ImageURL); err != nil {
				cfg.Logger.Warn("failed to delete campaign image", zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "campaign deleted",
			"id":      campaignID.Hex(),
		})
	}
}

// hideAnonymousDonors blanks donor identity on anonymous donations before a
// campaign leaves a public endpoint.
func hideAnonymousDonors(cp *models.Campaign) {
	for i := range cp.Donations {
		if cp.Donations[i].Anonymous {
			cp.Donations[i].DonorName = "Anonymous"
			cp.Donations[i].DonorEmail = ""
			cp.Donations[i].DonorID = nil
		}
	}
}

// fetchCampaign is the shared classify-after-conditional-update read.
func fetchCampaign(ctx context.Context, col *mongo.Collection, id primitive.ObjectID) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

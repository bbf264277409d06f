package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	config "github.com/SebiosJade/Boluntik-sub002/config"
	models "github.com/SebiosJade/Boluntik-sub002/models"
)

func testConfig() *config.Config {
	return &config.Config{Logger: zap.NewNop()}
}

func setUser(id primitive.ObjectID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id.Hex())
		c.Set("role", models.RoleAdmin)
	}
}

func TestSubmitDonationInvalidCampaignID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/campaigns/:id/donations", SubmitDonation(testConfig()))

	req := httptest.NewRequest("POST", "/campaigns/not-an-id/donations", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSubmitDonationRejectsNonPositiveAmount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/campaigns/:id/donations", SubmitDonation(testConfig()))

	form := url.Values{}
	form.Set("donor_name", "Juan Dela Cruz")
	form.Set("reference_number", "REF-123")
	form.Set("amount", "0")

	req := httptest.NewRequest("POST", "/campaigns/"+primitive.NewObjectID().Hex()+"/donations",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "amount") {
		t.Fatalf("error body does not mention amount: %s", rec.Body.String())
	}
}

func TestSubmitDonationRequiresScreenshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/campaigns/:id/donations", SubmitDonation(testConfig()))

	form := url.Values{}
	form.Set("donor_name", "Juan Dela Cruz")
	form.Set("reference_number", "REF-123")
	form.Set("amount", "100")

	req := httptest.NewRequest("POST", "/campaigns/"+primitive.NewObjectID().Hex()+"/donations",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "screenshot") {
		t.Fatalf("error body does not mention screenshot: %s", rec.Body.String())
	}
}

func TestReviewDonationRejectsUnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PATCH("/admin/campaigns/:id/donations/:donationId",
		setUser(primitive.NewObjectID()), ReviewDonation(testConfig()))

	path := "/admin/campaigns/" + primitive.NewObjectID().Hex() +
		"/donations/" + primitive.NewObjectID().Hex()
	req := httptest.NewRequest("PATCH", path, strings.NewReader(`{"status":"approved"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReviewDonationRequiresRejectionReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PATCH("/admin/campaigns/:id/donations/:donationId",
		setUser(primitive.NewObjectID()), ReviewDonation(testConfig()))

	path := "/admin/campaigns/" + primitive.NewObjectID().Hex() +
		"/donations/" + primitive.NewObjectID().Hex()
	req := httptest.NewRequest("PATCH", path, strings.NewReader(`{"status":"rejected"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "reason") {
		t.Fatalf("error body does not mention reason: %s", rec.Body.String())
	}
}

func TestReviewDonationUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PATCH("/admin/campaigns/:id/donations/:donationId", ReviewDonation(testConfig()))

	path := "/admin/campaigns/" + primitive.NewObjectID().Hex() +
		"/donations/" + primitive.NewObjectID().Hex()
	req := httptest.NewRequest("PATCH", path, strings.NewReader(`{"status":"verified"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

// The elemMatch filter is what makes a second verify of the same donation
// fail: it only matches while the donation is still pending.
func TestPendingDonationFilter(t *testing.T) {
	campaignID := primitive.NewObjectID()
	donationID := primitive.NewObjectID()

	filter := pendingDonationFilter(campaignID, donationID)

	if filter["_id"] != campaignID {
		t.Fatalf("filter _id = %v, want %v", filter["_id"], campaignID)
	}
	elem, ok := filter["donations"].(bson.M)["$elemMatch"].(bson.M)
	if !ok {
		t.Fatal("filter has no $elemMatch on donations")
	}
	if elem["_id"] != donationID {
		t.Fatalf("elemMatch _id = %v, want %v", elem["_id"], donationID)
	}
	if elem["status"] != models.DonationPending {
		t.Fatalf("elemMatch status = %v, want pending", elem["status"])
	}
}

// A campaign due at the exact submission instant still accepts the
// donation; only a strictly earlier deadline shuts the door.
func TestAcceptingDonationsFilterDeadlineInclusive(t *testing.T) {
	campaignID := primitive.NewObjectID()
	now := time.Now()

	filter := acceptingDonationsFilter(campaignID, now)

	if filter["_id"] != campaignID {
		t.Fatalf("filter _id = %v, want %v", filter["_id"], campaignID)
	}
	if filter["status"] != models.CampaignActive {
		t.Fatalf("filter status = %v, want active", filter["status"])
	}
	due, ok := filter["due_date"].(bson.M)
	if !ok {
		t.Fatal("filter has no due_date clause")
	}
	if _, strict := due["$gt"]; strict {
		t.Fatal("due_date uses $gt; a campaign due right now would reject the donation")
	}
	if due["$gte"] != now {
		t.Fatalf("due_date $gte = %v, want %v", due["$gte"], now)
	}
}

// The status transition and the raised-amount recompute must travel in one
// update, so a crash between them can never leave current_amount stale.
func TestReviewDonationPipelineSingleWrite(t *testing.T) {
	donationID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()
	now := time.Now()

	pipeline := reviewDonationPipeline(donationID, adminID, models.DonationVerified, "", now)

	raw, err := bson.MarshalExtJSON(bson.M{"pipeline": pipeline}, false, false)
	if err != nil {
		t.Fatalf("pipeline does not marshal: %v", err)
	}
	for _, want := range []string{"$mergeObjects", "verified_by", "current_amount", "$filter"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("pipeline missing %q: %s", want, raw)
		}
	}
	if strings.Contains(string(raw), "rejection_reason") {
		t.Errorf("verify pipeline carries a rejection reason: %s", raw)
	}
}

func TestReviewDonationPipelineRejection(t *testing.T) {
	donationID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()

	pipeline := reviewDonationPipeline(donationID, adminID, models.DonationRejected, "blurry screenshot", time.Now())

	raw, err := bson.MarshalExtJSON(bson.M{"pipeline": pipeline}, false, false)
	if err != nil {
		t.Fatalf("pipeline does not marshal: %v", err)
	}
	for _, want := range []string{models.DonationRejected, "blurry screenshot", "current_amount"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("pipeline missing %q: %s", want, raw)
		}
	}
}

func TestVerifiedTotalPipelineShape(t *testing.T) {
	raw, err := bson.MarshalExtJSON(bson.M{"pipeline": verifiedTotalPipeline()}, false, false)
	if err != nil {
		t.Fatalf("pipeline does not marshal: %v", err)
	}

	for _, want := range []string{"current_amount", "$filter", "$$d.amount", models.DonationVerified} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("pipeline missing %q: %s", want, raw)
		}
	}
}

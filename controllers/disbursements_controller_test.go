package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/SebiosJade/Boluntik-sub002/models"
)

func TestDisburseCampaignInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/admin/campaigns/:id/disburse", setUser(primitive.NewObjectID()), DisburseCampaign(testConfig()))

	req := httptest.NewRequest("POST", "/admin/campaigns/bogus/disburse", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDisburseCampaignUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/admin/campaigns/:id/disburse", DisburseCampaign(testConfig()))

	req := httptest.NewRequest("POST", "/admin/campaigns/"+primitive.NewObjectID().Hex()+"/disburse", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

// A missing settings document falls back to the platform default rate, but
// any other read failure has to abort the disbursement: settling at a rate
// nobody configured cannot be undone.
func TestDisbursementFeeRate(t *testing.T) {
	rate, err := disbursementFeeRate(models.PaymentSettings{FeePercentage: 7.5}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 7.5 {
		t.Fatalf("rate = %v, want 7.5", rate)
	}

	rate, err = disbursementFeeRate(models.PaymentSettings{}, mongo.ErrNoDocuments)
	if err != nil {
		t.Fatalf("unexpected error for missing settings: %v", err)
	}
	if rate != float64(models.DefaultFeePercentage) {
		t.Fatalf("rate = %v, want default %v", rate, models.DefaultFeePercentage)
	}

	readErr := errors.New("connection reset")
	if _, err = disbursementFeeRate(models.PaymentSettings{}, readErr); !errors.Is(err, readErr) {
		t.Fatalf("err = %v, want the read error back", err)
	}
}

// The settlement filter must refuse a campaign that is already disbursed and
// pin the amount the fee was computed from, so two concurrent disbursements
// cannot both land.
func TestDisburseFilter(t *testing.T) {
	campaignID := primitive.NewObjectID()
	filter := disburseFilter(campaignID, 250)

	if filter["_id"] != campaignID {
		t.Fatalf("filter _id = %v, want %v", filter["_id"], campaignID)
	}

	ne, ok := filter["status"].(bson.M)
	if !ok || ne["$ne"] != models.CampaignDisbursed {
		t.Fatalf("filter status = %v, want $ne disbursed", filter["status"])
	}

	if filter["current_amount"] != float64(250) {
		t.Fatalf("filter current_amount = %v, want 250", filter["current_amount"])
	}
}

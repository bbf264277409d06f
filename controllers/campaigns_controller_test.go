package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/SebiosJade/Boluntik-sub002/models"
)

func TestParseDueDate(t *testing.T) {
	valid := []string{
		"2026-12-31T23:59:59Z",
		"2026-12-31",
		"2026-12-31 18:00",
		"2026-12-31 18:00:00",
	}
	for _, raw := range valid {
		if _, ok := parseDueDate(raw); !ok {
			t.Errorf("parseDueDate(%q) rejected a valid date", raw)
		}
	}

	invalid := []string{"", "soon", "31/12/2026", "2026-13-40"}
	for _, raw := range invalid {
		if _, ok := parseDueDate(raw); ok {
			t.Errorf("parseDueDate(%q) accepted an invalid date", raw)
		}
	}
}

func TestHideAnonymousDonors(t *testing.T) {
	donorID := primitive.NewObjectID()
	cp := &models.Campaign{
		Donations: []models.Donation{
			{DonorName: "Maria Clara", DonorEmail: "maria@example.com", DonorID: &donorID, Anonymous: true},
			{DonorName: "Jose Rizal", DonorEmail: "jose@example.com", Anonymous: false},
		},
	}

	hideAnonymousDonors(cp)

	anon := cp.Donations[0]
	if anon.DonorName != "Anonymous" || anon.DonorEmail != "" || anon.DonorID != nil {
		t.Fatalf("anonymous donor identity leaked: %+v", anon)
	}
	if cp.Donations[1].DonorName != "Jose Rizal" {
		t.Fatal("non-anonymous donor was blanked")
	}
}

func TestCreateCampaignUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/campaigns", CreateCampaign(testConfig()))

	req := httptest.NewRequest("POST", "/campaigns", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateCampaignInvalidCategory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/campaigns", setUser(primitive.NewObjectID()), CreateCampaign(testConfig()))

	form := "title=Relief+Drive&description=Help&category=Gaming&goal_amount=1000&due_date=" +
		time.Now().Add(7*24*time.Hour).Format("2006-01-02")
	req := httptest.NewRequest("POST", "/campaigns", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "category") {
		t.Fatalf("error body does not mention category: %s", rec.Body.String())
	}
}

func TestCreateCampaignRequiresFutureDueDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/campaigns", setUser(primitive.NewObjectID()), CreateCampaign(testConfig()))

	form := "title=Relief+Drive&description=Help&category=Emergency&goal_amount=1000&due_date=2020-01-01"
	req := httptest.NewRequest("POST", "/campaigns", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListCampaignsInvalidStatusFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/campaigns", ListCampaigns(testConfig()))

	req := httptest.NewRequest("GET", "/campaigns?status=archived", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateCampaignInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PATCH("/campaigns/:id", setUser(primitive.NewObjectID()), UpdateCampaign(testConfig()))

	req := httptest.NewRequest("PATCH", "/campaigns/xyz", strings.NewReader(`{"title":"New"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteCampaignUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/campaigns/:id", DeleteCampaign(testConfig()))

	req := httptest.NewRequest("DELETE", "/campaigns/"+primitive.NewObjectID().Hex(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func putSettings(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/admin/payment-settings", setUser(primitive.NewObjectID()), UpdatePaymentSettings(testConfig()))

	req := httptest.NewRequest("PUT", "/admin/payment-settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUpdatePaymentSettingsInvalidMethod(t *testing.T) {
	rec := putSettings(t, `{"method":"paypal","account_name":"Boluntik Org","account_number":"0917000000"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "method") {
		t.Fatalf("error body does not mention method: %s", rec.Body.String())
	}
}

func TestUpdatePaymentSettingsFeeOutOfRange(t *testing.T) {
	for _, body := range []string{
		`{"method":"gcash","account_name":"Boluntik Org","account_number":"0917000000","fee_percentage":-1}`,
		`{"method":"gcash","account_name":"Boluntik Org","account_number":"0917000000","fee_percentage":101}`,
	} {
		rec := putSettings(t, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400 for body %s", rec.Code, body)
		}
	}
}

func TestUpdatePaymentSettingsMissingAccount(t *testing.T) {
	rec := putSettings(t, `{"method":"gcash"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

package utils

import (
	"strings"
	"testing"
)

func TestDonationOutcomeEmailVerified(t *testing.T) {
	subject, body := DonationOutcomeEmail("Typhoon Relief", 250, true, "")
	if !strings.Contains(subject, "verified") {
		t.Fatalf("subject = %q", subject)
	}
	if !strings.Contains(body, "Typhoon Relief") || !strings.Contains(body, "250.00") {
		t.Fatalf("body missing campaign or amount: %q", body)
	}
}

func TestDonationOutcomeEmailRejected(t *testing.T) {
	subject, body := DonationOutcomeEmail("Typhoon Relief", 250, false, "reference number does not match any transfer")
	if strings.Contains(subject, "verified") && !strings.Contains(subject, "could not") {
		t.Fatalf("subject = %q", subject)
	}
	if !strings.Contains(body, "rejected") {
		t.Fatalf("body does not state rejection: %q", body)
	}
	if !strings.Contains(body, "reference number does not match") {
		t.Fatalf("body missing rejection reason: %q", body)
	}
}

func TestSendEmailRequiresConfig(t *testing.T) {
	t.Setenv("ZEPTO_API_URL", "")
	t.Setenv("ZEPTO_API_KEY", "")
	t.Setenv("EMAIL_FROM", "")

	if err := SendEmail("donor@example.com", "Donor", "Subject", "<p>Body</p>"); err == nil {
		t.Fatal("SendEmail succeeded without configuration")
	}
}

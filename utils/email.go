package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// email request payload for the ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type toRecipient struct {
	Email emailWithName `json:"email_address"`
}

type emailWithName struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// SendEmail sends an HTML email through the ZeptoMail HTTP API.
func SendEmail(to, toName, subject, body string) error {
	apiURL := os.Getenv("ZEPTO_API_URL") // e.g. https://api.zeptomail.com/v1.1/email
	apiKey := os.Getenv("ZEPTO_API_KEY")
	from := os.Getenv("EMAIL_FROM")

	if apiURL == "" || apiKey == "" || from == "" {
		return fmt.Errorf("missing ZEPTO_API_URL, ZEPTO_API_KEY, or EMAIL_FROM")
	}

	payload := emailRequest{
		From: emailAddress{Address: from},
		To: []toRecipient{
			{
				Email: emailWithName{
					Address: to,
					Name:    toName,
				},
			},
		},
		Subject:  subject,
		HtmlBody: body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %v", err)
	}

	req, err := http.NewRequest("POST", apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", apiKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}

	return nil
}

// DonationOutcomeEmail builds the subject and body for a donation
// verification result sent to the donor.
func DonationOutcomeEmail(campaignTitle string, amount float64, verified bool, reason string) (subject, body string) {
	if verified {
		subject = "Your donation has been verified"
		body = fmt.Sprintf(
			"<p>Thank you! Your donation of %.2f to <b>%s</b> has been verified and counted toward the campaign.</p>",
			amount, campaignTitle,
		)
		return subject, body
	}

	subject = "Your donation could not be verified"
	body = fmt.Sprintf(
		"<p>Unfortunately your donation of %.2f to <b>%s</b> was rejected.</p>",
		amount, campaignTitle,
	)
	if reason != "" {
		body += fmt.Sprintf("<p>Reason: %s</p>", reason)
	}
	return subject, body
}

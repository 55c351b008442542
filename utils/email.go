package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
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

// Mailer sends HTML email through the ZeptoMail HTTP API. Credentials are
// injected at construction; the zero value is not usable.
type Mailer struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

func NewMailer(apiURL, apiKey, from string) *Mailer {
	return &Mailer{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one HTML email.
func (m *Mailer) Send(to, toName, subject, body string) error {
	payload := emailRequest{
		From: emailAddress{Address: m.from},
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
		return fmt.Errorf("marshaling email payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, m.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating email request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}

	return nil
}

// SendFundedNotification tells a campaign owner their goal was reached.
// Callers treat a failure here as non-fatal: the contribution is already
// committed by the time this runs.
func (m *Mailer) SendFundedNotification(to, campaignName string) error {
	subject := fmt.Sprintf("%s reached its funding goal!", campaignName)
	body := fmt.Sprintf(
		"<p>Congratulations! Your campaign <strong>%s</strong> has reached its funding goal.</p>"+
			"<p>Log in to see your contributions.</p>",
		campaignName,
	)
	return m.Send(to, "Campaign Owner", subject, body)
}

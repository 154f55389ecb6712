package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/netx"
)

// APISender posts messages to an HTTPS email API that accepts
// {from, to, subject, html} and a bearer API key.
type APISender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewAPISender(endpoint, apiKey string, client *http.Client) *APISender {
	if client == nil {
		client = http.DefaultClient
	}
	return &APISender{endpoint: endpoint, apiKey: apiKey, client: client}
}

type apiPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (s *APISender) Send(ctx context.Context, msg Message) error {
	err := netx.PostJSON(ctx, s.client, s.endpoint, s.apiKey, apiPayload{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("mail api: %w", err)
	}
	return nil
}

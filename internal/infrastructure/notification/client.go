package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
)

var subjects = map[string]string{
	constants.TemplateCreatePassword:  "Crea tu contraseña",
	constants.TemplateRecoverPassword: "Recuperación de contraseña",
}

// Client talks to the notification service over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a notification client. An empty baseURL disables delivery.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type emailRequest struct {
	To        string            `json:"to"`
	Subject   string            `json:"subject"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"h:X-Mailgun-Variables"`
}

// Send posts a templated email.
func (c *Client) Send(ctx context.Context, to, template string, variables map[string]string) error {
	if c.BaseURL == "" {
		log.WithFields(log.Fields{"to": to, "template": template}).Warn("Notification service not configured, email dropped")
		return nil
	}
	body := emailRequest{
		To:        to,
		Subject:   subjects[template],
		Template:  template,
		Variables: variables,
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/email", body)
}

// SignalLogout asks the notification service to close the user's open sessions.
func (c *Client) SignalLogout(ctx context.Context, userID int64) error {
	if c.BaseURL == "" {
		return nil
	}
	return c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/auth/logout/%d", userID), nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification service error (%d): %s", resp.StatusCode, string(respBytes))
	}
	return nil
}

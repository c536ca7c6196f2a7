package netsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
)

// RPC methods exposed by the ERP integration endpoint
const (
	MethodCreateCustomer  = "CustomerController.create"
	MethodUpsertAddress   = "CustomerController.updateOrCreateAddress"
	MethodRefreshCustomer = "CustomerController.refreshCustomer"
)

// Request is the RPC envelope the ERP endpoint expects.
type Request struct {
	Method string      `json:"method"`
	Values interface{} `json:"values"`
}

// Client calls the ERP integration endpoint.
type Client struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new ERP client
func NewClient(url, apiKey string) *Client {
	return &Client{
		URL:    url,
		APIKey: apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateLead creates or updates a lead in the ERP.
func (c *Client) CreateLead(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.call(ctx, MethodCreateCustomer, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateOrUpdateAddress writes an address of a customer in the ERP.
func (c *Client) CreateOrUpdateAddress(ctx context.Context, customerID int64, payload map[string]interface{}) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		values[k] = v
	}
	values["customerId"] = customerID

	var result map[string]interface{}
	if err := c.call(ctx, MethodUpsertAddress, values, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// RefreshCustomer asks the ERP to push the customer again.
func (c *Client) RefreshCustomer(ctx context.Context, customerID int64) error {
	return c.call(ctx, MethodRefreshCustomer, map[string]interface{}{"userId": customerID}, nil)
}

func (c *Client) call(ctx context.Context, method string, values interface{}, result interface{}) error {
	if c.URL == "" {
		return fmt.Errorf("ERP service not configured")
	}
	jsonBytes, err := json.Marshal(Request{Method: method, Values: values})
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(jsonBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	req.Header.Set(constants.HeaderAPIKey, c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s failed (%d): %s", method, resp.StatusCode, string(respBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Litwebs/Levants-client/internal/api"
)

// The backend has exposed the deliverability verdict under a number of
// key names over time. They are probed in this order, descending into
// nested data objects.
var deliverableKeys = []string{
	"isDeliverable",
	"deliverable",
	"canDeliver",
	"isInDeliveryArea",
	"inDeliveryArea",
	"isAvailable",
	"available",
	"isEligible",
	"eligible",
	"isValid",
	"valid",
}

type CheckResult struct {
	Deliverable bool
	Message     string
}

type Client struct {
	api *api.Client
}

func NewClient(apiClient *api.Client) *Client {
	return &Client{api: apiClient}
}

// CheckPostcode asks the backend whether an address is in the delivery
// area. When no known flag is present the envelope's success field is
// the verdict, defaulting to deliverable.
func (c *Client) CheckPostcode(ctx context.Context, postcode string) (CheckResult, error) {
	body := struct {
		Postcode string `json:"postcode"`
	}{Postcode: strings.TrimSpace(postcode)}

	var raw json.RawMessage
	if err := c.api.Post(ctx, "/delivery/check", body, &raw); err != nil {
		return CheckResult{}, fmt.Errorf("delivery check: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return CheckResult{}, fmt.Errorf("delivery check: decode response: %w", err)
	}

	result := CheckResult{Deliverable: true}

	probe := payload
	if data, ok := payload["data"].(map[string]any); ok {
		probe = data
	}
	if flag, ok := extractBoolDeep(probe, deliverableKeys); ok {
		result.Deliverable = flag
	} else if success, ok := payload["success"].(bool); ok {
		result.Deliverable = success
	}

	if msg, ok := payload["message"].(string); ok {
		result.Message = strings.TrimSpace(msg)
	}
	return result, nil
}

func extractBoolDeep(value map[string]any, keys []string) (bool, bool) {
	for _, key := range keys {
		if b, ok := value[key].(bool); ok {
			return b, true
		}
	}
	if nested, ok := value["data"].(map[string]any); ok {
		return extractBoolDeep(nested, keys)
	}
	return false, false
}

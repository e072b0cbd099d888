package abradapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mandate/contexts/identity-access/authorisation-service/ports"
)

// Client queries the external business registry over HTTP JSON. It
// implements ports.BusinessRegistry.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type registryRecord struct {
	BusinessNumber string `json:"business_number"`
	Name           string `json:"name"`
}

type registrySearchResponse struct {
	Records []registryRecord `json:"records"`
}

func (c *Client) SearchByNumber(ctx context.Context, number string) ([]ports.BusinessRecord, error) {
	return c.search(ctx, url.Values{"number": {strings.TrimSpace(number)}})
}

func (c *Client) SearchByName(ctx context.Context, name string) ([]ports.BusinessRecord, error) {
	return c.search(ctx, url.Values{"name": {strings.TrimSpace(name)}})
}

func (c *Client) search(ctx context.Context, query url.Values) ([]ports.BusinessRecord, error) {
	endpoint := c.baseURL + "/v1/businesses?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("business registry request failed",
			"event", "business_registry_request_failed",
			"module", "identity-access/authorisation-service",
			"layer", "adapter",
			"error", err.Error(),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []ports.BusinessRecord{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("business registry: unexpected status %d", resp.StatusCode)
	}

	var body registrySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	records := make([]ports.BusinessRecord, 0, len(body.Records))
	for _, record := range body.Records {
		records = append(records, ports.BusinessRecord{
			BusinessNumber: strings.TrimSpace(record.BusinessNumber),
			Name:           strings.TrimSpace(record.Name),
		})
	}
	return records, nil
}

package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.octopus.energy/v1"
	// Current Agile product code - update as needed
	DefaultAgileProduct = "AGILE-24-10-01"
)

// PriceSlot represents a 30-minute electricity pricing period
type PriceSlot struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	PencePerKWh float64   `json:"pence_per_kwh"`
	IncludesVAT bool      `json:"includes_vat"`
}

// OctopusClient fetches electricity prices from Octopus Energy Agile tariff
type OctopusClient struct {
	httpClient *http.Client
	baseURL    string
	product    string
	region     string
}

// Option configures an OctopusClient
type Option func(*OctopusClient)

// WithBaseURL points the client at another API root
func WithBaseURL(base string) Option {
	return func(c *OctopusClient) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithProduct selects the Agile product code
func WithProduct(product string) Option {
	return func(c *OctopusClient) {
		if product != "" {
			c.product = product
		}
	}
}

// WithHTTPClient replaces the default 30s-timeout client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *OctopusClient) {
		c.httpClient = hc
	}
}

// NewOctopusClient creates a new client for the Octopus Agile API
func NewOctopusClient(region string, opts ...Option) *OctopusClient {
	c := &OctopusClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		product:    DefaultAgileProduct,
		region:     region,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// octopusResponse represents the API response structure
type octopusResponse struct {
	Count    int          `json:"count"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
	Results  []resultItem `json:"results"`
}

type resultItem struct {
	ValueExcVAT   float64   `json:"value_exc_vat"`
	ValueIncVAT   float64   `json:"value_inc_vat"`
	ValidFrom     time.Time `json:"valid_from"`
	ValidTo       time.Time `json:"valid_to"`
	PaymentMethod *string   `json:"payment_method"`
}

// HalfHourly fetches half-hourly prices for a specific day
func (c *OctopusClient) HalfHourly(ctx context.Context, day time.Time) ([]PriceSlot, error) {
	if c.region == "" {
		return nil, fmt.Errorf("octopus region is required")
	}

	// Tariff code: E-1R-{PRODUCT}-{REGION}
	tariffCode := fmt.Sprintf("E-1R-%s-%s", c.product, c.region)
	endpoint := fmt.Sprintf("%s/products/%s/electricity-tariffs/%s/standard-unit-rates/",
		c.baseURL, c.product, tariffCode)

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	params := url.Values{}
	params.Add("period_from", startOfDay.Format(time.RFC3339))
	params.Add("period_to", endOfDay.Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var octResp octopusResponse
	if err := json.NewDecoder(resp.Body).Decode(&octResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	slots := make([]PriceSlot, 0, len(octResp.Results))
	for _, r := range octResp.Results {
		slots = append(slots, PriceSlot{
			Start:       r.ValidFrom,
			End:         r.ValidTo,
			PencePerKWh: r.ValueIncVAT,
			IncludesVAT: true,
		})
	}

	// API returns in reverse chronological order
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})

	return slots, nil
}

// Package grata provides a client for the Grata company enrichment API.
package grata

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://search.grata.com/api/v1.4"

// Client performs company enrichment lookups against the Grata API.
type Client interface {
	// EnrichByDomain returns the Grata company record for a domain.
	// A domain Grata has never seen yields a nil company and no error.
	EnrichByDomain(ctx context.Context, domain string) (*Company, error)
}

// Company is the enriched firmographic record returned by Grata.
type Company struct {
	CompanyUID    string   `json:"company_uid"`
	Name          string   `json:"name"`
	Domain        string   `json:"domain"`
	Description   string   `json:"description"`
	EmployeeCount int      `json:"employees_on_professional_networks"`
	EmployeeRange string   `json:"employee_range"`
	YearFounded   int      `json:"year_founded"`
	OwnershipType string   `json:"ownership"`
	HeadquartersC string   `json:"headquarters"`
	Industries    []string `json:"industry_classifications"`
	Keywords      []string `json:"keywords"`
	RevenueEst    string   `json:"revenue_estimates"`
	SoftwareStack []string `json:"software_detected"`
	Executives    []Person `json:"executives"`
}

// Person is a named contact on the company record.
type Person struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type enrichRequest struct {
	Domain string `json:"domain"`
}

type enrichResponse struct {
	Company *Company `json:"company"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default Grata rate limit (5 req/s).
// A non-positive rps disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Grata API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *httpClient) EnrichByDomain(ctx context.Context, domain string) (*Company, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "grata: rate limit")
	}

	body, err := json.Marshal(enrichRequest{Domain: domain})
	if err != nil {
		return nil, eris.Wrap(err, "grata: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/enrich/", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "grata: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "grata: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "grata: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("grata: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result enrichResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "grata: unmarshal response")
	}

	return result.Company, nil
}

// Package apify invokes Apify actors over the platform REST API.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"leadharvest/internal/harvest"
)

const defaultBaseURL = "https://api.apify.com/v2"

// Config controls actor selection and run tuning.
type Config struct {
	Token        string
	ListingActor string
	ContactActor string
	// ResultCount caps the number of listings one listing-actor run returns.
	ResultCount    int
	ProxyGroup     string
	MaxConcurrency int
	ContactDepth   int
	ContactMaxReqs int
	PollInterval   time.Duration
	RunTimeout     time.Duration
	// BaseURL overrides the Apify API endpoint, for tests.
	BaseURL string
}

// Client runs actors and collects their default dataset. It implements both
// harvest.ListingScraper and harvest.ContactScraper.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}
	if cfg.ResultCount <= 0 {
		cfg.ResultCount = 100
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RunTimeout},
		logger: logger,
	}
}

// ScrapeListings runs the listing actor against one search URL.
func (c *Client) ScrapeListings(ctx context.Context, searchURL string) ([]harvest.Listing, error) {
	input := map[string]any{
		"urls":          []string{searchURL},
		"scrapeCompany": true,
		"count":         c.cfg.ResultCount,
		"proxyConfiguration": map[string]any{
			"useApifyProxy":    true,
			"apifyProxyGroups": []string{c.cfg.ProxyGroup},
		},
		"maxConcurrency": c.cfg.MaxConcurrency,
	}
	var listings []harvest.Listing
	if err := c.runActor(ctx, c.cfg.ListingActor, input, &listings); err != nil {
		return nil, fmt.Errorf("listing actor: %w", err)
	}
	return listings, nil
}

// ScrapeContacts runs the contact-detail actor against one website.
func (c *Client) ScrapeContacts(ctx context.Context, websiteURL string) ([]harvest.ContactRecord, error) {
	input := map[string]any{
		"startUrls":           []map[string]string{{"url": websiteURL, "method": "GET"}},
		"maxDepth":            c.cfg.ContactDepth,
		"maxRequests":         c.cfg.ContactMaxReqs,
		"sameDomain":          true,
		"considerChildFrames": true,
	}
	var records []harvest.ContactRecord
	if err := c.runActor(ctx, c.cfg.ContactActor, input, &records); err != nil {
		return nil, fmt.Errorf("contact actor: %w", err)
	}
	return records, nil
}

// runActor starts a run, polls it to a terminal state and decodes the default
// dataset items into out.
func (c *Client) runActor(ctx context.Context, actorID string, input, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RunTimeout)
	defer cancel()

	runID, err := c.startRun(ctx, actorID, input)
	if err != nil {
		return err
	}
	c.logger.Debug("actor run started", zap.String("actor", actorID), zap.String("run_id", runID))

	datasetID, err := c.awaitRun(ctx, runID)
	if err != nil {
		return err
	}
	return c.datasetItems(ctx, datasetID, out)
}

func (c *Client) startRun(ctx context.Context, actorID string, input any) (string, error) {
	url := fmt.Sprintf("%s/acts/%s/runs?token=%s", c.cfg.BaseURL, actorID, c.cfg.Token)
	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal actor input: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build start request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("start actor run: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("start actor run: status %d: %s", resp.StatusCode, payload)
	}
	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode run response: %w", err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("start actor run: empty run id")
	}
	return result.Data.ID, nil
}

func (c *Client) awaitRun(ctx context.Context, runID string) (string, error) {
	url := fmt.Sprintf("%s/actor-runs/%s?token=%s", c.cfg.BaseURL, runID, c.cfg.Token)
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("await actor run: %w", ctx.Err())
		case <-time.After(c.cfg.PollInterval):
		}

		status, datasetID, err := c.runStatus(ctx, url)
		if err != nil {
			return "", err
		}
		switch status {
		case "SUCCEEDED":
			return datasetID, nil
		case "FAILED", "ABORTED", "TIMED-OUT":
			return "", fmt.Errorf("actor run %s finished with status %s", runID, status)
		}
	}
}

func (c *Client) runStatus(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("build status request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("poll actor run: %w", err)
	}
	defer closeBody(resp.Body)

	var status struct {
		Data struct {
			Status           string `json:"status"`
			DefaultDatasetID string `json:"defaultDatasetId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", "", fmt.Errorf("decode run status: %w", err)
	}
	return status.Data.Status, status.Data.DefaultDatasetID, nil
}

func (c *Client) datasetItems(ctx context.Context, datasetID string, out any) error {
	url := fmt.Sprintf("%s/datasets/%s/items?token=%s", c.cfg.BaseURL, datasetID, c.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build dataset request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch dataset items: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch dataset items: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode dataset items: %w", err)
	}
	return nil
}

func closeBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<16))
	_ = body.Close()
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultRaindropAPIURL = "https://api.raindrop.io/rest/v1"

type createRaindropRequest struct {
	Link        string   `json:"link"`
	Title       string   `json:"title,omitempty"`
	Excerpt     string   `json:"excerpt,omitempty"`
	Tags        []string `json:"tags"`
	PleaseParse struct{} `json:"pleaseParse"`
}

type raindropResponse struct {
	Result bool `json:"result"`
	Item   *struct {
		ID int64 `json:"_id"`
	} `json:"item"`
}

// RaindropClient saves bookmarks to the Raindrop.io service.
type RaindropClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

func NewRaindropClient(accessToken string) *RaindropClient {
	return &RaindropClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultRaindropAPIURL,
		accessToken: accessToken,
	}
}

// SaveBookmark creates a bookmark and returns its remote identifier. Title
// and excerpt are optional; tags may be empty.
func (c *RaindropClient) SaveBookmark(ctx context.Context, url, title, excerpt string, tags []string) (int64, error) {
	if tags == nil {
		tags = []string{}
	}
	payload := createRaindropRequest{
		Link:    url,
		Title:   title,
		Excerpt: excerpt,
		Tags:    tags,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/raindrop", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to save bookmark: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorText, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("API error: %s", string(errorText))
	}

	var decoded raindropResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if decoded.Item == nil {
		return 0, fmt.Errorf("no item returned from API")
	}

	return decoded.Item.ID, nil
}

package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPFetcher implements Fetcher against the chat REST API
type HTTPFetcher struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher for the given API base URL, e.g.
// "http://localhost:9000/api/v1". The token is sent as a bearer credential.
func NewHTTPFetcher(baseURL, token string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{
		baseURL: baseURL,
		token:   token,
		client:  client,
	}
}

func (f *HTTPFetcher) FetchSince(ctx context.Context, groupID string, afterSeq int64) ([]Message, error) {
	endpoint := fmt.Sprintf("%s/groups/%s/messages/sync?after_seq=%s",
		f.baseURL, url.PathEscape(groupID), strconv.FormatInt(afterSeq, 10))

	var body struct {
		Messages []Message `json:"messages"`
	}
	if err := f.get(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	return body.Messages, nil
}

func (f *HTTPFetcher) FetchTyping(ctx context.Context, groupID string) ([]Typist, error) {
	endpoint := fmt.Sprintf("%s/groups/%s/typing", f.baseURL, url.PathEscape(groupID))

	var body struct {
		Typing []Typist `json:"typing"`
	}
	if err := f.get(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	return body.Typing, nil
}

func (f *HTTPFetcher) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPResolver queries the name-lookup service over HTTP:
// GET <base>?id=<id> returning {"name": "..."}.
type HTTPResolver struct {
	base   string
	client *http.Client
}

func NewHTTPResolver(base string, timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{
		base:   base,
		client: &http.Client{Timeout: timeout},
	}
}

func (r *HTTPResolver) ResolveName(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.base+"?id="+url.QueryEscape(id), nil)
	if err != nil {
		return "", fmt.Errorf("build lookup request failed: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("lookup decode failed: %w", err)
	}
	return body.Name, nil
}

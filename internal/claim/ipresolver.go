package claim

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTPResolver asks an IP-echo service for the caller's public address. One
// call, no automatic retry; the claim surfaces the failure with a manual
// retry control instead.
type HTTPResolver struct {
	URL    string
	Client *http.Client
}

func NewHTTPResolver(url string) *HTTPResolver {
	return &HTTPResolver{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (r *HTTPResolver) Resolve(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ip echo returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("ip echo returned %q", ip)
	}
	return ip, nil
}

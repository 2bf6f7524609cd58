package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OSRMProvider resolves routed road distance from an OSRM server. Failures
// (including timeouts) are returned to the caller as retryable errors; the
// shipping calculator itself never caches or retries.
type OSRMProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewOSRMProvider creates a provider against the given OSRM base URL,
// e.g. "https://router.project-osrm.org".
func NewOSRMProvider(baseURL string) *OSRMProvider {
	return &OSRMProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type osrmRouteResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
	} `json:"routes"`
	Message string `json:"message"`
}

func (p *OSRMProvider) DistanceKM(ctx context.Context, origin, destination Coordinates) (float64, error) {
	// OSRM takes lon,lat pairs.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		p.baseURL,
		origin.Longitude, origin.Latitude,
		destination.Longitude, destination.Latitude,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("osrm request build failed: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("osrm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("osrm response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("osrm returned status %d: %s", resp.StatusCode, string(body))
	}

	var route osrmRouteResponse
	if err := json.Unmarshal(body, &route); err != nil {
		return 0, fmt.Errorf("osrm response parse failed: %w", err)
	}
	if route.Code != "Ok" || len(route.Routes) == 0 {
		return 0, fmt.Errorf("osrm no route: %s", route.Message)
	}

	return route.Routes[0].Distance / 1000.0, nil
}

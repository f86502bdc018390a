// Package wallhaven queries the Wallhaven wallpaper search API.
package wallhaven

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/util/log"
)

// WallhavenAPISearchURL is the Wallhaven search endpoint.
const WallhavenAPISearchURL = "https://wallhaven.cc/api/v1/search"

// ImgSrchResp is the search endpoint payload.
type ImgSrchResp struct {
	Data []ImgSrchRespData `json:"data"`
	Meta struct {
		CurrentPage int    `json:"current_page"`
		LastPage    int    `json:"last_page"`
		Seed        string `json:"seed"`
	} `json:"meta"`
}

// ImgSrchRespData is a single search hit.
type ImgSrchRespData struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Resolution string `json:"resolution"`
	FileType   string `json:"file_type"`
}

// WallhavenProvider implements rotation.ImageSource for Wallhaven. An API key
// is optional; without one only SFW results are returned.
type WallhavenProvider struct {
	cfg        *rotation.Config
	httpClient *http.Client
	testToken  string
}

// SetTokenForTesting sets a token for testing purposes, overriding the config.
func (p *WallhavenProvider) SetTokenForTesting(token string) {
	p.testToken = token
}

func init() {
	rotation.RegisterSource(rotation.ProviderWallhaven, func(cfg *rotation.Config, client *http.Client) rotation.ImageSource {
		return NewWallhavenProvider(cfg, client)
	})
}

// NewWallhavenProvider creates a new WallhavenProvider.
func NewWallhavenProvider(cfg *rotation.Config, client *http.Client) *WallhavenProvider {
	return &WallhavenProvider{cfg: cfg, httpClient: client}
}

// Name returns the provider name.
func (p *WallhavenProvider) Name() rotation.Provider {
	return rotation.ProviderWallhaven
}

// Search returns random wallpapers at least as large as the target.
func (p *WallhavenProvider) Search(ctx context.Context, q rotation.SearchQuery) ([]rotation.Candidate, error) {
	params := url.Values{}
	params.Set("q", q.Tag)
	params.Set("sorting", "random")
	params.Set("purity", "100")
	if q.Width > 0 && q.Height > 0 {
		params.Set("atleast", fmt.Sprintf("%dx%d", q.Width, q.Height))
	}
	apiURL := WallhavenAPISearchURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	apiKey := p.testToken
	if apiKey == "" && p.cfg != nil {
		apiKey = p.cfg.GetAPIKey(rotation.ProviderWallhaven)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	log.Debugf("Fetching Wallhaven images from: %s", apiURL)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &rotation.ProviderError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &rotation.ProviderError{Provider: p.Name(), Status: resp.StatusCode}
	}

	var imgSrchResp ImgSrchResp
	if err := json.NewDecoder(resp.Body).Decode(&imgSrchResp); err != nil {
		return nil, &rotation.ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to decode search response: %w", err)}
	}

	cands := make([]rotation.Candidate, 0, len(imgSrchResp.Data))
	for _, item := range imgSrchResp.Data {
		if item.Path == "" {
			continue
		}
		cands = append(cands, rotation.Candidate{URL: item.Path, Provider: p.Name()})
	}
	return cands, nil
}

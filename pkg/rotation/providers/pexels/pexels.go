// Package pexels queries the Pexels photo search API.
package pexels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/util/log"
)

// PexelsAPISearchURL is the Pexels search endpoint.
const PexelsAPISearchURL = "https://api.pexels.com/v1/search"

// maxPage bounds the random result page so refills see varied photos.
const maxPage = 5

// PexelsPhoto is the subset of a Pexels photo object Wallify reads.
type PexelsPhoto struct {
	ID  int `json:"id"`
	Src struct {
		Original string `json:"original"`
		Portrait string `json:"portrait"`
	} `json:"src"`
}

// PexelsSearchResponse is the search endpoint payload.
type PexelsSearchResponse struct {
	Photos       []PexelsPhoto `json:"photos"`
	TotalResults int           `json:"total_results"`
}

// PexelsProvider implements rotation.ImageSource for Pexels.
type PexelsProvider struct {
	cfg        *rotation.Config
	httpClient *http.Client
	testToken  string
	page       func() int
}

// SetTokenForTesting sets a token for testing purposes, overriding the config.
func (p *PexelsProvider) SetTokenForTesting(token string) {
	p.testToken = token
}

func init() {
	rotation.RegisterSource(rotation.ProviderPexels, func(cfg *rotation.Config, client *http.Client) rotation.ImageSource {
		return NewPexelsProvider(cfg, client)
	})
}

// NewPexelsProvider creates a new PexelsProvider.
func NewPexelsProvider(cfg *rotation.Config, client *http.Client) *PexelsProvider {
	return &PexelsProvider{
		cfg:        cfg,
		httpClient: client,
		page:       func() int { return rand.Intn(maxPage) + 1 },
	}
}

// Name returns the provider name.
func (p *PexelsProvider) Name() rotation.Provider {
	return rotation.ProviderPexels
}

// Search returns one URL per photo, preferring the portrait rendition when
// the target is taller than wide.
func (p *PexelsProvider) Search(ctx context.Context, q rotation.SearchQuery) ([]rotation.Candidate, error) {
	apiKey := p.testToken
	if apiKey == "" && p.cfg != nil {
		apiKey = p.cfg.GetAPIKey(rotation.ProviderPexels)
	}
	if apiKey == "" {
		return nil, &rotation.ProviderError{Provider: p.Name(), Err: rotation.ErrMissingAPIKey}
	}

	page := p.page()
	searchResp, err := p.fetch(ctx, apiKey, q, page)
	if err != nil {
		return nil, err
	}
	// A random page past the end of a small result set comes back empty.
	if len(searchResp.Photos) == 0 && page > 1 && searchResp.TotalResults > 0 {
		log.Debugf("Pexels page %d empty for %q (%d results), retrying page 1", page, q.Tag, searchResp.TotalResults)
		if searchResp, err = p.fetch(ctx, apiKey, q, 1); err != nil {
			return nil, err
		}
	}

	portrait := q.Height > q.Width
	cands := make([]rotation.Candidate, 0, len(searchResp.Photos))
	for _, photo := range searchResp.Photos {
		imageURL := photo.Src.Original
		if portrait && photo.Src.Portrait != "" {
			imageURL = photo.Src.Portrait
		}
		if imageURL == "" {
			continue
		}
		cands = append(cands, rotation.Candidate{URL: imageURL, Provider: p.Name()})
	}
	return cands, nil
}

func (p *PexelsProvider) fetch(ctx context.Context, apiKey string, q rotation.SearchQuery, page int) (*PexelsSearchResponse, error) {
	params := url.Values{}
	params.Set("query", q.Tag)
	params.Set("orientation", orientation(q.Height > q.Width))
	params.Set("per_page", strconv.Itoa(rotation.ProviderPageSize))
	params.Set("page", strconv.Itoa(page))
	apiURL := PexelsAPISearchURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", apiKey)

	log.Debugf("Fetching Pexels images from: %s", apiURL)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &rotation.ProviderError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Debugf("Pexels API error body: %s", string(body))
		return nil, &rotation.ProviderError{Provider: p.Name(), Status: resp.StatusCode}
	}

	var searchResp PexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, &rotation.ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to decode search response: %w", err)}
	}
	return &searchResp, nil
}

func orientation(portrait bool) string {
	if portrait {
		return "portrait"
	}
	return "landscape"
}

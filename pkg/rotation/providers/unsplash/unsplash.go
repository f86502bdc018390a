// Package unsplash queries the Unsplash photo search API.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/util/log"
)

// UnsplashAPISearchURL is the Unsplash search endpoint.
const UnsplashAPISearchURL = "https://api.unsplash.com/search/photos"

const maxPage = 5

// UnsplashPhoto is the subset of an Unsplash photo Wallify reads.
type UnsplashPhoto struct {
	ID   string `json:"id"`
	URLs struct {
		Raw  string `json:"raw"`
		Full string `json:"full"`
	} `json:"urls"`
}

// UnsplashSearchResponse is the search endpoint payload.
type UnsplashSearchResponse struct {
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Results    []UnsplashPhoto `json:"results"`
}

// UnsplashProvider implements rotation.ImageSource for Unsplash.
type UnsplashProvider struct {
	cfg        *rotation.Config
	httpClient *http.Client
	testToken  string
	page       func() int
}

// SetTokenForTesting sets a token for testing purposes, overriding the config.
func (p *UnsplashProvider) SetTokenForTesting(token string) {
	p.testToken = token
}

func init() {
	rotation.RegisterSource(rotation.ProviderUnsplash, func(cfg *rotation.Config, client *http.Client) rotation.ImageSource {
		return NewUnsplashProvider(cfg, client)
	})
}

// NewUnsplashProvider creates a new UnsplashProvider.
func NewUnsplashProvider(cfg *rotation.Config, client *http.Client) *UnsplashProvider {
	return &UnsplashProvider{
		cfg:        cfg,
		httpClient: client,
		page:       func() int { return rand.Intn(maxPage) + 1 },
	}
}

// Name returns the provider name.
func (p *UnsplashProvider) Name() rotation.Provider {
	return rotation.ProviderUnsplash
}

// Search returns one sized rendition URL per result.
func (p *UnsplashProvider) Search(ctx context.Context, q rotation.SearchQuery) ([]rotation.Candidate, error) {
	token := p.testToken
	if token == "" && p.cfg != nil {
		token = p.cfg.GetAPIKey(rotation.ProviderUnsplash)
	}
	if token == "" {
		return nil, &rotation.ProviderError{Provider: p.Name(), Err: rotation.ErrMissingAPIKey}
	}

	page := p.page()
	searchResp, err := p.fetch(ctx, token, q, page)
	if err != nil {
		return nil, err
	}
	if len(searchResp.Results) == 0 && page > 1 && searchResp.Total > 0 {
		log.Debugf("Unsplash page %d empty for %q (%d pages), retrying page 1", page, q.Tag, searchResp.TotalPages)
		if searchResp, err = p.fetch(ctx, token, q, 1); err != nil {
			return nil, err
		}
	}

	cands := make([]rotation.Candidate, 0, len(searchResp.Results))
	for _, photo := range searchResp.Results {
		imageURL, err := sizedURL(photo.URLs.Raw, q.Width, q.Height)
		if err != nil {
			log.Debugf("Skipping Unsplash photo %s: %v", photo.ID, err)
			continue
		}
		cands = append(cands, rotation.Candidate{URL: imageURL, Provider: p.Name()})
	}
	return cands, nil
}

func (p *UnsplashProvider) fetch(ctx context.Context, token string, q rotation.SearchQuery, page int) (*UnsplashSearchResponse, error) {
	params := url.Values{}
	params.Set("query", q.Tag)
	params.Set("per_page", strconv.Itoa(rotation.ProviderPageSize))
	params.Set("page", strconv.Itoa(page))
	if q.Height > q.Width {
		params.Set("orientation", "portrait")
	} else {
		params.Set("orientation", "landscape")
	}
	apiURL := UnsplashAPISearchURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+token)
	req.Header.Set("Accept-Version", "v1")

	log.Debugf("Fetching Unsplash images from: %s", apiURL)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &rotation.ProviderError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &rotation.ProviderError{Provider: p.Name(), Status: resp.StatusCode}
	}

	var searchResp UnsplashSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, &rotation.ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to decode search response: %w", err)}
	}
	return &searchResp, nil
}

// sizedURL asks the Unsplash image CDN for a rendition cropped to the target.
func sizedURL(raw string, width, height int) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty raw url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if width > 0 && height > 0 {
		q.Set("w", strconv.Itoa(width))
		q.Set("h", strconv.Itoa(height))
		q.Set("fit", "crop")
	}
	q.Set("fm", "jpg")
	q.Set("q", "85")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

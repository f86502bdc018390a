package rotation

import (
	"encoding/json"
	"fmt"
)

// Provider names a photo API that produced a candidate.
type Provider string

// Known providers.
const (
	ProviderPexels    Provider = "pexels"
	ProviderUnsplash  Provider = "unsplash"
	ProviderWallhaven Provider = "wallhaven"
)

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderPexels, ProviderUnsplash, ProviderWallhaven:
		return true
	}
	return false
}

// Candidate is a remote image that may become a wallpaper.
type Candidate struct {
	URL      string   `json:"url"`
	Provider Provider `json:"provider"`
}

// Pool is an ordered set of candidates keyed by URL.
type Pool struct {
	items []Candidate
	seen  map[string]struct{}
}

// NewPool builds a pool from cands, dropping repeated URLs.
func NewPool(cands ...Candidate) *Pool {
	p := &Pool{seen: make(map[string]struct{})}
	p.Append(cands...)
	return p
}

// Len returns the number of candidates.
func (p *Pool) Len() int {
	return len(p.items)
}

// Items returns a copy of the candidates in insertion order.
func (p *Pool) Items() []Candidate {
	return append([]Candidate(nil), p.items...)
}

// Contains reports whether url is pooled.
func (p *Pool) Contains(url string) bool {
	_, ok := p.seen[url]
	return ok
}

// Append adds candidates whose URL is new and returns how many were added.
func (p *Pool) Append(cands ...Candidate) int {
	added := 0
	for _, c := range cands {
		if c.URL == "" {
			continue
		}
		if _, dup := p.seen[c.URL]; dup {
			continue
		}
		p.seen[c.URL] = struct{}{}
		p.items = append(p.items, c)
		added++
	}
	return added
}

// Remove deletes url from the pool.
func (p *Pool) Remove(url string) bool {
	if _, ok := p.seen[url]; !ok {
		return false
	}
	delete(p.seen, url)
	for i, c := range p.items {
		if c.URL == url {
			p.items = append(p.items[:i], p.items[i+1:]...)
			break
		}
	}
	return true
}

// MarshalJSON encodes the pool as an array of {url, provider} records.
func (p *Pool) MarshalJSON() ([]byte, error) {
	if p.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.items)
}

// UnmarshalJSON decodes an array of {url, provider} records.
func (p *Pool) UnmarshalJSON(data []byte) error {
	var items []Candidate
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decoding candidate pool: %w", err)
	}
	*p = *NewPool(items...)
	return nil
}

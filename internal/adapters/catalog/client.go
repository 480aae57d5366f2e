// Package catalog implements the event snapshot loader against the event
// catalog service's HTTP API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"campusticketing/internal/domain"
)

type httpLoader struct {
	baseURL string
	client  *http.Client
}

// NewHTTPLoader returns an EventCatalog that calls the catalog service at baseURL.
func NewHTTPLoader(baseURL string, client *http.Client) domain.EventCatalog {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpLoader{baseURL: baseURL, client: client}
}

// eventDTO tolerates partial upstream payloads: optional fields stay nil and
// normalize to their defaults.
type eventDTO struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Venue           string `json:"venue"`
	Capacity        int    `json:"capacity"`
	Price           *int64 `json:"price"`
	RegisteredCount *int   `json:"registeredCount"`
}

func (f *httpLoader) Load(ctx context.Context, eventID string) (*domain.Event, error) {
	u := fmt.Sprintf("%s/api/events/%s", f.baseURL, url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrEventNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: catalog returned status %d", domain.ErrCatalogUnreachable, resp.StatusCode)
	}

	var dto eventDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return normalize(&dto), nil
}

func normalize(dto *eventDTO) *domain.Event {
	ev := &domain.Event{
		ID:       dto.ID,
		Title:    dto.Title,
		Date:     dto.Date,
		Time:     dto.Time,
		Venue:    dto.Venue,
		Capacity: dto.Capacity,
	}
	if dto.Price != nil {
		ev.Price = *dto.Price
	}
	if dto.RegisteredCount != nil {
		ev.RegisteredCount = *dto.RegisteredCount
	}
	return ev
}

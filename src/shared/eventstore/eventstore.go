// Package eventstore keeps reminder event details around long enough for the
// interactive buttons attached to reminder posts to serve them back.
package eventstore

import (
	"context"
	"time"
)

// Event is the detail payload stored per event ID.
type Event struct {
	EventName        string   `json:"event_name"`
	EventID          string   `json:"event_id"`
	EventDescription string   `json:"event_description,omitempty"`
	EventStartTime   string   `json:"event_start_time,omitempty"`
	EventEndTime     string   `json:"event_end_time,omitempty"`
	EventBannerURL   string   `json:"event_banner_url,omitempty"`
	EventType        string   `json:"event_type,omitempty"`
	EventHost        string   `json:"event_host,omitempty"`
	FeaturedFields   []string `json:"event_feature_fields,omitempty"`
}

// DefaultTTL is how long event details stay retrievable after a reminder is
// posted.
const DefaultTTL = 24 * time.Hour

// Store is the event detail store. Entries expire after the store's TTL.
type Store interface {
	Put(ctx context.Context, ev Event) error
	Get(ctx context.Context, eventID string) (Event, bool)
}

// Package gcal mirrors bookings into Google Calendar through the official
// calendar/v3 API.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/propscan/scheduler/core/extsync"
	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/infra/logger"
)

// Config holds the OAuth2 credentials and target calendar.
type Config struct {
	Enabled      bool   `json:"enabled"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
	// TokenFile is a JSON file holding a stored oauth2.Token obtained
	// through the offline consent flow.
	TokenFile  string `json:"token_file"`
	CalendarID string `json:"calendar_id"`
	// Timezone is the IANA name stamped on created events.
	Timezone string `json:"timezone"`
}

// SetDefaults applies the calendar defaults.
func (c *Config) SetDefaults() {
	if c.CalendarID == "" {
		c.CalendarID = "primary"
	}
	if c.Timezone == "" {
		c.Timezone = "Australia/Melbourne"
	}
}

// Provider implements the external calendar surface against Google Calendar.
type Provider struct {
	svc        *calendar.Service
	calendarID string
	timezone   string
	log        logger.Logger
}

// NewProvider builds a Provider from stored OAuth2 credentials.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	cfg.SetDefaults()
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("gcal: client_id and client_secret are required")
	}
	token, err := loadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{calendar.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(oc.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("gcal: create service: %w", err)
	}
	return &Provider{
		svc:        svc,
		calendarID: cfg.CalendarID,
		timezone:   cfg.Timezone,
		log:        logger.New("gcal"),
	}, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, fmt.Errorf("gcal: token_file is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gcal: read token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("gcal: decode token: %w", err)
	}
	return &token, nil
}

// UpsertEvent creates or updates the calendar event for the inspection and
// returns the event id.
func (p *Provider) UpsertEvent(ctx context.Context, insp model.Inspection, externalEventID string) (string, error) {
	ev := p.eventFor(insp)
	if externalEventID != "" {
		updated, err := p.svc.Events.Update(p.calendarID, externalEventID, ev).Context(ctx).Do()
		if err == nil {
			return updated.Id, nil
		}
		if !isNotFound(err) {
			return "", fmt.Errorf("gcal: update event: %w", err)
		}
		p.log.Warnf("event %s vanished, recreating", externalEventID)
	}
	created, err := p.svc.Events.Insert(p.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gcal: insert event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes the event. A missing event is treated as success.
func (p *Provider) DeleteEvent(ctx context.Context, externalEventID string) error {
	if externalEventID == "" {
		return nil
	}
	err := p.svc.Events.Delete(p.calendarID, externalEventID).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("gcal: delete event: %w", err)
	}
	return nil
}

func (p *Provider) eventFor(insp model.Inspection) *calendar.Event {
	return &calendar.Event{
		Summary:     fmt.Sprintf("Inspection %s (%s)", insp.LeadID, insp.Territory),
		Description: insp.Notes,
		Location:    insp.Territory,
		Start: &calendar.EventDateTime{
			DateTime: insp.ScheduledStart.Format(time.RFC3339),
			TimeZone: p.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: insp.End().Format(time.RFC3339),
			TimeZone: p.timezone,
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				"inspection_id": insp.ID,
				"technician_id": insp.TechnicianID,
			},
		},
	}
}

func isNotFound(err error) bool {
	if apiErr, ok := err.(*googleapi.Error); ok {
		return apiErr.Code == 404 || apiErr.Code == 410
	}
	return false
}

var _ extsync.Provider = (*Provider)(nil)

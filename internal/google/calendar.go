// Package google imports upcoming Google Calendar events as activity
// drafts for the scheduling service.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"schedsync/internal/api"
	"schedsync/internal/models"
)

// CalendarClient reads events from the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewClient creates an authenticated Google Calendar client for one
// account. Token files live in the data directory as token-<account>.json;
// run the 'google-auth' command to create one.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, dataDir, accountName string) (*CalendarClient, error) {
	config, err := oauthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := TokenPath(dataDir, accountName)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'google-auth' command first", accountName, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{service: service, logger: logger}, nil
}

// UpcomingDrafts fetches events in the next given number of days and
// converts them to activity drafts ready for submission.
func (c *CalendarClient) UpcomingDrafts(calendarID string, days int) ([]api.ActivityDraft, error) {
	c.logger.Debug("Fetching upcoming events.", "calendarID", calendarID, "days", days)
	now := time.Now().UTC()
	tmin := now.Format(time.RFC3339)
	tmax := now.Add(time.Duration(days) * 24 * time.Hour).Format(time.RFC3339)

	events, err := c.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(tmin).
		TimeMax(tmax).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Info("Fetched events from Google Calendar.", "count", len(events.Items), "calendarID", calendarID)
	return toDrafts(events.Items), nil
}

// toDrafts converts Google Calendar events to activity drafts. Events
// without a concrete start time (all-day entries) are skipped.
func toDrafts(items []*calendar.Event) []api.ActivityDraft {
	var drafts []api.ActivityDraft
	for _, item := range items {
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}
		startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}
		endTime, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			continue
		}

		var targets []models.MeetingTarget
		for _, a := range item.Attendees {
			name := a.DisplayName
			if name == "" {
				name = a.Email
			}
			targets = append(targets, models.MeetingTarget{Name: name, Email: a.Email})
		}

		drafts = append(drafts, api.ActivityDraft{
			Title:          item.Summary,
			StartTime:      startTime.Unix(),
			EndTime:        endTime.Unix(),
			MeetingTargets: targets,
			Description:    item.Description,
		})
	}
	return drafts
}

// AuthConfig returns the OAuth2 config used by the google-auth command's
// web flow.
func AuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	return oauthConfig(clientID, clientSecret)
}

func oauthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}, nil
}

// Exchange trades an authorization code for a token during the auth flow.
func Exchange(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// TokenPath returns the token file path for an account.
func TokenPath(dataDir, accountName string) string {
	return filepath.Join(dataDir, "token-"+accountName+".json")
}

// SaveToken writes a token file for an account.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// TokenAccounts lists the account names with a stored Google token.
func TokenAccounts(dataDir string) ([]string, error) {
	files, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var accounts []string
	for _, file := range files {
		name := file.Name()
		if strings.HasPrefix(name, "token-") && strings.HasSuffix(name, ".json") {
			accounts = append(accounts, strings.TrimSuffix(strings.TrimPrefix(name, "token-"), ".json"))
		}
	}
	return accounts, nil
}

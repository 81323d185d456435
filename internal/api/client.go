// Package api is the HTTP client for the remote scheduling service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"schedsync/internal/models"
)

// Soft failures the server reports inside a 200 response. They are kept
// distinct from transport errors so callers can react to each: an
// ErrUnauthorized means "prompt for login again", a transport error means
// "keep showing the local snapshot".
var (
	ErrNoAccount      = errors.New("no account for this email")
	ErrBadPassword    = errors.New("password does not match")
	ErrDuplicateEmail = errors.New("email is already registered")
	ErrUnauthorized   = errors.New("not authorized for this operation")
)

// TokenSource supplies the bearer credential attached to authenticated
// requests. An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token() (string, error)
}

// bearerTransport injects the bearer credential and a User-Agent into every
// request.
type bearerTransport struct {
	tokens    TokenSource
	transport http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" && t.tokens != nil {
		token, err := t.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("loading credential: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("User-Agent", "schedsync/1.0")
	return t.transport.RoundTrip(req)
}

// Client talks to the scheduling API.
type Client struct {
	baseURL  string
	timezone string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a Client for the service at baseURL. The timezone is
// forwarded on schedule mutations so server-side confirmation emails render
// times in the user's zone.
func NewClient(logger *slog.Logger, baseURL, timezone string, tokens TokenSource) *Client {
	httpClient := &http.Client{
		Transport: &bearerTransport{tokens: tokens, transport: http.DefaultTransport},
		Timeout:   30 * time.Second,
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		timezone: timezone,
		http:     httpClient,
		logger:   logger,
	}
}

// softFlags collects the boolean-like failure markers the server may embed
// in an otherwise successful response.
type softFlags struct {
	NoAccount       int `json:"no_account"`
	PasswordError   int `json:"password_error"`
	DuplicateEmail  int `json:"duplicate_email"`
	NoAuthorization int `json:"no_authorization"`
	UserUpdate      int `json:"user_update"`
	RemoveDone      int `json:"remove_done"`
	MailSent        int `json:"mail_sent"`
}

func (f softFlags) err() error {
	switch {
	case f.NoAccount != 0:
		return ErrNoAccount
	case f.PasswordError != 0:
		return ErrBadPassword
	case f.DuplicateEmail != 0:
		return ErrDuplicateEmail
	case f.NoAuthorization != 0:
		return ErrUnauthorized
	}
	return nil
}

// Session is a signed-in user profile plus its bearer token.
type Session struct {
	User  models.User
	Token string
}

type userResponse struct {
	softFlags
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

func (r userResponse) session() Session {
	return Session{
		User: models.User{
			ID:        r.ID,
			Email:     r.Email,
			Name:      r.Name,
			LoginTime: time.Now().Unix(),
		},
		Token: r.Token,
	}
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var resp userResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, "", &resp); err != nil {
		return Session{}, err
	}
	if err := resp.err(); err != nil {
		return Session{}, err
	}
	return resp.session(), nil
}

// Register creates a new account and signs it in.
func (c *Client) Register(ctx context.Context, name, email, password string) (Session, error) {
	var resp userResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/adduser", body, "", &resp); err != nil {
		return Session{}, err
	}
	if err := resp.err(); err != nil {
		return Session{}, err
	}
	return resp.session(), nil
}

// ResetCheck is the server's answer to a forgot-password request: a figure
// the user must read back from the reset email, and a short-lived token
// authorizing the actual reset.
type ResetCheck struct {
	NumForCheck string `json:"numForCheck"`
	Token       string `json:"token"`
	MailSent    bool   `json:"-"`
}

// ForgotPassword asks the server to email a password-reset check figure.
func (c *Client) ForgotPassword(ctx context.Context, email string) (ResetCheck, error) {
	var resp struct {
		softFlags
		ResetCheck
	}
	if err := c.do(ctx, http.MethodPost, "/api/forgotpasswd", map[string]string{"email": email}, "", &resp); err != nil {
		return ResetCheck{}, err
	}
	if err := resp.err(); err != nil {
		return ResetCheck{}, err
	}
	check := resp.ResetCheck
	check.MailSent = resp.softFlags.MailSent != 0
	return check, nil
}

// ResetPassword sets a new password using the reset token from
// ForgotPassword instead of the stored session credential.
func (c *Client) ResetPassword(ctx context.Context, resetToken, password string) (Session, error) {
	var resp userResponse
	body := map[string]string{"password": password}
	if err := c.do(ctx, http.MethodPost, "/api/resetpasswd", body, resetToken, &resp); err != nil {
		return Session{}, err
	}
	if err := resp.err(); err != nil {
		return Session{}, err
	}
	return resp.session(), nil
}

// UpdateName changes the signed-in user's display name.
func (c *Client) UpdateName(ctx context.Context, name string) error {
	return c.updateUser(ctx, map[string]string{"name": name})
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	return c.updateUser(ctx, map[string]string{"password": password})
}

func (c *Client) updateUser(ctx context.Context, body map[string]string) error {
	var resp struct{ softFlags }
	if err := c.do(ctx, http.MethodPut, "/api/updateuser", body, "", &resp); err != nil {
		return err
	}
	return resp.err()
}

// FetchDelta requests all activity changes with a cursor greater than the
// given watermark, plus any out-of-band deletions. An empty cursor fetches
// everything.
func (c *Client) FetchDelta(ctx context.Context, cursor string) (models.Delta, error) {
	c.logger.Debug("Requesting schedule delta.", "cursor", cursor)
	path := "/api/getactivities?recent=" + url.QueryEscape(cursor)
	var resp struct {
		softFlags
		models.Delta
	}
	if err := c.do(ctx, http.MethodGet, path, nil, "", &resp); err != nil {
		return models.Delta{}, err
	}
	if err := resp.err(); err != nil {
		return models.Delta{}, err
	}
	return resp.Delta, nil
}

// ActivityDraft is a new activity as submitted for creation. The server
// assigns the id and the creation cursor.
type ActivityDraft struct {
	Title          string                 `json:"title"`
	StartTime      int64                  `json:"startTime"`
	EndTime        int64                  `json:"endTime"`
	MeetingTargets []models.MeetingTarget `json:"meetingTargets"`
	SendConfirm    bool                   `json:"sendConfirm"`
	Description    string                 `json:"description"`
	Timezone       string                 `json:"timezone"`
}

type activityResponse struct {
	softFlags
	models.Activity
}

// AddSchedule creates a new activity and returns the server's record of it.
func (c *Client) AddSchedule(ctx context.Context, draft ActivityDraft) (models.Activity, error) {
	draft.Timezone = c.timezone
	var resp activityResponse
	if err := c.do(ctx, http.MethodPost, "/api/addschedule", draft, "", &resp); err != nil {
		return models.Activity{}, err
	}
	if err := resp.err(); err != nil {
		return models.Activity{}, err
	}
	return resp.Activity, nil
}

// UpdateSchedule replaces an existing activity. The previous record travels
// along so the server can diff invitee lists for notification emails.
func (c *Client) UpdateSchedule(ctx context.Context, userName string, updated, previous models.Activity) (models.Activity, error) {
	body := map[string]any{
		"userName":    userName,
		"timezone":    c.timezone,
		"activity":    updated,
		"activityObj": previous,
	}
	var resp activityResponse
	if err := c.do(ctx, http.MethodPut, "/api/updateschedule", body, "", &resp); err != nil {
		return models.Activity{}, err
	}
	if err := resp.err(); err != nil {
		return models.Activity{}, err
	}
	return resp.Activity, nil
}

// RemoveSchedule deletes an activity. The full record travels in the body
// so the server can notify invitees of the cancellation.
func (c *Client) RemoveSchedule(ctx context.Context, userName string, activity models.Activity) error {
	body := struct {
		models.Activity
		UserName string `json:"userName"`
		Timezone string `json:"timezone"`
	}{Activity: activity, UserName: userName, Timezone: c.timezone}

	var resp struct{ softFlags }
	if err := c.do(ctx, http.MethodDelete, "/api/removeschedule/"+url.PathEscape(activity.ID), body, "", &resp); err != nil {
		return err
	}
	return resp.err()
}

// do performs one request/response cycle. bearer overrides the stored
// credential when non-empty (used by the password-reset flow).
func (c *Client) do(ctx context.Context, method, path string, body any, bearer string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request %s %s failed with status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response of %s %s: %w", method, path, err)
	}
	return nil
}

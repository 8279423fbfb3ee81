package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flux/internal/logging"
)

const clientID = "flux-cli"

// DeviceAuth is the server's answer to a device authorization request. The
// user visits VerificationURI and enters UserCode while the CLI polls.
type DeviceAuth struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// User is the authenticated identity returned by the server.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Client talks to the auth server's device-flow endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an auth client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// RequestDeviceCode starts the device authorization flow.
func (c *Client) RequestDeviceCode(ctx context.Context) (*DeviceAuth, error) {
	form := url.Values{"client_id": {clientID}}
	var auth DeviceAuth
	if err := c.postForm(ctx, "/api/auth/device/code", form, &auth); err != nil {
		return nil, fmt.Errorf("failed to request device code: %w", err)
	}
	if auth.Interval <= 0 {
		auth.Interval = 5
	}
	if auth.VerificationURI != "" && !strings.HasPrefix(auth.VerificationURI, "http") {
		auth.VerificationURI = c.baseURL + auth.VerificationURI
	}
	return &auth, nil
}

// PollToken polls until the user approves the device, the code expires, or
// the context is cancelled. The server's slow_down responses stretch the
// polling interval.
func (c *Client) PollToken(ctx context.Context, auth *DeviceAuth) (string, error) {
	interval := time.Duration(auth.Interval) * time.Second
	deadline := time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)
	if auth.ExpiresIn <= 0 {
		deadline = time.Now().Add(15 * time.Minute)
	}

	form := url.Values{
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {auth.DeviceCode},
		"client_id":   {clientID},
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
		if time.Now().After(deadline) {
			return "", errors.New("device code expired before approval")
		}

		var resp struct {
			AccessToken string `json:"access_token"`
			Error       string `json:"error"`
		}
		if err := c.postForm(ctx, "/api/auth/device/token", form, &resp); err != nil {
			return "", fmt.Errorf("token poll failed: %w", err)
		}

		switch resp.Error {
		case "":
			if resp.AccessToken == "" {
				return "", errors.New("server returned an empty access token")
			}
			return resp.AccessToken, nil
		case "authorization_pending":
			continue
		case "slow_down":
			interval += 5 * time.Second
			logging.Debug("auth server asked to slow down", "interval", interval)
		case "expired_token":
			return "", errors.New("device code expired before approval")
		case "access_denied":
			return "", errors.New("authorization was denied")
		default:
			return "", fmt.Errorf("authorization failed: %s", resp.Error)
		}
	}
}

// FetchUser resolves the identity behind an access token.
func (c *Client) FetchUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/get-session", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrNotAuthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session lookup returned status %d", resp.StatusCode)
	}

	var body struct {
		User User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	if body.User.ID == "" {
		return nil, errors.New("session response missing user")
	}
	return &body.User, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Device-flow errors ride in the body with non-200 statuses; decode
	// regardless and let the caller branch on the error field.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// Login runs the full device flow: request a code, hand the prompt to the
// caller for display, poll for approval, resolve the user, persist the
// session.
func (c *Client) Login(ctx context.Context, configDir string, prompt func(auth *DeviceAuth)) (*Session, error) {
	auth, err := c.RequestDeviceCode(ctx)
	if err != nil {
		return nil, err
	}
	if prompt != nil {
		prompt(auth)
	}

	token, err := c.PollToken(ctx, auth)
	if err != nil {
		return nil, err
	}

	user, err := c.FetchUser(ctx, token)
	if err != nil {
		return nil, err
	}

	session := &Session{
		AccessToken: token,
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
	}
	if err := SaveSession(configDir, session); err != nil {
		return nil, err
	}
	logging.Info("login completed", "user", user.ID)
	return session, nil
}

// Package facebook verifies Facebook user access tokens with the Graph API.
package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidToken is returned when Facebook does not vouch for the token.
var ErrInvalidToken = errors.New("facebook: invalid access token")

// Options configures a Verifier.
type Options struct {
	AppID      string
	AppSecret  string
	GraphURL   string
	HTTPClient *http.Client
}

// Verifier checks that an access token was issued to this app and loads the
// user it belongs to.
type Verifier struct {
	appID      string
	appSecret  string
	graphURL   string
	httpClient *http.Client
}

// User is the profile returned by /me.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func NewVerifier(opts Options) *Verifier {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	graph := strings.TrimRight(opts.GraphURL, "/")
	if graph == "" {
		graph = "https://graph.facebook.com"
	}
	return &Verifier{appID: opts.AppID, appSecret: opts.AppSecret, graphURL: graph, httpClient: client}
}

type debugTokenResponse struct {
	Data struct {
		AppID   string `json:"app_id"`
		IsValid bool   `json:"is_valid"`
		UserID  string `json:"user_id"`
	} `json:"data"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Verify inspects the token with debug_token and returns the matching user.
func (v *Verifier) Verify(ctx context.Context, accessToken string) (*User, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, ErrInvalidToken
	}
	if v.appID == "" || v.appSecret == "" {
		return nil, errors.New("facebook: app credentials not configured")
	}

	q := url.Values{}
	q.Set("input_token", accessToken)
	q.Set("access_token", v.appID+"|"+v.appSecret)
	var dbg debugTokenResponse
	if err := v.get(ctx, "/debug_token", q, &dbg); err != nil {
		return nil, err
	}
	if !dbg.Data.IsValid || dbg.Data.AppID != v.appID || dbg.Data.UserID == "" {
		return nil, ErrInvalidToken
	}

	q = url.Values{}
	q.Set("fields", "id,email,name")
	q.Set("access_token", accessToken)
	var user User
	if err := v.get(ctx, "/me", q, &user); err != nil {
		return nil, err
	}
	if user.ID != dbg.Data.UserID {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

func (v *Verifier) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.graphURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("facebook: build request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("facebook: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ge graphError
		_ = json.NewDecoder(resp.Body).Decode(&ge)
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrInvalidToken, ge.Error.Message)
		}
		return fmt.Errorf("facebook: %s: status %d: %s", path, resp.StatusCode, ge.Error.Message)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("facebook: decode %s: %w", path, err)
	}
	return nil
}

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookcourier/internal/utils"
)

// DevProvider signs in against the backend's own /auth endpoints, for
// deployments running without Firebase.
type DevProvider struct {
	BaseURL string
	HTTP    *http.Client
}

// NewDevProvider signs in against the API's own /auth endpoints.
func NewDevProvider(baseURL string, hc *http.Client) *DevProvider {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &DevProvider{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

type devAuthResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"_id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"user"`
	Error string `json:"error"`
}

func (p *DevProvider) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	return p.post(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (p *DevProvider) Register(ctx context.Context, name, email, password, photo string) (*Credentials, error) {
	return p.post(ctx, "/auth/register", map[string]string{
		"name": name, "email": email, "password": password, "image": photo,
	})
}

// Refresh always fails: local tokens are not refreshable.
func (p *DevProvider) Refresh(context.Context, string) (*Credentials, error) {
	return nil, ErrRefreshUnsupported
}

func (p *DevProvider) post(ctx context.Context, path string, body any) (*Credentials, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out devAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %s", path, out.Error)
	}
	return &Credentials{
		User:      User{UID: out.User.ID, Email: out.User.Email, Name: out.User.Name, Photo: out.User.Image},
		IDToken:   out.Token,
		ExpiresAt: time.Now().Add(utils.TokenTTL),
	}, nil
}

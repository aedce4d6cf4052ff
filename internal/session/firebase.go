package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const secureTokenURL = "https://securetoken.googleapis.com/v1"

// FirebaseProvider signs users in with Firebase Authentication. Password
// sign-in, sign-up and profile updates go through the Identity Toolkit
// relying party API; token refresh posts to the Secure Token endpoint.
type FirebaseProvider struct {
	APIKey   string
	HTTP     *http.Client
	TokenURL string // overridable for tests

	accounts *identitytoolkit.RelyingpartyService
}

// NewFirebaseProvider builds a provider keyed with the web API key. opts
// are passed to the Identity Toolkit client, e.g. option.WithEndpoint.
func NewFirebaseProvider(ctx context.Context, apiKey string, hc *http.Client, opts ...option.ClientOption) (*FirebaseProvider, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	keyed := &http.Client{Timeout: hc.Timeout, Transport: &transport.APIKey{Key: apiKey, Transport: hc.Transport}}
	opts = append([]option.ClientOption{option.WithHTTPClient(keyed)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit: %w", err)
	}
	return &FirebaseProvider{APIKey: apiKey, HTTP: hc, TokenURL: secureTokenURL, accounts: svc.Relyingparty}, nil
}

func expiry(now time.Time, secs int64) time.Time {
	if secs <= 0 {
		return now.Add(time.Hour)
	}
	return now.Add(time.Duration(secs) * time.Second)
}

func seconds(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// FirebaseError is an error answer from the Identity Toolkit, e.g. EMAIL_EXISTS.
type FirebaseError struct {
	Status int
	Code   string
}

func (e *FirebaseError) Error() string {
	return "firebase auth: " + e.Code
}

func firebaseError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &FirebaseError{Status: gerr.Code, Code: gerr.Message}
	}
	return err
}

// SignIn verifies an email and password.
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	resp, err := p.accounts.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, firebaseError(err)
	}
	return &Credentials{
		User:         User{UID: resp.LocalId, Email: resp.Email, Name: resp.DisplayName, Photo: resp.PhotoUrl},
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiry(time.Now(), resp.ExpiresIn),
	}, nil
}

// Register creates the account and then sets its display name and photo.
func (p *FirebaseProvider) Register(ctx context.Context, name, email, password, photo string) (*Credentials, error) {
	acct, err := p.accounts.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, firebaseError(err)
	}
	creds := &Credentials{
		User:         User{UID: acct.LocalId, Email: acct.Email, Name: name, Photo: photo},
		IDToken:      acct.IdToken,
		RefreshToken: acct.RefreshToken,
		ExpiresAt:    expiry(time.Now(), acct.ExpiresIn),
	}

	profile, err := p.accounts.SetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:           acct.IdToken,
		DisplayName:       name,
		PhotoUrl:          photo,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", firebaseError(err))
	}
	if profile.IdToken != "" {
		creds.IDToken = profile.IdToken
		creds.RefreshToken = profile.RefreshToken
		creds.ExpiresAt = expiry(time.Now(), profile.ExpiresIn)
	}
	return creds, nil
}

// Refresh exchanges a refresh token. The answer carries no profile, so
// the returned User only has its UID set.
func (p *FirebaseProvider) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	form := url.Values{"grant_type": {"refresh_token"}, "refresh_token": {refreshToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.TokenURL+"/token?key="+url.QueryEscape(p.APIKey), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var out struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	if err := p.do(req, &out); err != nil {
		return nil, err
	}
	return &Credentials{
		User:         User{UID: out.UserID},
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    expiry(time.Now(), seconds(out.ExpiresIn)),
	}, nil
}

func (p *FirebaseProvider) do(req *http.Request, out any) error {
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := googleapi.CheckResponse(resp); err != nil {
		return firebaseError(err)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

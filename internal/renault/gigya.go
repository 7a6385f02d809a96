package renault

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// jwtLifetime is the expiration requested from accounts.getJWT.
const jwtLifetime = 900 * time.Second

// GigyaError is a Gigya response with a non-zero errorCode.
type GigyaError struct {
	Code    int
	Message string
}

func (e *GigyaError) Error() string {
	return fmt.Sprintf("gigya: error %d: %s", e.Code, e.Message)
}

type gigyaStatus struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	ErrorDetails string `json:"errorDetails"`
}

func (s gigyaStatus) err() error {
	if s.ErrorCode == 0 {
		return nil
	}
	msg := s.ErrorMessage
	if s.ErrorDetails != "" {
		msg += ": " + s.ErrorDetails
	}
	return &GigyaError{Code: s.ErrorCode, Message: msg}
}

type jwtResponse struct {
	gigyaStatus
	IDToken string `json:"id_token"`
}

type accountInfoResponse struct {
	gigyaStatus
	Data struct {
		PersonID        string `json:"personId"`
		GigyaDataCenter string `json:"gigyaDataCenter"`
	} `json:"data"`
}

func (c *Client) gigya(ctx context.Context, method string, form url.Values, out interface{ err() error }) error {
	form.Set("ApiKey", c.cfg.GigyaAPIKey)
	err := c.do(ctx, request{
		method:  http.MethodPost,
		url:     strings.TrimRight(c.cfg.GigyaURL, "/") + "/" + method,
		body:    strings.NewReader(form.Encode()),
		ctype:   "application/x-www-form-urlencoded",
		decoded: out,
	})
	if err != nil {
		return err
	}
	return out.err()
}

// fetchJWT calls accounts.getJWT for a login token.
func (c *Client) fetchJWT(ctx context.Context, loginToken string) (*oauth2.Token, error) {
	var resp jwtResponse
	form := url.Values{
		"login_token": {loginToken},
		"fields":      {"data.personId,data.gigyaDataCenter"},
		"expiration":  {fmt.Sprint(int(jwtLifetime.Seconds()))},
	}
	if err := c.gigya(ctx, "accounts.getJWT", form, &resp); err != nil {
		return nil, fmt.Errorf("fetching gigya jwt: %w", err)
	}
	if resp.IDToken == "" {
		return nil, fmt.Errorf("fetching gigya jwt: empty id_token")
	}
	return &oauth2.Token{
		AccessToken: resp.IDToken,
		TokenType:   "JWT",
		Expiry:      time.Now().Add(jwtLifetime),
	}, nil
}

// fetchPersonID calls accounts.getAccountInfo for a login token.
func (c *Client) fetchPersonID(ctx context.Context, loginToken string) (string, error) {
	var resp accountInfoResponse
	if err := c.gigya(ctx, "accounts.getAccountInfo", url.Values{"login_token": {loginToken}}, &resp); err != nil {
		return "", fmt.Errorf("fetching gigya account info: %w", err)
	}
	if resp.Data.PersonID == "" {
		return "", fmt.Errorf("fetching gigya account info: no personId")
	}
	return resp.Data.PersonID, nil
}

// jwtFetcher adapts fetchJWT to oauth2.TokenSource. Like oauth2.Config it
// holds the context it was created with.
type jwtFetcher struct {
	ctx        context.Context
	client     *Client
	loginToken string
}

func (f *jwtFetcher) Token() (*oauth2.Token, error) {
	return f.client.fetchJWT(f.ctx, f.loginToken)
}

// newJWTSource returns a TokenSource that fetches a JWT once and again
// only when it is about to expire.
func newJWTSource(ctx context.Context, c *Client, loginToken string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &jwtFetcher{ctx: ctx, client: c, loginToken: loginToken})
}

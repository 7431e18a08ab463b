package finapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	const path = "/auth/token"
	body, err := c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	var resp tokenResponse
	c.decode(path, body, &resp)
	if resp.AccessToken == "" {
		return "", errors.New("finapi: login response carried no access token")
	}
	return resp.AccessToken, nil
}

package musifysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// url builds a complete URL by appending the path to the base URL.
func (c *SDKClient) url(path string) string {
	return c.BaseURL + "/" + strings.TrimPrefix(path, "/")
}

// newRequest builds a request with an optional JSON body. The body is a
// bytes.Reader so GetBody is populated and the request can be replayed.
func (c *SDKClient) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// call sends one request through client and decodes the answer into out
// (which may be nil). Non-2xx statuses go through mapper.
func (c *SDKClient) call(
	ctx context.Context,
	client *http.Client,
	method, path string,
	in, out any,
	mapper statusMapper,
) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return mapTransportError(err)
	}

	return decodeJSON(resp, out, mapper)
}

// decodeJSON decodes a JSON response into target, or maps a non-2xx status
// into an *Error.
func decodeJSON(resp *http.Response, target any, mapper statusMapper) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return mapTransportError(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp.StatusCode, bodyBytes, mapper)
	}

	if target == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return &Error{
			Kind:       KindServer,
			Message:    "unexpected response from server",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

// exchangeRefreshToken is the RefreshFunc behind the client's Refresher.
// It goes through RefreshClient, never HTTPClient.
func (c *SDKClient) exchangeRefreshToken(ctx context.Context, refreshToken string) (Session, error) {
	var ar AuthResponse
	err := c.call(ctx, c.RefreshClient, http.MethodPost, "api/auth/refresh",
		RefreshTokenRequest{RefreshToken: refreshToken}, &ar, mapSessionStatus)
	if err != nil {
		return Session{}, err
	}

	if ar.Token == "" {
		return Session{}, newError(KindServer, http.StatusOK, "refresh response carried no token")
	}

	return Session{
		AccessToken:  ar.Token,
		RefreshToken: ar.RefreshToken,
		IssuedAt:     time.Now().UTC(),
	}, nil
}

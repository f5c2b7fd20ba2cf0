package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
	apperrors "github.com/target/profile-portal/internal/errors"
	"github.com/target/profile-portal/internal/observability/requestid"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// malformed reports a 2xx response that does not have the expected shape.
// The message is left empty so callers show their generic fallback.
func malformed(reason string) error {
	return &apperrors.AppError{
		Code:  apperrors.ErrCodeInternal,
		Cause: errors.New(reason),
	}
}

func validateAuthResult(res domainauth.AuthResult) error {
	if res.Token == "" {
		return malformed("backend response has no token")
	}
	return nil
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.baseURL + path
}

// doJSON sends in (when non-nil) as a JSON body and decodes a 2xx JSON response into out.
// Non-2xx responses become *errors.AppError carrying the server's message, if any.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h := c.AuthHeader(); h != "" {
		req.Header.Set("Authorization", h)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed",
			"method", method, "path", path, "error", err)
		return apperrors.MapTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.MapTransportError(fmt.Errorf("read response body: %w", err))
	}

	c.logger.DebugContext(ctx, "backend request",
		"method", method, "path", path, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.FromStatus(resp.StatusCode, extractMessage(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return malformed(fmt.Sprintf("decode %s response: %v", path, err))
	}
	return nil
}

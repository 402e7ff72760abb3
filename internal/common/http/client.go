// internal/common/http/client.go

// Package http is a typed client for a running validation API.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "field-validation/internal/common/errors"
	"field-validation/internal/engine/catalog"
	"field-validation/internal/engine/health"
	"field-validation/internal/models"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ValidateField calls POST /validate-field.
func (c *Client) ValidateField(ctx context.Context, req models.ValidateFieldRequest) (*models.ValidateFieldResponse, error) {
	var out models.ValidateFieldResponse
	if err := c.do(ctx, http.MethodPost, "/validate-field", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfigHealth calls GET /forms/{formID}/config-health.
func (c *Client) ConfigHealth(ctx context.Context, formID string) ([]health.Issue, error) {
	var out []health.Issue
	if err := c.do(ctx, http.MethodGet, "/forms/"+url.PathEscape(formID)+"/config-health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidationTypes calls GET /validation-types.
func (c *Client) ValidationTypes(ctx context.Context) ([]catalog.Definition, error) {
	var out struct {
		Types []catalog.Definition `json:"types"`
	}
	if err := c.do(ctx, http.MethodGet, "/validation-types", nil, &out); err != nil {
		return nil, err
	}
	return out.Types, nil
}

// do sends body as JSON and decodes a 2xx response into out. Error
// responses are returned as the server's *errors.StandardError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewRuleSourceUnavailableError("validation-api", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error *apperrors.StandardError `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == nil {
			return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
		}
		return envelope.Error
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

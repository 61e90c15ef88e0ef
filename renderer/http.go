package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HTTPConfig configures the remote rendering service client.
type HTTPConfig struct {
	// BaseURL is the service root, e.g. "https://render.internal:8443".
	BaseURL string

	// SigningKey signs the per-request bearer token (HS256). Empty
	// disables authentication.
	SigningKey []byte

	// Issuer names this client in the token. Default: diagramflow
	Issuer string

	// TokenTTL bounds token validity. Default: 1 minute
	TokenTTL time.Duration

	// HTTPClient is used for all requests. If nil, a client with a 60s
	// timeout is used.
	HTTPClient *http.Client
}

// HTTPRenderer converts diagrams through a remote rendering service.
type HTTPRenderer struct {
	config HTTPConfig
}

// NewHTTPRenderer creates a remote renderer client.
func NewHTTPRenderer(config HTTPConfig) *HTTPRenderer {
	if config.Issuer == "" {
		config.Issuer = "diagramflow"
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = time.Minute
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPRenderer{config: config}
}

// renderRequest is the service's conversion payload.
type renderRequest struct {
	Source          string `json:"source"`
	Theme           string `json:"theme"`
	BackgroundColor string `json:"backgroundColor"`
}

// IsAvailable probes the service health endpoint.
func (r *HTTPRenderer) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint("/healthz"), nil)
	if err != nil {
		return false
	}
	resp, err := r.config.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Render posts the conversion request. 503 maps to ErrUnavailable; other
// non-2xx statuses are conversion failures carrying the response body.
func (r *HTTPRenderer) Render(ctx context.Context, source string, params Params) ([]byte, error) {
	params = params.withDefaults()

	body, err := json.Marshal(renderRequest{
		Source:          source,
		Theme:           params.Theme,
		BackgroundColor: params.BackgroundColor,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint("/render"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("renderer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	if len(r.config.SigningKey) > 0 {
		token, err := r.mintToken()
		if err != nil {
			return nil, fmt.Errorf("renderer: mint token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: service returned 503", ErrUnavailable)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("renderer: conversion failed (%d): %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("renderer: read response: %w", err)
	}
	return data, nil
}

// mintToken signs a short-lived HS256 bearer for one request.
func (r *HTTPRenderer) mintToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    r.config.Issuer,
		Subject:   "render",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(r.config.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(r.config.SigningKey)
}

func (r *HTTPRenderer) endpoint(path string) string {
	return strings.TrimRight(r.config.BaseURL, "/") + path
}

var _ Renderer = (*HTTPRenderer)(nil)

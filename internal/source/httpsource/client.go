// Package httpsource is the live implementation of source.Source: a thin
// HTTP client for the remote optimizer service. It performs no retries;
// retry policy, if any, belongs to the caller.
package httpsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/estuarine/gateopt/internal/source"
)

const defaultTimeout = 60 * time.Second

// Client talks to an optimizer service over HTTP.
type Client struct {
	base   string
	client *http.Client
	logger *slog.Logger
}

// New creates a client for the service at baseURL, with requests routed
// under the optional path prefix.
func New(baseURL, prefix string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	base := strings.TrimRight(baseURL, "/")
	if prefix != "" {
		base += "/" + strings.Trim(prefix, "/")
	}
	return &Client{
		base:   base,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchProjects lists the project ids the server hosts.
func (c *Client) FetchProjects(ctx context.Context) ([]string, error) {
	var projects []string
	if err := c.getJSON(ctx, "projects", c.endpoint("projects"), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// FetchRegions returns the region table payload for a project.
func (c *Client) FetchRegions(ctx context.Context, project string) (string, error) {
	var envelope struct {
		Project string `json:"project"`
		Regions string `json:"regions"`
	}
	if err := c.getJSON(ctx, "regions", c.endpoint("regions", project), &envelope); err != nil {
		return "", err
	}
	return envelope.Regions, nil
}

// FetchBarriers returns the barrier table payload for a project.
func (c *Client) FetchBarriers(ctx context.Context, project string) (string, error) {
	var envelope struct {
		Project  string `json:"project"`
		Barriers string `json:"barriers"`
	}
	if err := c.getJSON(ctx, "barriers", c.endpoint("barriers", project), &envelope); err != nil {
		return "", err
	}
	return envelope.Barriers, nil
}

// FetchTargets returns the target table payload and display layout.
func (c *Client) FetchTargets(ctx context.Context, project string) (source.TargetData, error) {
	var envelope struct {
		Project string `json:"project"`
		Targets string `json:"targets"`
		Layout  string `json:"layout"`
	}
	if err := c.getJSON(ctx, "targets", c.endpoint("targets", project), &envelope); err != nil {
		return source.TargetData{}, err
	}
	data := source.TargetData{CSV: envelope.Targets}
	if envelope.Layout != "" {
		data.Layout = strings.Split(strings.TrimRight(envelope.Layout, "\n"), "\n")
	}
	return data, nil
}

// FetchColumnMapping returns the target column mapping metadata.
func (c *Client) FetchColumnMapping(ctx context.Context, project string) (source.ColumnMapping, error) {
	var mapping source.ColumnMapping
	if err := c.getJSON(ctx, "colnames", c.endpoint("colnames", project), &mapping); err != nil {
		return source.ColumnMapping{}, err
	}
	return mapping, nil
}

// FetchMapInfo returns the project's map metadata. The server nests the
// payload as a JSON string inside the envelope.
func (c *Client) FetchMapInfo(ctx context.Context, project string) (source.MapInfo, error) {
	var envelope struct {
		Project string `json:"project"`
		MapInfo string `json:"mapinfo"`
	}
	if err := c.getJSON(ctx, "mapinfo", c.endpoint("mapinfo", project), &envelope); err != nil {
		return source.MapInfo{}, err
	}
	var info source.MapInfo
	if err := json.Unmarshal([]byte(envelope.MapInfo), &info); err != nil {
		return source.MapInfo{}, fmt.Errorf("mapinfo: decoding payload: %w", err)
	}
	return info, nil
}

// SubmitOptimization runs the optimizer once at a single budget level and
// returns the result table payload.
func (c *Client) SubmitOptimization(ctx context.Context, project string, job source.Job) (string, error) {
	const step = "run"
	endpoint := c.endpoint("run", project)

	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("%s: encoding request: %w", step, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: building request: %w", step, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("submitting optimization", "project", project, "budget", job.Budget, "regions", len(job.Regions))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &source.TransportError{Step: step, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &source.TransportError{Step: step, URL: endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &source.ServerError{Step: step, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var envelope struct {
		Project string `json:"project"`
		Results string `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("%s: decoding response: %w", step, err)
	}
	return envelope.Results, nil
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = url.PathEscape(part)
	}
	return c.base + "/" + strings.Join(escaped, "/")
}

func (c *Client) getJSON(ctx context.Context, step, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", step, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &source.TransportError{Step: step, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &source.TransportError{Step: step, URL: endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &source.ServerError{Step: step, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", step, err)
	}
	return nil
}

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrNotModified is returned when none of the remote documents changed.
var ErrNotModified = errors.New("dataset not modified")

// Validators are the HTTP cache validators remembered per document.
type Validators struct {
	LastModified string
	ETag         string
}

// Downloader fetches the three documents from a base URL with conditional requests.
type Downloader struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewDownloader creates a Downloader for documents served under baseURL.
func NewDownloader(baseURL string, logger *slog.Logger) *Downloader {
	return &Downloader{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// CheckResult holds the result of a conditional check.
type CheckResult struct {
	NeedsUpdate bool
	Changed     []string // document names that changed
}

// Check sends a HEAD request per document with If-Modified-Since / If-None-Match
// to see whether anything changed since prev.
func (d *Downloader) Check(ctx context.Context, prev map[string]Validators) (*CheckResult, error) {
	result := &CheckResult{}
	for _, name := range []string{DistancesFile, MetaFile, FaresFile} {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.url(name), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		setConditional(req, prev[name])

		resp, err := d.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HEAD %s: %w", name, err)
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotModified {
			continue
		}
		result.Changed = append(result.Changed, name)
	}
	result.NeedsUpdate = len(result.Changed) > 0
	if !result.NeedsUpdate {
		d.logger.Info("dataset not modified")
	}
	return result, nil
}

// Download fetches all three documents, parses and validates them.
// Returns the dataset and the validators to remember for the next check.
func (d *Downloader) Download(ctx context.Context) (*Dataset, map[string]Validators, error) {
	names := []string{DistancesFile, MetaFile, FaresFile}
	var raw [3][]byte
	validators := make(map[string]Validators, len(names))

	for i, name := range names {
		body, v, err := d.fetch(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		raw[i] = body
		validators[name] = v
	}

	ds, err := Parse(raw[0], raw[1], raw[2])
	if err != nil {
		return nil, nil, err
	}
	ds.Source = "url"

	d.logger.Info("dataset downloaded",
		"url", d.baseURL,
		"version", ds.Version,
		"stations", len(ds.Distances.Stations),
		"edges", len(ds.Distances.Edges),
	)
	return ds, validators, nil
}

func (d *Downloader) fetch(ctx context.Context, name string) ([]byte, Validators, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url(name), nil)
	if err != nil {
		return nil, Validators{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, Validators{}, fmt.Errorf("GET %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, Validators{}, fmt.Errorf("GET %s: unexpected status: %d", name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Validators{}, fmt.Errorf("read %s: %w", name, err)
	}
	return body, Validators{
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}, nil
}

func (d *Downloader) url(name string) string {
	return d.baseURL + "/" + name
}

func setConditional(req *http.Request, v Validators) {
	if v.LastModified != "" {
		req.Header.Set("If-Modified-Since", v.LastModified)
	}
	if v.ETag != "" {
		req.Header.Set("If-None-Match", v.ETag)
	}
}

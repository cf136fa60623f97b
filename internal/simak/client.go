package simak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siakad-dosen-api/pkg/config"
)

// LecturerRecord is the canonical lecturer profile held by SIMAK.
type LecturerRecord struct {
	NIP            string `json:"nip"`
	Name           string `json:"nama"`
	Department     string `json:"prodi"`
	Position       string `json:"jabatan"`
	Specialization string `json:"bidang_keahlian"`
}

// StudentRecord is one advisee row from the SIMAK roster.
type StudentRecord struct {
	NIM      string `json:"nim"`
	Name     string `json:"nama"`
	Major    string `json:"prodi"`
	Semester int    `json:"semester"`
}

// Client talks to the external academic-records service. Every call is
// bounded by the configured timeout; slow SIMAK responses must never stall
// a dashboard request indefinitely.
type Client struct {
	baseURL     string
	callTimeout time.Duration
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient constructs a SIMAK client from configuration.
func NewClient(cfg config.SimakConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		callTimeout: timeout,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// FetchLecturerProfile returns the canonical profile for the given NIP.
// A 404 from SIMAK means the lecturer is unknown there; that is not an error
// and yields a nil record.
func (c *Client) FetchLecturerProfile(ctx context.Context, nip, token string) (*LecturerRecord, error) {
	endpoint := fmt.Sprintf("%s/dosen/%s", c.baseURL, url.PathEscape(nip))

	var record LecturerRecord
	found, err := c.getJSON(ctx, endpoint, token, &record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

// FetchAdviseeRoster returns the advisee list SIMAK holds for the lecturer.
// An empty or missing roster is not an error.
func (c *Client) FetchAdviseeRoster(ctx context.Context, nip, token string) ([]StudentRecord, error) {
	endpoint := fmt.Sprintf("%s/dosen/%s/mahasiswa-bimbingan", c.baseURL, url.PathEscape(nip))

	var roster []StudentRecord
	found, err := c.getJSON(ctx, endpoint, token, &roster)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return roster, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string, dest interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build simak request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("call simak: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("simak call",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return false, fmt.Errorf("simak returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return false, fmt.Errorf("decode simak response: %w", err)
	}
	return true, nil
}

// Package push publishes test-case results to an external results store.
// The orchestrator decides whether and when results are pushed; this
// package only owns the wire format and transport.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-campaign/env"
)

const requestTimeout = 10 * time.Second

// Result is the document published for one executed test case.
type Result struct {
	ID          string    `json:"id"`
	ProjectName string    `json:"project_name"`
	CaseName    string    `json:"case_name"`
	Installer   string    `json:"installer"`
	Scenario    string    `json:"scenario"`
	PodName     string    `json:"pod_name"`
	BuildTag    string    `json:"build_tag"`
	Criteria    string    `json:"criteria"` // PASS or FAIL
	StartDate   time.Time `json:"start_date"`
	StopDate    time.Time `json:"stop_date"`
	Details     any       `json:"details,omitempty"`
}

// Client posts result documents to the configured results store.
type Client struct {
	url  string
	http *http.Client
	log  log.Logger
}

// NewClient creates a client for the store at TEST_DB_URL. An empty URL
// yields a disabled client whose Push is a logged no-op.
func NewClient(logger log.Logger) *Client {
	if logger == nil {
		logger = log.New()
	}
	return &Client{
		url:  env.Get("TEST_DB_URL"),
		http: &http.Client{Timeout: requestTimeout},
		log:  logger,
	}
}

// Enabled reports whether a results store is configured.
func (c *Client) Enabled() bool {
	return c.url != ""
}

// Push publishes one result document. Ambient deployment variables fill the
// installer/scenario/pod/build fields when the caller left them empty.
func (c *Client) Push(ctx context.Context, r Result) error {
	if !c.Enabled() {
		c.log.Debug("Results store not configured, skipping push", "case", r.CaseName)
		return nil
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Installer == "" {
		r.Installer = env.Get("INSTALLER_TYPE")
	}
	if r.Scenario == "" {
		r.Scenario = env.Get("DEPLOY_SCENARIO")
	}
	if r.PodName == "" {
		r.PodName = env.Get("NODE_NAME")
	}
	if r.BuildTag == "" {
		r.BuildTag = env.Get("BUILD_TAG")
	}

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling result for %s: %w", r.CaseName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building push request for %s: %w", r.CaseName, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pushing result for %s: %w", r.CaseName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("results store returned %s for %s", resp.Status, r.CaseName)
	}
	c.log.Debug("Pushed result", "case", r.CaseName, "status", resp.Status)
	return nil
}

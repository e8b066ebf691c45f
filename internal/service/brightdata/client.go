// Package brightdata drives the Bright Data dataset API through one
// trigger -> progress -> snapshot cycle per profile lookup.
package brightdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/constants"
	"github.com/kapu/wykra-go/internal/domain"
	"github.com/kapu/wykra-go/internal/util"
	"github.com/kapu/wykra-go/pkg/errors"
)

type Options struct {
	APIToken       string
	DatasetID      string
	BaseURL        string
	PollInterval   time.Duration
	MaxWait        time.Duration
	FetchAttempts  int
	SnapshotFormat domain.SnapshotFormat
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = constants.BrightDataConfig.BaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.PollInterval <= 0 {
		o.PollInterval = constants.BrightDataConfig.PollInterval
	}
	if o.MaxWait <= 0 {
		o.MaxWait = constants.BrightDataConfig.MaxWait
	}
	if o.FetchAttempts <= 0 {
		o.FetchAttempts = constants.BrightDataConfig.FetchAttempts
	}
	if !o.SnapshotFormat.IsValid() {
		o.SnapshotFormat = domain.SnapshotFormatJSON
	}
	return o
}

// Client talks to the dataset API over a caller-owned HTTP session. It holds
// no per-job state, so one lookup's job never leaks into another.
type Client struct {
	httpClient *http.Client
	opts       Options
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, opts Options, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.BrightDataConfig.RequestTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: httpClient,
		opts:       opts.withDefaults(),
		logger:     logger,
	}
}

type triggerInput struct {
	UserName string `json:"user_name"`
}

// Trigger starts a discover-by-username snapshot and returns its id.
func (c *Client) Trigger(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", errors.NewValidationError("username is required", "username", username)
	}

	payload, err := json.Marshal([]triggerInput{{UserName: username}})
	if err != nil {
		return "", errors.NewTriggerError("failed to encode trigger payload", 0, err)
	}

	params := url.Values{}
	params.Set("dataset_id", c.opts.DatasetID)
	params.Set("discover_by", constants.BrightDataConfig.DiscoverBy)
	params.Set("type", constants.BrightDataConfig.DiscoverType)
	params.Set("include_errors", "true")

	status, body, err := c.doRequest(ctx, http.MethodPost, "/trigger", params, payload)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.NewTimeoutError("", "", err)
		}
		return "", errors.NewTriggerError("Bright Data trigger request failed", 0, err)
	}
	if status >= 400 {
		return "", errors.NewTriggerError(
			fmt.Sprintf("Bright Data API error: %d %s", status, preview(body)), status, nil)
	}

	jobID, ok := ExtractJobID(body)
	if !ok {
		c.logger.Warn("Trigger response has no snapshot id", zap.String("body", preview(body)))
		return "", errors.NewMissingJobIDError(preview(body))
	}

	c.logger.Info("Snapshot triggered",
		zap.String("username", username),
		zap.String("snapshot_id", jobID),
	)
	return jobID, nil
}

// WaitUntilReady polls the progress endpoint until the job reaches a terminal
// status or the max-wait budget (max_wait / interval polls) runs out.
func (c *Client) WaitUntilReady(ctx context.Context, jobID string) error {
	attempts := pollAttempts(c.opts.MaxWait, c.opts.PollInterval)
	path := "/progress/" + url.PathEscape(jobID)

	var lastStatus string
	var lastBody []byte

	status, err := poll(ctx, attempts, c.opts.PollInterval, func(ctx context.Context, attempt int) (domain.JobStatus, error) {
		code, body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
		if err != nil {
			return domain.JobStatusPending, c.transportError(ctx, jobID, lastStatus, "progress request failed", err)
		}
		if code >= 400 {
			return domain.JobStatusPending, errors.NewFetchError(jobID,
				fmt.Sprintf("progress request returned %d: %s", code, preview(body)), code, nil)
		}

		lastBody = body
		lastStatus = readStatus(body)
		jobStatus := domain.ParseJobStatus(lastStatus)

		c.logger.Debug("Snapshot progress",
			zap.String("snapshot_id", jobID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.String("status", lastStatus),
		)
		return jobStatus, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return errors.NewTimeoutError(jobID, lastStatus, err)
		}
		return err
	}

	switch status {
	case domain.JobStatusReady:
		c.logger.Info("Snapshot ready", zap.String("snapshot_id", jobID), zap.String("status", lastStatus))
		return nil
	case domain.JobStatusFailed:
		c.logger.Warn("Snapshot failed", zap.String("snapshot_id", jobID), zap.String("status", lastStatus))
		return errors.NewJobFailedError(jobID, responseMap(lastBody))
	default:
		return errors.NewTimeoutError(jobID, lastStatus, nil)
	}
}

// FetchResult downloads the snapshot records. A ready job may still answer
// 202 or a building marker while the result file materializes, so this runs
// its own short retry loop.
func (c *Client) FetchResult(ctx context.Context, jobID string) ([]domain.Record, error) {
	attempts := c.opts.FetchAttempts
	path := "/snapshot/" + url.PathEscape(jobID)
	params := url.Values{}
	params.Set("format", string(c.opts.SnapshotFormat))

	var records []domain.Record

	status, err := poll(ctx, attempts, c.opts.PollInterval, func(ctx context.Context, attempt int) (domain.JobStatus, error) {
		code, body, err := c.doRequest(ctx, http.MethodGet, path, params, nil)
		if err != nil {
			return domain.JobStatusPending, c.transportError(ctx, jobID, "", "snapshot request failed", err)
		}
		if code == http.StatusAccepted {
			c.logger.Debug("Snapshot not materialized yet",
				zap.String("snapshot_id", jobID),
				zap.Int("attempt", attempt),
			)
			return domain.JobStatusPending, nil
		}
		if code >= 400 {
			return domain.JobStatusPending, errors.NewFetchError(jobID,
				fmt.Sprintf("snapshot request returned %d: %s", code, preview(body)), code, nil)
		}

		payload, err := decodeSnapshot(body, c.opts.SnapshotFormat)
		if err != nil {
			return domain.JobStatusPending, errors.NewUnexpectedPayloadError(jobID, err.Error())
		}
		if payload.building {
			c.logger.Debug("Snapshot still building",
				zap.String("snapshot_id", jobID),
				zap.Int("attempt", attempt),
			)
			return domain.JobStatusPending, nil
		}

		records = payload.records
		return domain.JobStatusReady, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewTimeoutError(jobID, "", err)
		}
		return nil, err
	}
	if status != domain.JobStatusReady {
		return nil, errors.NewSnapshotNotReadyError(jobID, attempts)
	}

	c.logger.Info("Snapshot fetched",
		zap.String("snapshot_id", jobID),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, payload []byte) (int, []byte, error) {
	reqURL := c.opts.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.opts.APIToken)
	req.Header.Set("Accept", "application/json, text/csv")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// transportError maps a failed round trip: a done context becomes Timeout,
// anything else FetchError.
func (c *Client) transportError(ctx context.Context, jobID, lastStatus, message string, err error) error {
	if ctx.Err() != nil {
		return errors.NewTimeoutError(jobID, lastStatus, err)
	}
	c.logger.Warn("Bright Data request failed", zap.String("snapshot_id", jobID), zap.Error(err))
	return errors.NewFetchError(jobID, message, 0, err)
}

func readStatus(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, key := range []string{"status", "state"} {
		if value := gjson.GetBytes(body, key); value.Type == gjson.String {
			return strings.TrimSpace(value.Str)
		}
	}
	return ""
}

func responseMap(body []byte) map[string]any {
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil || out == nil {
		return map[string]any{"body": preview(body)}
	}
	return out
}

func preview(body []byte) string {
	return util.TruncateString(strings.TrimSpace(string(body)), constants.BrightDataConfig.MaxBodyPreview)
}

func sortedKeys(object map[string]any) []string {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

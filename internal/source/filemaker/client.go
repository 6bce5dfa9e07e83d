// Package filemaker reads dispatch jobs through the FileMaker Data API.
package filemaker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/logger"
	"github.com/trevden810/dispatchtracker/internal/metrics"
)

const (
	sourceName      = "filemaker"
	apiPrefix       = "/fmi/data/vLatest/databases/"
	defaultPageSize = 100
	defaultMaxJobs  = 5000

	// codeNoRecords is returned by _find when the query matched nothing.
	codeNoRecords = "401"
)

// ErrNoRecords is returned when a find request matches no records.
var ErrNoRecords = errors.New("filemaker: no records match the request")

// omittedStatuses are excluded from the find request when only active jobs are wanted.
var omittedStatuses = []string{"Complete", "Completed", "Canceled", "Cancelled", "Done", "Re-scheduled", "Attempted"}

// Config holds configuration for the FileMaker client.
type Config struct {
	Host       string
	Database   string
	Layout     string
	Username   string
	Password   string
	Timeout    time.Duration
	PageSize   int
	MaxJobs    int
	ActiveOnly bool

	// Location interprets the database's local date and time fields. Defaults to time.Local.
	Location *time.Location
}

// Client fetches jobs from one layout of a hosted FileMaker database.
type Client struct {
	client   *resty.Client
	cfg      Config
	basePath string
}

// NewClient creates a FileMaker Data API client.
// Parameters:
//   - cfg: host, database, layout and credentials.
// Returns:
//   - *Client: client ready to list jobs.
func NewClient(cfg *Config) *Client {
	c := *cfg
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.MaxJobs <= 0 {
		c.MaxJobs = defaultMaxJobs
	}
	if c.Location == nil {
		c.Location = time.Local
	}

	client := resty.New().
		SetBaseURL(c.Host).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if c.Timeout > 0 {
		client.SetTimeout(c.Timeout)
	}

	return &Client{
		client:   client,
		cfg:      c,
		basePath: apiPrefix + url.PathEscape(c.Database),
	}
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return sourceName
}

type message struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope[T any] struct {
	Response T         `json:"response"`
	Messages []message `json:"messages"`
}

func (e *envelope[T]) firstMessage() message {
	if len(e.Messages) == 0 {
		return message{}
	}
	return e.Messages[0]
}

type sessionResponse struct {
	Token string `json:"token"`
}

type findResponse struct {
	DataInfo struct {
		FoundCount    int `json:"foundCount"`
		ReturnedCount int `json:"returnedCount"`
	} `json:"dataInfo"`
	Data []struct {
		RecordID  string         `json:"recordId"`
		FieldData map[string]any `json:"fieldData"`
	} `json:"data"`
}

type findRequest struct {
	Query  []map[string]string `json:"query"`
	Limit  string              `json:"limit"`
	Offset string              `json:"offset"`
}

// ListJobs logs in, pages through the layout's find results and logs out.
// A find that matches nothing yields an empty slice.
func (c *Client) ListJobs(ctx context.Context) ([]domain.Job, error) {
	start := time.Now()
	jobs, err := c.listJobs(ctx)
	metrics.UpstreamRequests.WithLabelValues(sourceName, metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}

	logger.With(logger.Fields{logger.FieldSource: sourceName}).
		WithCount(len(jobs)).
		WithDuration(time.Since(start).Milliseconds()).
		Debug(ctx, "Fetched jobs")
	return jobs, nil
}

func (c *Client) listJobs(ctx context.Context) ([]domain.Job, error) {
	token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}
	defer c.logout(context.WithoutCancel(ctx), token)

	jobs := make([]domain.Job, 0)
	offset := 1
	for len(jobs) < c.cfg.MaxJobs {
		limit := c.cfg.PageSize
		if remaining := c.cfg.MaxJobs - len(jobs); remaining < limit {
			limit = remaining
		}

		page, err := c.find(ctx, token, offset, limit)
		if errors.Is(err, ErrNoRecords) {
			break
		}
		if err != nil {
			return nil, err
		}

		for _, rec := range page.Data {
			job, ok := c.toJob(rec.FieldData)
			if !ok {
				logger.CtxWarn(ctx, "Skipping FileMaker record %s without a job id", rec.RecordID)
				continue
			}
			jobs = append(jobs, job)
		}

		returned := len(page.Data)
		offset += returned
		if returned < limit || offset > page.DataInfo.FoundCount {
			break
		}
	}
	return jobs, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	var result envelope[sessionResponse]
	resp, err := c.client.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.Username, c.cfg.Password).
		SetBody(map[string]any{}).
		SetResult(&result).
		SetError(&result).
		Post(c.basePath + "/sessions")
	if err != nil {
		return "", fmt.Errorf("failed to call FileMaker login: %w", err)
	}
	if resp.IsError() || result.Response.Token == "" {
		if msg := result.firstMessage(); msg.Message != "" {
			return "", fmt.Errorf("FileMaker login failed: %s (code %s)", msg.Message, msg.Code)
		}
		return "", fmt.Errorf("FileMaker login failed: status %d", resp.StatusCode())
	}
	return result.Response.Token, nil
}

func (c *Client) logout(ctx context.Context, token string) {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(c.basePath + "/sessions/" + url.PathEscape(token))
	if err != nil {
		logger.CtxWarn(ctx, "FileMaker logout failed: %v", err)
		return
	}
	if resp.IsError() {
		logger.CtxWarn(ctx, "FileMaker logout failed: status %d", resp.StatusCode())
	}
}

func (c *Client) find(ctx context.Context, token string, offset, limit int) (*findResponse, error) {
	req := findRequest{
		Query:  c.query(),
		Limit:  strconv.Itoa(limit),
		Offset: strconv.Itoa(offset),
	}

	var result envelope[findResponse]
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post(c.basePath + "/layouts/" + url.PathEscape(c.cfg.Layout) + "/_find")
	if err != nil {
		return nil, fmt.Errorf("failed to call FileMaker find: %w", err)
	}

	msg := result.firstMessage()
	if msg.Code == codeNoRecords {
		return nil, ErrNoRecords
	}
	if resp.IsError() {
		if msg.Message != "" {
			return nil, fmt.Errorf("FileMaker find failed: %s (code %s)", msg.Message, msg.Code)
		}
		return nil, fmt.Errorf("FileMaker find failed: status %d", resp.StatusCode())
	}
	return &result.Response, nil
}

func (c *Client) query() []map[string]string {
	q := []map[string]string{{fieldJobID: "*"}}
	if !c.cfg.ActiveOnly {
		return q
	}
	for _, status := range omittedStatuses {
		q = append(q, map[string]string{fieldStatus: "==" + status, "omit": "true"})
	}
	return q
}

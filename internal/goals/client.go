package goals

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"sud/internal/models"
	"sud/internal/providers"
	"sud/internal/structures"
)

type ClientInterface interface {
	FetchAll(ctx context.Context) ([]models.LearningGoal, error)
	Create(ctx context.Context, goal *models.NewGoal) (*models.LearningGoal, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}, lastKnown time.Time) (*models.LearningGoal, error)
	Replace(ctx context.Context, id int64, goal *models.LearningGoal, lastKnown time.Time) (*models.LearningGoal, error)
	Delete(ctx context.Context, id int64) error
}

// Client talks to the remote goal API. It normalizes the two list shapes
// the API serves and maps HTTP failures onto the error types of this
// package.
type Client struct {
	conf       *structures.Config
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	httpClient *http.Client
	baseURL    string
}

func NewClient(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) ClientInterface {
	timeout := conf.Goals.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		conf:    conf,
		logger:  logger,
		metrics: metrics,
		baseURL: strings.TrimRight(conf.Goals.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   2 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
	}
}

func (c *Client) FetchAll(ctx context.Context) ([]models.LearningGoal, error) {
	data, err := c.call(ctx, "list", http.MethodGet, c.listURL(), nil, time.Time{}, 0)
	if err != nil {
		return nil, err
	}
	return decodeGoalList(data)
}

func (c *Client) Create(ctx context.Context, goal *models.NewGoal) (*models.LearningGoal, error) {
	data, err := c.call(ctx, "create", http.MethodPost, c.listURL(), goal, time.Time{}, 0)
	if err != nil {
		return nil, err
	}
	return decodeGoal(data)
}

func (c *Client) Update(ctx context.Context, id int64, fields map[string]interface{}, lastKnown time.Time) (*models.LearningGoal, error) {
	data, err := c.call(ctx, "update", http.MethodPatch, c.goalURL(id), fields, lastKnown, id)
	if err != nil {
		return nil, err
	}
	return decodeGoal(data)
}

func (c *Client) Replace(ctx context.Context, id int64, goal *models.LearningGoal, lastKnown time.Time) (*models.LearningGoal, error) {
	data, err := c.call(ctx, "replace", http.MethodPut, c.goalURL(id), goal, lastKnown, id)
	if err != nil {
		return nil, err
	}
	return decodeGoal(data)
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.call(ctx, "delete", http.MethodDelete, c.goalURL(id), nil, time.Time{}, id)
	return err
}

func (c *Client) listURL() string {
	return c.baseURL + "/progress/goals/"
}

func (c *Client) goalURL(id int64) string {
	return fmt.Sprintf("%s/progress/goals/%d/", c.baseURL, id)
}

func (c *Client) call(ctx context.Context, op, method, rawURL string, body interface{}, precondition time.Time, id int64) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		c.metrics.IncGoalRequests(op, "error")
		return nil, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.conf.Goals.Token != "" {
		req.Header.Set("Authorization", "Token "+c.conf.Goals.Token)
	}
	if !precondition.IsZero() {
		req.Header.Set("If-Unmodified-Since", precondition.UTC().Format(http.TimeFormat))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncGoalRequests(op, "error")
		c.logger.Warnf(providers.TypeGoals, "Request %s %s failed: %s", method, rawURL, err)
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncGoalRequests(op, "error")
		return nil, &NetworkError{Op: op, Err: err}
	}

	c.logger.Debugf(providers.TypeGoals, "%s %s -> %d", method, rawURL, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.IncGoalRequests(op, "error")
		return nil, apiError(resp.StatusCode, data, id)
	}

	c.metrics.IncGoalRequests(op, "ok")
	return data, nil
}

func apiError(status int, body []byte, id int64) error {
	switch status {
	case http.StatusNotFound:
		return &NotFoundError{ID: id}
	case http.StatusConflict, http.StatusPreconditionFailed:
		return &ConflictError{ID: id}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return &ServerError{StatusCode: status, Body: msg}
}

// decodeGoalList accepts both shapes the API serves, a bare array and a
// paginated {"results": [...]} envelope.
func decodeGoalList(data []byte) ([]models.LearningGoal, error) {
	var goals []models.LearningGoal
	if err := json.Unmarshal(data, &goals); err == nil {
		return goals, nil
	}
	var envelope struct {
		Results []models.LearningGoal `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Results != nil {
		return envelope.Results, nil
	}
	return nil, fmt.Errorf("failed to decode goal list payload")
}

func decodeGoal(data []byte) (*models.LearningGoal, error) {
	var goal models.LearningGoal
	if err := json.Unmarshal(data, &goal); err != nil {
		return nil, fmt.Errorf("failed to decode goal payload: %w", err)
	}
	return &goal, nil
}

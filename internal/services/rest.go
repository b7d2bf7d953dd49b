package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"borgview/internal/domain"
	"borgview/internal/logging"
)

const (
	fileListPath = "/rest/archives/filelist"
	jobsPath     = "/rest/jobs"
)

type RESTConfig struct {
	BaseURL string
	// Timeout bounds a single file list request; zero waits as long as the
	// backend needs, which a forced recompute may take.
	Timeout time.Duration
	// JobRetries is how often a failed job status poll is retried.
	JobRetries int
}

// RESTClient talks to a borgbutler compatible server.
type RESTClient struct {
	baseURL    string
	listClient *http.Client
	jobClient  *http.Client
	logger     *logging.Logger
}

// retryLogger adapts the job client's retry logging to zerolog.
type retryLogger struct {
	logger *logging.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func NewRESTClient(cfg RESTConfig, logger *logging.Logger) (*RESTClient, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("server URL is empty")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	listClient := cleanhttp.DefaultPooledClient()
	listClient.Timeout = cfg.Timeout

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = cleanhttp.DefaultPooledClient()
	retryClient.RetryMax = cfg.JobRetries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = retryLogger{logger: logger}

	return &RESTClient{
		baseURL:    base,
		listClient: listClient,
		jobClient:  retryClient.StandardClient(),
		logger:     logger,
	}, nil
}

// ListFiles performs one file list retrieval.
func (client *RESTClient) ListFiles(ctx context.Context, req ListRequest) (domain.Listing, error) {
	if req.ArchiveID == "" {
		return domain.Listing{}, ErrArchiveRequired
	}
	endpoint := client.baseURL + fileListPath + "?" + req.Query().Encode()
	resp, err := client.get(ctx, client.listClient, endpoint)
	if err != nil {
		return domain.Listing{}, networkFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Listing{}, backendFailure(resp.StatusCode, fmt.Errorf("%s", readSnippet(resp.Body)))
	}
	listing, err := DecodeListing(resp.Body)
	if err != nil {
		return domain.Listing{}, backendFailure(resp.StatusCode, err)
	}
	return listing, nil
}

// Jobs returns the job queue of one repository.
func (client *RESTClient) Jobs(ctx context.Context, repo string) ([]domain.JobStatus, error) {
	values := url.Values{}
	if repo != "" {
		values.Set("repo", repo)
	}
	endpoint := client.baseURL + jobsPath
	if encoded := values.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	resp, err := client.get(ctx, client.jobClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("poll jobs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("poll jobs: HTTP %d", resp.StatusCode)
	}
	return DecodeJobs(resp.Body)
}

func (client *RESTClient) get(ctx context.Context, httpClient *http.Client, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return httpClient.Do(req)
}

func readSnippet(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 512))
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "empty response"
	}
	return text
}

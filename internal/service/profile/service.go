package profile

import (
	"context"
	"net/http"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/config"
	"github.com/kapu/wykra-go/internal/constants"
	"github.com/kapu/wykra-go/internal/domain"
	"github.com/kapu/wykra-go/internal/service/brightdata"
	"github.com/kapu/wykra-go/internal/service/normalize"
	"github.com/kapu/wykra-go/pkg/errors"
)

// SessionFactory opens the HTTP session a single lookup owns.
type SessionFactory func() *http.Client

// Service is the single entry point for profile lookups. It shares no
// mutable state between calls, so lookups may run concurrently.
type Service struct {
	cfg        config.BrightDataConfig
	newSession SessionFactory
	logger     *zap.Logger
}

type Option func(*Service)

// WithSessionFactory overrides how per-call HTTP sessions are created.
func WithSessionFactory(factory SessionFactory) Option {
	return func(s *Service) {
		if factory != nil {
			s.newSession = factory
		}
	}
}

func NewService(cfg config.BrightDataConfig, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = constants.BrightDataConfig.RequestTimeout
	}

	s := &Service{
		cfg:    cfg,
		logger: logger,
		newSession: func() *http.Client {
			return &http.Client{
				Timeout:   timeout,
				Transport: http.DefaultTransport.(*http.Transport).Clone(),
			}
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchProfile runs trigger -> wait -> fetch -> normalize and returns either a
// fully normalized profile or the first error encountered.
func (s *Service) FetchProfile(ctx context.Context, username string) (*domain.Profile, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, errors.NewValidationError("username is required", "username", username)
	}

	if missing := s.cfg.Missing(); len(missing) > 0 {
		s.logger.Error("Bright Data is not configured", zap.Strings("missing", missing))
		return nil, errors.NewNotConfiguredError(missing...)
	}

	session := s.newSession()
	defer session.CloseIdleConnections()

	logger := s.logger.With(zap.String("username", username))
	client := brightdata.NewClient(session, brightdata.Options{
		APIToken:       s.cfg.APIToken,
		DatasetID:      s.cfg.DatasetID,
		BaseURL:        s.cfg.BaseURL,
		PollInterval:   s.cfg.PollInterval,
		MaxWait:        s.cfg.MaxWait,
		FetchAttempts:  s.cfg.FetchAttempts,
		SnapshotFormat: s.cfg.SnapshotFormat,
	}, logger)

	jobID, err := client.Trigger(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := client.WaitUntilReady(ctx, jobID); err != nil {
		return nil, err
	}

	records, err := client.FetchResult(ctx, jobID)
	if err != nil {
		return nil, err
	}

	result, err := normalize.Normalize(username, records)
	if err != nil {
		return nil, errors.NewUnexpectedPayloadError(jobID, err.Error())
	}

	if result.Substituted {
		logger.Warn("No snapshot row matched the requested username, using the first row",
			zap.String("snapshot_id", jobID),
			zap.String("selected", result.Profile.Username),
			zap.Int("rows", result.RecordCount),
		)
	}

	logger.Info("Profile fetched",
		zap.String("snapshot_id", jobID),
		zap.String("profile", result.Profile.Username),
	)
	return result.Profile, nil
}

// BatchResult is the outcome of one lookup in FetchProfiles.
type BatchResult struct {
	Username string          `json:"username"`
	Profile  *domain.Profile `json:"profile,omitempty"`
	Err      error           `json:"-"`
}

// FetchProfiles runs independent lookups with at most concurrency in flight.
// Results keep the input order; each carries its own error.
func (s *Service) FetchProfiles(ctx context.Context, usernames []string, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = constants.ServerConfig.BatchConcurrency
	}

	results := make([]BatchResult, len(usernames))
	p := pool.New().WithMaxGoroutines(concurrency)

	for idx, username := range usernames {
		p.Go(func() {
			profile, err := s.FetchProfile(ctx, username)
			results[idx] = BatchResult{Username: username, Profile: profile, Err: err}
		})
	}

	p.Wait()
	return results
}

package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kapu/wykra-go/internal/config"
	"github.com/kapu/wykra-go/pkg/errors"
)

// snapshotAPI reports every job as building on its first progress poll and
// ready afterwards. With snapshotPending set, the first snapshot request of
// each job answers 202.
type snapshotAPI struct {
	mu              sync.Mutex
	triggerBody     string
	snapshotPending bool
	progressCalls   map[string]int
	snapshotCalls   map[string]int
	snapshotBody    func(jobID string) string
}

func (a *snapshotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.progressCalls == nil {
		a.progressCalls = map[string]int{}
		a.snapshotCalls = map[string]int{}
	}
	jobID := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	switch {
	case strings.HasSuffix(r.URL.Path, "/trigger"):
		_, _ = w.Write([]byte(a.triggerBody))
	case strings.Contains(r.URL.Path, "/progress/"):
		a.progressCalls[jobID]++
		if a.progressCalls[jobID] == 1 {
			_, _ = w.Write([]byte(`{"status":"building"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	case strings.Contains(r.URL.Path, "/snapshot/"):
		a.snapshotCalls[jobID]++
		if a.snapshotPending && a.snapshotCalls[jobID] == 1 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(a.snapshotBody(jobID)))
	default:
		http.NotFound(w, r)
	}
}

func (a *snapshotAPI) calls(counts map[string]int, jobID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return counts[jobID]
}

func testConfig(baseURL string) config.BrightDataConfig {
	return config.BrightDataConfig{
		APIToken:       "token",
		DatasetID:      "gd_test",
		BaseURL:        baseURL,
		PollInterval:   time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		FetchAttempts:  3,
		RequestTimeout: time.Second,
	}
}

func newTestService(t *testing.T, handler http.Handler, mutate func(*config.BrightDataConfig)) (*Service, *int32) {
	t.Helper()
	return newObservedService(t, handler, mutate, zap.NewNop())
}

func newObservedService(t *testing.T, handler http.Handler, mutate func(*config.BrightDataConfig), logger *zap.Logger) (*Service, *int32) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	if mutate != nil {
		mutate(&cfg)
	}

	var sessions int32
	svc := NewService(cfg, logger, WithSessionFactory(func() *http.Client {
		atomic.AddInt32(&sessions, 1)
		return srv.Client()
	}))
	return svc, &sessions
}

func TestFetchProfileEndToEnd(t *testing.T) {
	api := &snapshotAPI{
		triggerBody: `{"snapshot_id":"sd_1"}`,
		snapshotBody: func(string) string {
			return `[{"account":"alice","followers":"100"}]`
		},
	}
	svc, sessions := newTestService(t, api, nil)

	profile, err := svc.FetchProfile(context.Background(), "@alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", profile.Username)
	require.NotNil(t, profile.Followers)
	assert.Equal(t, int64(100), *profile.Followers)
	assert.Equal(t, map[string]any{"account": "alice", "followers": "100"}, profile.Raw)
	assert.Equal(t, 2, api.calls(api.progressCalls, "sd_1"))
	assert.Equal(t, 1, api.calls(api.snapshotCalls, "sd_1"))
	assert.Equal(t, int32(1), atomic.LoadInt32(sessions))
}

func TestFetchProfileWaitsForSnapshotToMaterialize(t *testing.T) {
	api := &snapshotAPI{
		triggerBody:     `{"snapshot_id":"sd_1"}`,
		snapshotPending: true,
		snapshotBody: func(string) string {
			return `[{"account":"alice","followers":"100"}]`
		},
	}
	svc, _ := newTestService(t, api, nil)

	profile, err := svc.FetchProfile(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, 2, api.calls(api.snapshotCalls, "sd_1"))
}

func TestFetchProfileRejectsSnapshotWithoutProfileData(t *testing.T) {
	api := &snapshotAPI{
		triggerBody: `{"snapshot_id":"sd_1"}`,
		snapshotBody: func(string) string {
			return `[{"foo":"bar"}]`
		},
	}
	svc, _ := newTestService(t, api, nil)

	profile, err := svc.FetchProfile(context.Background(), "alice")

	assert.Nil(t, profile)
	assert.ErrorIs(t, err, errors.ErrUnexpectedPayload)
}

func TestFetchProfileMissingJobIDSkipsPolling(t *testing.T) {
	api := &snapshotAPI{triggerBody: `{"message":"accepted"}`}
	svc, _ := newTestService(t, api, nil)

	_, err := svc.FetchProfile(context.Background(), "alice")

	require.ErrorIs(t, err, errors.ErrMissingJobID)
	assert.Empty(t, api.progressCalls)
	assert.Empty(t, api.snapshotCalls)
}

func TestFetchProfileNotConfigured(t *testing.T) {
	var hits int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})
	svc, sessions := newTestService(t, handler, func(cfg *config.BrightDataConfig) {
		cfg.APIToken = ""
	})

	_, err := svc.FetchProfile(context.Background(), "alice")

	require.ErrorIs(t, err, errors.ErrNotConfigured)
	assert.Zero(t, atomic.LoadInt32(&hits))
	assert.Zero(t, atomic.LoadInt32(sessions))
}

func TestFetchProfileBlankUsername(t *testing.T) {
	svc, _ := newTestService(t, http.NotFoundHandler(), nil)

	_, err := svc.FetchProfile(context.Background(), " @ ")

	var validationErr *errors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestFetchProfileSubstitutesFirstRow(t *testing.T) {
	api := &snapshotAPI{
		triggerBody: `[{"snapshot_id":"sd_2"}]`,
		snapshotBody: func(string) string {
			return `[{"account":"bob","followers":5}]`
		},
	}
	core, logs := observer.New(zap.WarnLevel)
	svc, _ := newObservedService(t, api, nil, zap.New(core))

	profile, err := svc.FetchProfile(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Username)

	entries := logs.FilterMessageSnippet("No snapshot row matched").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "carol", fields["username"])
	assert.Equal(t, "bob", fields["selected"])
	assert.Equal(t, "sd_2", fields["snapshot_id"])
}

func TestFetchProfileExactMatchDoesNotWarn(t *testing.T) {
	api := &snapshotAPI{
		triggerBody: `{"snapshot_id":"sd_3"}`,
		snapshotBody: func(string) string {
			return `[{"account":"bob"},{"account":"Carol"}]`
		},
	}
	core, logs := observer.New(zap.WarnLevel)
	svc, _ := newObservedService(t, api, nil, zap.New(core))

	profile, err := svc.FetchProfile(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, "Carol", profile.Username)
	assert.Zero(t, logs.Len())
}

func TestFetchProfilesKeepsOrderAndIsolatesJobs(t *testing.T) {
	var next int32
	api := &snapshotAPI{
		snapshotBody: func(jobID string) string {
			return `[{"account":"` + strings.TrimPrefix(jobID, "sd_") + `"}]`
		},
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/trigger") {
			var body []struct {
				UserName string `json:"user_name"`
			}
			_ = decodeBody(r, &body)
			atomic.AddInt32(&next, 1)
			_, _ = w.Write([]byte(`{"snapshot_id":"sd_` + body[0].UserName + `"}`))
			return
		}
		api.ServeHTTP(w, r)
	})
	svc, sessions := newTestService(t, handler, nil)

	usernames := []string{"alice", "bob", "carol", "dave"}
	results := svc.FetchProfiles(context.Background(), usernames, 2)

	require.Len(t, results, len(usernames))
	for i, result := range results {
		require.NoError(t, result.Err)
		assert.Equal(t, usernames[i], result.Username)
		assert.Equal(t, usernames[i], result.Profile.Username)
	}
	assert.Equal(t, int32(len(usernames)), atomic.LoadInt32(&next))
	assert.Equal(t, int32(len(usernames)), atomic.LoadInt32(sessions))
}

func TestFetchProfilesReportsPerLookupErrors(t *testing.T) {
	svc, _ := newTestService(t, http.NotFoundHandler(), nil)

	results := svc.FetchProfiles(context.Background(), []string{"alice", ""}, 0)

	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, errors.ErrTriggerFailed)
	var validationErr *errors.ValidationError
	assert.ErrorAs(t, results[1].Err, &validationErr)
}

func decodeBody(r *http.Request, dest any) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

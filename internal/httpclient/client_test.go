package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tapURL = "https://archive.test/TAP/sync?format=csv"

const tableCSV = "pl_name,hostname,default_flag\nKepler-22 b,Kepler-22,1\n"

// newMockedClient returns a client whose transport answers from httpmock.
func newMockedClient(t *testing.T, cfg *Config) (*Client, *httpmock.MockTransport) {
	t.Helper()
	client := New(cfg)
	mt := httpmock.NewMockTransport()
	client.HTTPClient().Transport = mt
	t.Cleanup(client.Close)
	return client, mt
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { assert.NoError(t, resp.Body.Close()) }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	client := New(nil)
	defer client.Close()
	assert.Equal(t, DefaultTimeout, client.defaultTimeout)
	assert.Equal(t, defaultUserAgent, client.userAgent)

	cfg := &Config{DefaultTimeout: time.Second, UserAgent: "exodash/test"}
	custom := New(cfg)
	defer custom.Close()
	assert.Equal(t, time.Second, custom.defaultTimeout)
	assert.Equal(t, "exodash/test", custom.userAgent)
	assert.Zero(t, cfg.MaxIdleConns, "caller config must not be modified")

	transport, ok := custom.HTTPClient().Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, defaultResponseHeaderTimeout, transport.ResponseHeaderTimeout)
}

func TestGetDownloadsTable(t *testing.T) {
	t.Parallel()

	client, mt := newMockedClient(t, nil)
	mt.RegisterResponder(http.MethodGet, tapURL, httpmock.NewStringResponder(http.StatusOK, tableCSV))

	resp, err := client.Get(t.Context(), tapURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, tableCSV, readAll(t, resp))
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestDoSetsUserAgent(t *testing.T) {
	t.Parallel()

	client, mt := newMockedClient(t, &Config{UserAgent: "exodash/1.0"})
	mt.RegisterResponder(http.MethodGet, tapURL, func(req *http.Request) (*http.Response, error) {
		return httpmock.NewStringResponse(http.StatusOK, req.Header.Get("User-Agent")), nil
	})

	resp, err := client.Get(t.Context(), tapURL)
	require.NoError(t, err)
	assert.Equal(t, "exodash/1.0", readAll(t, resp))

	// an explicit header wins
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, tapURL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")
	resp, err = client.Do(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, "custom", readAll(t, resp))
}

func TestDoRejectsNilRequest(t *testing.T) {
	t.Parallel()

	client := New(nil)
	defer client.Close()
	_, err := client.Do(t.Context(), nil)
	require.Error(t, err)
}

func TestDoHooks(t *testing.T) {
	t.Parallel()

	client, mt := newMockedClient(t, nil)
	mt.RegisterResponder(http.MethodGet, tapURL, httpmock.NewStringResponder(http.StatusServiceUnavailable, ""))

	var before, after atomic.Int32
	var status atomic.Int32
	client.SetBeforeRequestHook(func(r *http.Request) {
		before.Add(1)
		assert.Equal(t, tapURL, r.URL.String())
	})
	client.SetAfterResponseHook(func(_ *http.Request, resp *http.Response, err error) {
		after.Add(1)
		if assert.NoError(t, err) {
			status.Store(int32(resp.StatusCode))
		}
	})

	resp, err := client.Get(t.Context(), tapURL)
	require.NoError(t, err)
	readAll(t, resp)

	assert.Equal(t, int32(1), before.Load())
	assert.Equal(t, int32(1), after.Load())
	assert.Equal(t, int32(http.StatusServiceUnavailable), status.Load())
}

func TestDoTransportErrorReachesHook(t *testing.T) {
	t.Parallel()

	client, mt := newMockedClient(t, nil)
	mt.RegisterResponder(http.MethodGet, tapURL, httpmock.NewErrorResponder(errors.New("connection reset")))

	var hookErr atomic.Value
	client.SetAfterResponseHook(func(_ *http.Request, _ *http.Response, err error) {
		hookErr.Store(err)
	})

	_, err := client.Get(t.Context(), tapURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NotNil(t, hookErr.Load())
}

// slowServer blocks until the client goes away or the test ends.
func slowServer(t *testing.T) *httptest.Server {
	t.Helper()
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	t.Cleanup(func() {
		close(done)
		server.Close()
	})
	return server
}

func TestDoDefaultTimeout(t *testing.T) {
	t.Parallel()

	server := slowServer(t)
	client := New(&Config{DefaultTimeout: 50 * time.Millisecond})
	defer client.Close()

	start := time.Now()
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDoContextDeadlineOverridesDefault(t *testing.T) {
	t.Parallel()

	server := slowServer(t)
	client := New(&Config{DefaultTimeout: time.Minute})
	defer client.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Get(ctx, server.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDoCanceledContext(t *testing.T) {
	t.Parallel()

	server := slowServer(t)
	client := New(nil)
	defer client.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := client.Get(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBodyReadableAfterDefaultTimeoutContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, tableCSV)
	}))
	defer server.Close()

	client := New(&Config{DefaultTimeout: 5 * time.Second})
	defer client.Close()

	// The timeout context must outlive Do so the caller can stream the table.
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, tableCSV, readAll(t, resp))
}

func TestConcurrentDownloads(t *testing.T) {
	t.Parallel()

	client, mt := newMockedClient(t, nil)
	mt.RegisterResponder(http.MethodGet, tapURL, httpmock.NewStringResponder(http.StatusOK, tableCSV))

	const n = 10
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Get(context.Background(), tapURL)
			if !assert.NoError(t, err) {
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, n, mt.GetTotalCallCount())
}

package network

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/matrixportal-golang/internal/types"
)

type fakeLink struct {
	mu       sync.Mutex
	up       bool
	failures int
	attempts int
}

func (l *fakeLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.up
}

func (l *fakeLink) Connect(ctx context.Context, _ types.Secrets) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts++
	if l.attempts <= l.failures {
		return errors.New("no access point")
	}
	l.up = true
	return nil
}

func (l *fakeLink) IP() (net.IP, error) {
	return net.IPv4(192, 168, 1, 42), nil
}

// stuckLink accepts every connect but never comes up
type stuckLink struct {
	mu       sync.Mutex
	attempts int
}

func (l *stuckLink) Connected() bool { return false }

func (l *stuckLink) Connect(context.Context, types.Secrets) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts++
	return nil
}

func (l *stuckLink) IP() (net.IP, error) { return nil, errors.New("down") }

type recorder struct {
	mu     sync.Mutex
	colors []color.RGBA
}

func (r *recorder) Fill(c color.RGBA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = append(r.colors, c)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) last() color.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.colors[len(r.colors)-1]
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestNetwork(t *testing.T, cfg Config) (*Network, *recorder) {
	t.Helper()
	rec := &recorder{}
	if cfg.Link == nil {
		cfg.Link = &fakeLink{up: true}
	}
	cfg.Status = rec
	cfg.Logger = discard()
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	n := New(cfg)
	n.ioRetry = time.Millisecond
	return n, rec
}

func TestConnect(t *testing.T) {
	link := &fakeLink{failures: 2}
	n, rec := newTestNetwork(t, Config{Link: link, Secrets: types.Secrets{SSID: "home", Password: "secret"}})

	require.NoError(t, n.Connect(context.Background()))
	assert.Equal(t, 3, link.attempts)
	assert.Equal(t, types.StatusConnecting, rec.colors[0])
	assert.Equal(t, types.StatusNoConnection, rec.colors[1])
	assert.Equal(t, types.StatusConnected, rec.last())

	ip, err := n.IPAddress()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.42", ip)
}

func TestConnectPlaceholderSecrets(t *testing.T) {
	n, _ := newTestNetwork(t, Config{
		Link:    &fakeLink{},
		Secrets: types.Secrets{SSID: types.PlaceholderCredential, Password: "x"},
	})
	err := n.Connect(context.Background())
	assert.ErrorIs(t, err, ErrPlaceholderCredentials)
}

func TestConnectWaitsWhenLinkStaysDown(t *testing.T) {
	link := &stuckLink{}
	n, _ := newTestNetwork(t, Config{Link: link, RetryDelay: 50 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, n.Connect(ctx), context.DeadlineExceeded)
	link.mu.Lock()
	defer link.mu.Unlock()
	assert.LessOrEqual(t, link.attempts, 4, "retries are spaced by the retry delay")
}

func TestConnectCancelled(t *testing.T) {
	n, _ := newTestNetwork(t, Config{
		Link:       &fakeLink{failures: 1000},
		RetryDelay: time.Hour,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, n.Connect(ctx), context.DeadlineExceeded)
}

func TestFetchDataJSONPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		fmt.Fprint(w, `{"base":"EUR","rates":{"USD":1.08,"GBP":0.86},"list":[1,2,3]}`)
	}))
	defer srv.Close()

	n, rec := newTestNetwork(t, Config{})
	values, err := n.FetchData(context.Background(), srv.URL, FetchOptions{
		Headers:   map[string]string{"Authorization": "token"},
		JSONPaths: Paths{Keys("rates", "USD"), Keys("list", -1), Expr("$.base")},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1.08"), json.Number("3"), "EUR"}, values)
	assert.Equal(t, types.StatusDataReceived, rec.last())
}

func TestFetchDataTransforms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"temp_c":20}`)
	}))
	defer srv.Close()

	n, _ := newTestNetwork(t, Config{})
	n.AddJSONTransform(func(doc any) (any, error) {
		m := doc.(map[string]any)
		c, err := m["temp_c"].(json.Number).Float64()
		if err != nil {
			return nil, err
		}
		m["temp_f"] = c*9/5 + 32
		return nil, nil
	})
	values, err := n.FetchData(context.Background(), srv.URL, FetchOptions{JSONPaths: Paths{Keys("temp_f")}})
	require.NoError(t, err)
	assert.Equal(t, []any{68.0}, values)

	boom := errors.New("boom")
	n.AddJSONTransform(func(any) (any, error) { return nil, boom })
	_, err = n.FetchData(context.Background(), srv.URL, FetchOptions{JSONPaths: Paths{Keys("temp_f")}})
	assert.ErrorIs(t, err, boom)
}

func TestFetchDataLargeInteger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"n": 12345678901234567, "items": [5, 6]}`)
	}))
	defer srv.Close()

	n, _ := newTestNetwork(t, Config{})
	values, err := n.FetchData(context.Background(), srv.URL, FetchOptions{JSONPaths: Paths{Keys("n"), Keys("items", "1")}})
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("12345678901234567"), json.Number("6")}, values)
}

func TestFetchDataMissingPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"a":{"b":1}}`)
	}))
	defer srv.Close()

	n, _ := newTestNetwork(t, Config{})
	_, err := n.FetchData(context.Background(), srv.URL, FetchOptions{JSONPaths: Paths{Keys("a", "c")}})
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestFetchDataRegexp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><span id="count">1234</span><b>open</b></html>`)
	}))
	defer srv.Close()

	n, _ := newTestNetwork(t, Config{})
	values, err := n.FetchData(context.Background(), srv.URL, FetchOptions{
		RegexpPaths: []*regexp.Regexp{
			regexp.MustCompile(`id="count">(\d+)<`),
			regexp.MustCompile(`<b>(\w+)</b>`),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"1234", "open"}, values)

	_, err = n.FetchData(context.Background(), srv.URL, FetchOptions{
		RegexpPaths: []*regexp.Regexp{regexp.MustCompile(`nothing (here)`)},
	})
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestFetchDataWholeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "hello world")
	}))
	defer srv.Close()

	n, _ := newTestNetwork(t, Config{})
	values, err := n.FetchData(context.Background(), srv.URL, FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []any{"hello world"}, values)
}

func TestFetchDataHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n, rec := newTestNetwork(t, Config{})
	_, err := n.FetchData(context.Background(), srv.URL, FetchOptions{})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 503, httpErr.Code)
	assert.Equal(t, "code 503: Service Unavailable", httpErr.Error())
	assert.Equal(t, types.StatusHTTPError, rec.last())
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "local.txt")
	require.NoError(t, os.WriteFile(local, []byte(`{"value": 42}`), 0o644))

	link := &fakeLink{}
	n, _ := newTestNetwork(t, Config{Link: link, LocalFile: local})
	assert.True(t, n.UsingLocalFile())

	values, err := n.FetchData(context.Background(), "http://unused.invalid", FetchOptions{JSONPaths: Paths{Keys("value")}})
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("42")}, values)
	assert.Zero(t, link.attempts, "the network must not be used")

	n2, _ := newTestNetwork(t, Config{LocalFile: filepath.Join(dir, "missing.txt")})
	assert.False(t, n2.UsingLocalFile())
}

func TestWget(t *testing.T) {
	payload := make([]byte, 30000)
	for i := range payload {
		payload[i] = byte(i)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		w.Write(payload)
	})
	mux.HandleFunc("/chunked", func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		w.Write(payload[:10])
	})
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.Write(payload[:10])
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	n, rec := newTestNetwork(t, Config{})
	dir := t.TempDir()

	out := filepath.Join(dir, "ok.bin")
	require.NoError(t, n.Wget(context.Background(), srv.URL+"/ok", out, 4096))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, types.StatusOff, rec.last())
	assert.Contains(t, rec.colors, types.StatusDownloading)

	err = n.Wget(context.Background(), srv.URL+"/chunked", filepath.Join(dir, "chunked.bin"), 0)
	assert.ErrorIs(t, err, ErrContentLengthMissing)

	short := filepath.Join(dir, "short.bin")
	err = n.Wget(context.Background(), srv.URL+"/short", short, 0)
	assert.ErrorIs(t, err, ErrIncompleteDownload)
	info, statErr := os.Stat(short)
	require.NoError(t, statErr)
	assert.EqualValues(t, 10, info.Size())

	err = n.Wget(context.Background(), srv.URL+"/missing", filepath.Join(dir, "missing.bin"), 0)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestWgetStalledBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.Write(make([]byte, 10))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	n, _ := newTestNetwork(t, Config{Timeout: 50 * time.Millisecond})
	start := time.Now()
	err := n.Wget(context.Background(), srv.URL, filepath.Join(t.TempDir(), "stalled.bin"), 0)
	assert.ErrorIs(t, err, ErrDownloadStalled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

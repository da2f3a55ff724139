// Package network fetches data for the portal: HTTP requests with status LED
// signalling, JSON and regexp value extraction, file downloads, the Adafruit
// IO time service and Adafruit IO feeds.
package network

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/fkcurrie/matrixportal-golang/internal/status"
	"github.com/fkcurrie/matrixportal-golang/internal/types"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultRetryDelay = 3 * time.Second
	DefaultIOBaseURL  = "https://io.adafruit.com"
	DefaultLocalFile  = "local.txt"
)

// JSONTransform post-processes a decoded JSON document before values are
// extracted from it. It may modify doc in place or return a replacement.
type JSONTransform func(doc any) (any, error)

// Config configures a Network
type Config struct {
	Secrets types.Secrets
	// Status shows progress, status.Nop when nil
	Status status.Indicator
	// Link is the connection to bring up before fetching, the host's
	// network when nil
	Link Link
	// Client is used for every request, NewHTTPClient(DefaultClientConfig())
	// when nil
	Client     *http.Client
	Timeout    time.Duration
	RetryDelay time.Duration
	// LocalFile, when it exists, is served instead of fetching over the
	// network
	LocalFile string
	IOBaseURL string
	Logger    *slog.Logger
}

// Network is the data fetcher. It is safe for concurrent use.
type Network struct {
	secrets    types.Secrets
	indicator  status.Indicator
	link       Link
	client     *http.Client
	exec       *executor
	timeout    time.Duration
	retryDelay time.Duration
	localFile  string
	ioBase     string
	ioRetry    time.Duration
	log        *slog.Logger

	mu         sync.Mutex
	transforms []JSONTransform
}

// New creates a Network, filling in defaults for unset fields
func New(cfg Config) *Network {
	if cfg.Status == nil {
		cfg.Status = status.Nop{}
	}
	if cfg.Link == nil {
		cfg.Link = &HostLink{}
	}
	if cfg.Client == nil {
		cfg.Client = NewHTTPClient(DefaultClientConfig())
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.IOBaseURL == "" {
		cfg.IOBaseURL = DefaultIOBaseURL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Network{
		secrets:    cfg.Secrets,
		indicator:  cfg.Status,
		link:       cfg.Link,
		client:     cfg.Client,
		exec:       &executor{client: cfg.Client},
		timeout:    cfg.Timeout,
		retryDelay: cfg.RetryDelay,
		localFile:  cfg.LocalFile,
		ioBase:     cfg.IOBaseURL,
		ioRetry:    time.Second,
		log:        cfg.Logger,
	}
}

// SetStatus shows c on the status indicator. Indicator failures are logged,
// never returned.
func (n *Network) SetStatus(c color.RGBA) {
	if err := n.indicator.Fill(c); err != nil {
		n.log.Warn("failed to set status indicator", "error", err)
	}
}

// AddJSONTransform appends transforms applied, in order, to every decoded
// JSON document fetched by FetchData.
func (n *Network) AddJSONTransform(fns ...JSONTransform) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			n.transforms = append(n.transforms, fn)
		}
	}
}

func (n *Network) jsonTransforms() []JSONTransform {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]JSONTransform(nil), n.transforms...)
}

// Connect brings the link up, retrying every RetryDelay until it is
// connected or ctx is done.
func (n *Network) Connect(ctx context.Context) error {
	n.SetStatus(types.StatusConnecting)
	attempted := false
	for !n.link.Connected() {
		n.log.Info("connecting to access point", "ssid", n.secrets.SSID)
		if n.secrets.SSID == types.PlaceholderCredential || n.secrets.Password == types.PlaceholderCredential {
			return ErrPlaceholderCredentials
		}
		n.SetStatus(types.StatusNoConnection)
		attempted = true
		err := n.link.Connect(ctx, n.secrets)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil && n.link.Connected() {
			break
		}
		if err == nil {
			err = errors.New("link reported success but is still down")
		}
		n.log.Warn("could not connect to internet", "error", err, "retry_in", n.retryDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.retryDelay):
		}
	}
	if attempted {
		n.SetStatus(types.StatusConnected)
	}
	return nil
}

// IPAddress returns the address of the link
func (n *Network) IPAddress() (string, error) {
	ip, err := n.link.IP()
	if err != nil {
		return "", err
	}
	return ip.String(), nil
}

// UsingLocalFile reports whether replies come from the local data file
func (n *Network) UsingLocalFile() bool {
	if n.localFile == "" {
		return false
	}
	info, err := os.Stat(n.localFile)
	return err == nil && !info.IsDir()
}

// Fetch GETs url and returns the whole reply. When the local data file
// exists it is returned instead and the network is not touched.
func (n *Network) Fetch(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	if n.UsingLocalFile() {
		n.log.Warn("using local file for data, not the network", "file", n.localFile)
		return localResponse(n.localFile)
	}

	if err := n.Connect(ctx); err != nil {
		return nil, err
	}

	n.log.Info("retrieving data", "url", url)
	n.SetStatus(types.StatusFetching)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid url %q", url)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := n.exec.do(ctx, req, n.timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", url)
	}
	return resp, nil
}

// FetchOptions selects what FetchData extracts from a reply
type FetchOptions struct {
	Headers map[string]string
	// JSONPaths extract one value each from a JSON reply
	JSONPaths Paths
	// RegexpPaths extract the first capture group of each expression from a
	// text reply
	RegexpPaths []*regexp.Regexp
	// DecodeJSON decodes JSON replies even when there are no JSON paths
	DecodeJSON bool
	// Inspect, when set, sees the decoded JSON document after the transforms
	Inspect func(doc any)
}

// FetchData fetches url and extracts values from the reply. With JSON paths
// there is one value per path; with regexps one per expression; otherwise a
// single value holding the whole body as text.
func (n *Network) FetchData(ctx context.Context, url string, opts FetchOptions) ([]any, error) {
	resp, err := n.Fetch(ctx, url, opts.Headers)
	if err != nil {
		return nil, err
	}
	n.log.Debug("reply headers", "headers", resp.Header)

	if resp.StatusCode != http.StatusOK {
		n.log.Debug("reply failed", "content_length", resp.Header.Get("Content-Length"), "date", resp.Header.Get("Date"))
		n.SetStatus(types.StatusHTTPError)
		return nil, &HTTPError{Code: resp.StatusCode, Reason: resp.Reason}
	}
	n.log.Info("reply is ok", "url", url)
	n.SetStatus(types.StatusDataReceived)

	kind := resp.Kind()
	var doc any
	if (len(opts.JSONPaths) > 0 || opts.DecodeJSON) && (kind == ContentJSON || (kind == ContentText && json.Valid(resp.Body))) {
		kind = ContentJSON
		doc, err = resp.JSON()
		if err != nil {
			n.log.Error("couldn't parse json", "body", resp.Text())
			return nil, err
		}
		n.log.Debug("reply json", "json", doc)
	}

	if doc != nil {
		for idx, fn := range n.jsonTransforms() {
			out, err := fn(doc)
			if err != nil {
				return nil, errors.Wrapf(err, "json transform %d", idx)
			}
			if out != nil {
				doc = out
			}
		}
		if opts.Inspect != nil {
			opts.Inspect(doc)
		}
	}

	switch {
	case doc != nil && !emptyDoc(doc) && len(opts.JSONPaths) > 0:
		values := make([]any, 0, len(opts.JSONPaths))
		for _, p := range opts.JSONPaths {
			v, err := p.Traverse(doc)
			if err != nil {
				n.log.Debug("path not found", "path", p.String(), "json", doc)
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil
	case kind == ContentText && len(opts.RegexpPaths) > 0:
		text := resp.Text()
		values := make([]any, 0, len(opts.RegexpPaths))
		for _, re := range opts.RegexpPaths {
			m := re.FindStringSubmatch(text)
			if m == nil {
				return nil, errors.Wrapf(ErrNoMatch, "%s", re)
			}
			if len(m) > 1 {
				values = append(values, m[1])
			} else {
				values = append(values, m[0])
			}
		}
		return values, nil
	case doc != nil:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, errors.Wrap(err, "failed to encode json")
		}
		return []any{string(bytes.TrimSpace(buf.Bytes()))}, nil
	default:
		return []any{resp.Text()}, nil
	}
}

// emptyDoc reports whether doc is an empty object or array
func emptyDoc(doc any) bool {
	switch v := doc.(type) {
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

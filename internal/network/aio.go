package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const ioAttempts = 3

// Feed is an Adafruit IO feed
type Feed struct {
	ID          int            `json:"id"`
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	LastValue   string         `json:"last_value,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// Group is an Adafruit IO group and its feeds
type Group struct {
	ID          int    `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Feeds       []Feed `json:"feeds,omitempty"`
}

// Data is one value of a feed
type Data struct {
	ID        string `json:"id"`
	Value     string `json:"value"`
	FeedID    int    `json:"feed_id,omitempty"`
	FeedKey   string `json:"feed_key,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (n *Network) ioURL(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("%s/api/v2/%s/%s", strings.TrimRight(n.ioBase, "/"),
		url.PathEscape(n.secrets.AIOUsername), strings.Join(escaped, "/"))
}

// ioRequest sends an Adafruit IO API request and decodes the reply into out.
// Transport failures and server errors are retried.
func (n *Network) ioRequest(ctx context.Context, method, endpoint string, body, out any) error {
	if err := n.Connect(ctx); err != nil {
		return err
	}
	if n.secrets.AIOUsername == "" || n.secrets.AIOKey == "" {
		return ErrCredentialsMissing
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, "failed to encode adafruit io request")
		}
	}

	var lastErr error
	for attempt := 1; attempt <= ioAttempts; attempt++ {
		if attempt > 1 {
			n.log.Warn("an error occurred, retrying", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.ioRetry):
			}
		}

		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
		if err != nil {
			return errors.Wrap(err, "invalid adafruit io url")
		}
		req.Header.Set("X-AIO-Key", n.secrets.AIOKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := n.exec.do(ctx, req, n.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = errors.Wrap(err, "adafruit io request")
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = ioError(resp)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return ioError(resp)
		}
		if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
			return nil
		}
		return errors.Wrap(json.Unmarshal(resp.Body, out), "failed to decode adafruit io reply")
	}
	return lastErr
}

func ioError(resp *Response) error {
	var msg struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(resp.Text())
	if json.Unmarshal(resp.Body, &msg) == nil && msg.Error != "" {
		message = msg.Error
	}
	return &IOError{Code: resp.StatusCode, Message: message}
}

// GetIOFeed returns the feed with the given key, with its details when
// detailed is set.
func (n *Network) GetIOFeed(ctx context.Context, key string, detailed bool) (*Feed, error) {
	endpoint := n.ioURL("feeds", key)
	if detailed {
		endpoint = n.ioURL("feeds", key, "details")
	}
	var feed Feed
	if err := n.ioRequest(ctx, http.MethodGet, endpoint, nil, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

// GetIOGroup returns the group with the given key
func (n *Network) GetIOGroup(ctx context.Context, key string) (*Group, error) {
	var group Group
	if err := n.ioRequest(ctx, http.MethodGet, n.ioURL("groups", key), nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// GetIOData returns every value of the feed, newest first
func (n *Network) GetIOData(ctx context.Context, key string) ([]Data, error) {
	var data []Data
	if err := n.ioRequest(ctx, http.MethodGet, n.ioURL("feeds", key, "data"), nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (n *Network) createIOFeed(ctx context.Context, key string) (*Feed, error) {
	n.log.Info("creating adafruit io feed", "feed", key)
	var feed Feed
	body := map[string]string{"name": key}
	if err := n.ioRequest(ctx, http.MethodPost, n.ioURL("feeds"), body, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

// PushToIO sends value to the feed, creating the feed when it does not exist
func (n *Network) PushToIO(ctx context.Context, key string, value any) error {
	feed, err := n.GetIOFeed(ctx, key, false)
	if IsNotFound(err) {
		feed, err = n.createIOFeed(ctx, key)
	}
	if err != nil {
		return err
	}
	if feed.Key == "" {
		feed.Key = key
	}

	body := map[string]any{"value": value}
	return n.ioRequest(ctx, http.MethodPost, n.ioURL("feeds", feed.Key, "data"), body, nil)
}

// ImageConverterURL returns the Adafruit IO image formatter URL that converts
// imageURL to a width x height BMP of the given color depth.
func (n *Network) ImageConverterURL(imageURL string, width, height, depth int) (string, error) {
	if n.secrets.AIOUsername == "" || n.secrets.AIOKey == "" {
		return "", errors.Wrap(ErrCredentialsMissing, "the image converter requires an adafruit io account")
	}
	if depth == 0 {
		depth = 16
	}
	q := url.Values{}
	q.Set("x-aio-key", n.secrets.AIOKey)
	q.Set("width", fmt.Sprint(width))
	q.Set("height", fmt.Sprint(height))
	q.Set("output", fmt.Sprintf("BMP%d", depth))
	q.Set("url", imageURL)
	return fmt.Sprintf("%s/api/v2/%s/integrations/image-formatter?%s",
		strings.TrimRight(n.ioBase, "/"), url.PathEscape(n.secrets.AIOUsername), q.Encode()), nil
}

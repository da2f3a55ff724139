package network

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ContentKind classifies a reply body
type ContentKind int

const (
	ContentText ContentKind = iota + 1
	ContentJSON
	ContentImage
)

func (k ContentKind) String() string {
	switch k {
	case ContentJSON:
		return "json"
	case ContentImage:
		return "image"
	default:
		return "text"
	}
}

// Response is a fully read HTTP reply
type Response struct {
	StatusCode int
	Reason     string
	Header     http.Header
	Body       []byte
	// Local is set when the reply was served from the local data file
	Local bool
}

func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into generic values (map[string]any, []any, ...).
// Numbers are kept as json.Number so large integers survive.
func (r *Response) JSON() (any, error) {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "couldn't parse json")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("couldn't parse json: trailing data after the document")
	}
	return v, nil
}

// Kind classifies the reply by its Content-Type header. Local replies carry
// the content type guessed from the file.
func (r *Response) Kind() ContentKind {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ContentText
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mt = strings.ToLower(ct)
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return ContentImage
	case mt == "application/json", mt == "application/javascript", strings.HasSuffix(mt, "+json"):
		return ContentJSON
	default:
		return ContentText
	}
}

// localResponse reads a file in place of a network reply
func localResponse(path string) (*Response, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read local data file %s", path)
	}
	ct := "text/plain; charset=utf-8"
	if json.Valid(bytes.TrimSpace(body)) {
		ct = "application/json"
	}
	return &Response{
		StatusCode: http.StatusOK,
		Reason:     http.StatusText(http.StatusOK),
		Header:     http.Header{"Content-Type": []string{ct}},
		Body:       body,
		Local:      true,
	}, nil
}

package network

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrPathNotFound           = errors.New("json path not found")
	ErrNoMatch                = errors.New("regexp did not match")
	ErrCredentialsMissing     = errors.New("adafruit io credentials missing: set aio_username and aio_key in secrets")
	ErrPlaceholderCredentials = errors.New("secrets still contain placeholder credentials: update ssid and password")
	ErrContentLengthMissing   = errors.New("content-length missing from headers")
	ErrIncompleteDownload     = errors.New("download did not write a complete file")
	ErrDownloadStalled        = errors.New("download stalled")
)

// HTTPError is returned for replies other than 200 OK
type HTTPError struct {
	Code   int
	Reason string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("code %d: %s", e.Code, e.Reason)
}

// IOError is an Adafruit IO request failure
type IOError struct {
	Code    int
	Message string
}

func (e *IOError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("adafruit io request failed: code %d", e.Code)
	}
	return fmt.Sprintf("adafruit io request failed: code %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is an Adafruit IO 404
func IsNotFound(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr) && ioErr.Code == 404
}

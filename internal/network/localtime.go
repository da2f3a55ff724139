package network

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// timeFormat asks the time service for "%Y-%m-%d %H:%M:%S.%L %j %u %z %Z"
const timeFormat = "%Y-%m-%d %H:%M:%S.%L %j %u %z %Z"

func (n *Network) timeServiceURL(location string) string {
	q := url.Values{}
	q.Set("x-aio-key", n.secrets.AIOKey)
	if location != "" {
		q.Set("tz", location)
	}
	q.Set("fmt", timeFormat)
	return fmt.Sprintf("%s/api/v2/%s/integrations/time/strftime?%s",
		strings.TrimRight(n.ioBase, "/"), url.PathEscape(n.secrets.AIOUsername), q.Encode())
}

// GetLocalTime asks the Adafruit IO time service for the current time at
// location, e.g. "America/New_York". An empty location falls back to the
// secrets timezone, then to the location of the caller's IP address.
func (n *Network) GetLocalTime(ctx context.Context, location string) (time.Time, error) {
	if err := n.Connect(ctx); err != nil {
		return time.Time{}, err
	}
	if n.secrets.AIOUsername == "" || n.secrets.AIOKey == "" {
		return time.Time{}, errors.Wrap(ErrCredentialsMissing, "the time service requires an adafruit io account")
	}

	if location == "" {
		location = n.secrets.Timezone
	}
	if location != "" {
		n.log.Info("getting time for timezone", "timezone", location)
	} else {
		n.log.Info("getting time from ip address")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.timeServiceURL(location), nil)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "invalid time service url")
	}
	resp, err := n.exec.do(ctx, req, n.timeout)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "failed to reach the time service")
	}
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, &IOError{Code: resp.StatusCode, Message: strings.TrimSpace(resp.Text())}
	}
	n.log.Debug("time reply", "reply", resp.Text())

	t, err := ParseServiceTime(resp.Text())
	if err != nil {
		return time.Time{}, errors.Wrap(err, "unable to read the time, try setting timezone in secrets")
	}
	return t, nil
}

// ParseServiceTime parses a time service reply such as
// "2020-05-20 11:22:33.123 141 3 -0400 EDT".
func ParseServiceTime(reply string) (time.Time, error) {
	fields := strings.Fields(reply)
	if len(fields) < 2 {
		return time.Time{}, errors.Errorf("malformed time reply %q", reply)
	}

	loc := time.UTC
	if len(fields) >= 5 {
		offset, err := parseOffset(fields[4])
		if err != nil {
			return time.Time{}, err
		}
		name := fields[4]
		if len(fields) >= 6 {
			name = fields[5]
		}
		loc = time.FixedZone(name, offset)
	}

	t, err := time.ParseInLocation("2006-01-02 15:04:05", fields[0]+" "+strings.SplitN(fields[1], ".", 2)[0], loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "malformed time reply %q", reply)
	}
	if parts := strings.SplitN(fields[1], ".", 2); len(parts) == 2 {
		ms, err := strconv.Atoi(parts[1])
		if err != nil {
			return time.Time{}, errors.Errorf("malformed milliseconds in %q", reply)
		}
		t = t.Add(time.Duration(ms) * time.Millisecond)
	}
	if len(fields) >= 3 {
		yday, err := strconv.Atoi(fields[2])
		if err != nil || yday != t.YearDay() {
			return time.Time{}, errors.Errorf("day of year %q does not match %s", fields[2], fields[0])
		}
	}
	return t, nil
}

// parseOffset reads a "+hhmm" or "-hhmm" zone offset into seconds
func parseOffset(s string) (int, error) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0, errors.Errorf("malformed zone offset %q", s)
	}
	hh, err1 := strconv.Atoi(s[1:3])
	mm, err2 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil {
		return 0, errors.Errorf("malformed zone offset %q", s)
	}
	secs := hh*3600 + mm*60
	if s[0] == '-' {
		secs = -secs
	}
	return secs, nil
}

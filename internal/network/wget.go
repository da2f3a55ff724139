package network

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/fkcurrie/matrixportal-golang/internal/types"
)

// DefaultChunkSize is the Wget read size
const DefaultChunkSize = 12000

// Wget downloads url into filename, reading chunkSize bytes at a time. The
// reply must carry a Content-Length and the written file must match it.
// The download is aborted when no data arrives for the network timeout.
func (n *Network) Wget(ctx context.Context, url, filename string, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	n.log.Info("fetching stream", "url", url)
	n.SetStatus(types.StatusFetching)

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stall := time.AfterFunc(n.timeout, cancel)
	defer stall.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "invalid url %q", url)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.log.Debug("reply failed", "content_length", resp.Header.Get("Content-Length"), "date", resp.Header.Get("Date"))
		n.SetStatus(types.StatusHTTPError)
		return &HTTPError{Code: resp.StatusCode, Reason: reason(resp)}
	}
	n.log.Info("reply is ok", "url", url)
	n.SetStatus(types.StatusDataReceived)

	if resp.ContentLength < 0 {
		return ErrContentLengthMissing
	}
	contentLength := resp.ContentLength

	n.log.Info("saving data", "file", filename, "bytes", contentLength)
	stamp := time.Now()
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", filename)
	}

	buf := make([]byte, chunkSize)
	remaining := contentLength
	for remaining > 0 {
		if int64(len(buf)) > remaining {
			buf = buf[:remaining]
		}
		nr, rerr := io.ReadFull(resp.Body, buf)
		stall.Reset(n.timeout)
		if nr > 0 {
			n.SetStatus(types.StatusDownloading)
			if _, err := f.Write(buf[:nr]); err != nil {
				f.Close()
				return errors.Wrapf(err, "failed to write %s", filename)
			}
			remaining -= int64(nr)
			n.log.Debug("read chunk", "read", contentLength-remaining, "remaining", remaining)
			n.SetStatus(types.StatusFetching)
		}
		if rerr != nil {
			if err := parent.Err(); err != nil {
				f.Close()
				return err
			}
			if ctx.Err() != nil {
				f.Close()
				return errors.Wrapf(ErrDownloadStalled, "no data from %s for %s", url, n.timeout)
			}
			// short body, caught by the size check below
			break
		}
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", filename)
	}

	info, err := os.Stat(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", filename)
	}
	n.log.Info("created file", "file", filename, "bytes", info.Size(), "took", time.Since(stamp))
	n.SetStatus(types.StatusOff)
	if info.Size() != contentLength {
		return errors.Wrapf(ErrIncompleteDownload, "%s: got %d of %d bytes", filename, info.Size(), contentLength)
	}
	return nil
}

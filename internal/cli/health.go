package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/fkcurrie/matrixportal-golang/internal/status"
)

type healthReply struct {
	Status    string `json:"status"`
	URL       string `json:"url,omitempty"`
	Indicator string `json:"indicator,omitempty"`
	LocalFile bool   `json:"local_file"`
}

func healthHandler(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		reply := healthReply{
			Status:    "ok",
			URL:       a.portal.URL(),
			LocalFile: a.portal.Network.UsingLocalFile(),
		}
		if l, ok := a.status.(*status.Log); ok {
			reply.Indicator = status.Name(l.Current())
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	})
	return mux
}

// serveHealth serves the health endpoint until ctx is done
func serveHealth(ctx context.Context, addr string, a *app) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           healthHandler(a),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("health endpoint listening", "addr", addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "health server")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("failed to shut down health server", "error", err)
	}
	return ctx.Err()
}

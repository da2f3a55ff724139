package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/matrixportal-golang/internal/logger"
	"github.com/fkcurrie/matrixportal-golang/internal/network"
	"github.com/fkcurrie/matrixportal-golang/internal/types"
	"github.com/fkcurrie/matrixportal-golang/pkg/ledmatrix"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// localConfig writes a config whose data comes from a local file, so no
// network is needed
func localConfig(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	local := writeFile(t, dir, "local.txt", data)
	return writeFile(t, dir, "config.yaml", `
status:
  driver: log
network:
  local_file: `+local+`
portal:
  url: https://example.com/data.json
  json_path:
    - [rates, USD]
    - [name]
  fetch_interval: 0.01
  scroll_delay: 0.0001
  texts:
    - position: [0, 8]
    - scrolling: true
`)
}

func execute(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestParsePathFlag(t *testing.T) {
	cases := []struct {
		input string
		want  network.Path
	}{
		{"$.rates.USD", network.Expr("$.rates.USD")},
		{"rates.USD", network.Keys("rates", "USD")},
		{"0.text", network.Keys(0, "text")},
		{"items.-1", network.Keys("items", -1)},
		{"v1.007", network.Keys("v1", "007")},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parsePathFlag(c.input), c.input)
	}
}

func TestIOValue(t *testing.T) {
	assert.Equal(t, 42.5, ioValue("42.5"))
	assert.Equal(t, "on", ioValue("on"))
}

func TestFetchCommand(t *testing.T) {
	cfg := localConfig(t, `{"rates": {"USD": 1234.5}, "name": "bitcoin"}`)

	out, err := execute(context.Background(), "fetch", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "1234.5\nbitcoin\n", out)

	out, err = execute(context.Background(), "fetch", "--config", cfg, "--json-path", "$.name")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin\n", out)
}

func TestFetchCommandMissingPath(t *testing.T) {
	cfg := localConfig(t, `{"other": 1}`)
	_, err := execute(context.Background(), "fetch", "--config", cfg)
	assert.ErrorIs(t, err, network.ErrPathNotFound)
}

func TestMissingSecrets(t *testing.T) {
	cfg := localConfig(t, `{}`)
	_, err := execute(context.Background(), "fetch", "--config", cfg, "--secrets", filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBadConfig(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "config.json", `{"display": {"driver": "ws2812"}}`)
	_, err := execute(context.Background(), "fetch", "--config", cfg)
	assert.Error(t, err)
}

func TestScrollCommand(t *testing.T) {
	_, err := execute(context.Background(), "scroll", "HELLO", "WORLD", "--delay", "1us", "--color", "#00ff00")
	assert.NoError(t, err)

	_, err = execute(context.Background(), "scroll")
	assert.Error(t, err, "text is required")
}

func TestScrollCommandUsesConfiguredField(t *testing.T) {
	// the config's scrolling field is the second one, and it has no text
	cfg := localConfig(t, `{}`)
	_, err := execute(context.Background(), "scroll", "HELLO", "--config", cfg, "--delay", "1us", "--color", "#00ff00")
	assert.NoError(t, err)
}

func TestRunCommandStopsOnCancel(t *testing.T) {
	cfg := localConfig(t, `{"rates": {"USD": 1}, "name": "n"}`)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := execute(ctx, "run", "--config", cfg)
	assert.NoError(t, err)
}

func TestHealthHandler(t *testing.T) {
	cfg := localConfig(t, `{"rates": {"USD": 1}, "name": "n"}`)
	g := &globalFlags{configPath: cfg, secretsPath: filepath.Join(t.TempDir(), "secrets.json")}
	cmd := &cobra.Command{}
	cmd.Flags().String("secrets", "", "")
	cmd.SetErr(io.Discard)

	a, err := g.open(cmd)
	require.NoError(t, err)
	defer a.close()
	_, err = a.portal.Fetch(context.Background(), "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	healthHandler(a).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var reply healthReply
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reply))
	assert.Equal(t, "ok", reply.Status)
	assert.True(t, reply.LocalFile)
	assert.Equal(t, "https://example.com/data.json", reply.URL)
	assert.Equal(t, "connecting", reply.Indicator, "data received shares the connecting color")
}

func TestTestPattern(t *testing.T) {
	_, err := execute(context.Background(), "testpattern", "--hold", "1ms")
	assert.NoError(t, err)
}

type statusRecorder struct {
	colors []color.RGBA
}

func (r *statusRecorder) Fill(c color.RGBA) error {
	r.colors = append(r.colors, c)
	return nil
}

func (r *statusRecorder) Close() error { return nil }

func TestTestPatternShowsEveryStatusColor(t *testing.T) {
	fb, err := ledmatrix.NewFramebuffer(4, 2)
	require.NoError(t, err)
	rec := &statusRecorder{}
	a := &app{log: logger.Discard(), matrix: fb, status: rec}

	require.NoError(t, a.testPattern(context.Background(), time.Microsecond))
	require.Len(t, rec.colors, len(statusSequence)+1)
	assert.Equal(t, statusSequence, rec.colors[:len(statusSequence)])
	assert.Equal(t, types.StatusOff, rec.colors[len(statusSequence)])
}

func TestTestPatternPaintsFramebuffer(t *testing.T) {
	fb, err := ledmatrix.NewFramebuffer(4, 2)
	require.NoError(t, err)

	require.NoError(t, testPatterns[0].paint(fb, 4, 2))
	require.NoError(t, fb.Show())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, fb.Frame().RGBAAt(3, 1))

	require.NoError(t, testPatterns[3].paint(fb, 4, 2))
	require.NoError(t, fb.Show())
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, fb.Frame().RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{A: 255}, fb.Frame().RGBAAt(1, 0))
}

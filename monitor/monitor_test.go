// monitor_test.go - Tests fuer Ereignis-Datei und HTTP-Endpunkt
package monitor

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAppendsEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Scalar(1, "variational_lower_bound", 2.5))
	require.NoError(t, w.Scalar(2, "variational_lower_bound", 1.5))

	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].Step)
	assert.Equal(t, 2.5, events[0].Value)
	assert.Equal(t, int64(2), events[1].Step)
}

func TestWriterLatestKeepsLastValuePerName(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Scalar(1, "b_loss", 4))
	require.NoError(t, w.Scalar(2, "b_loss", 2))
	require.NoError(t, w.Scalar(2, "a_loss", 1))

	latest := w.Latest()
	require.Len(t, latest, 2)
	// sortiert nach Name, letzter Wert je Name
	assert.Equal(t, "a_loss", latest[0].Name)
	assert.Equal(t, "b_loss", latest[1].Name)
	assert.Equal(t, float64(2), latest[1].Value)
}

func TestMetricsEndpoint(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Scalar(3, "variational_lower_bound", 0.5))

	srv := httptest.NewServer(Routes(w))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Metrics []Event `json:"metrics"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Metrics, 1)
	assert.Equal(t, "variational_lower_bound", body.Metrics[0].Name)
	assert.Equal(t, 0.5, body.Metrics[0].Value)
}

func TestRootEndpoint(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	defer w.Close()

	srv := httptest.NewServer(Routes(w))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

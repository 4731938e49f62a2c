package trc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/mqtttester/core"
	"github.com/miladsoleymani/mqtttester/trc"
)

func TestReportResult(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/TestOperationResult", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := trc.New(srv.URL + "/")

	err := c.ReportResult(context.Background(), core.ReceiveSource,
		core.NewTestResult("t1", "b1", 42, created), core.TestTypeMessages, created)
	require.NoError(t, err)

	require.Equal(t, map[string]string{
		"source":    "genericMqttTester.receive",
		"result":    "t1;b1;42",
		"type":      "Messages",
		"createdAt": "2024-05-01T12:00:00Z",
	}, got)
}

func TestReportResult_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "coordinator overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := trc.New(srv.URL, trc.WithHTTPClient(srv.Client()))
	err := c.ReportResult(context.Background(), core.ReceiveSource,
		core.NewTestResult("t1", "b1", 1, time.Now()), core.TestTypeMessages, time.Now())
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Contains(t, err.Error(), "coordinator overloaded")
}

func TestReportResult_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := trc.New(url).ReportResult(context.Background(), core.ReceiveSource,
		core.NewTestResult("t1", "b1", 1, time.Now()), core.TestTypeMessages, time.Now())
	require.Error(t, err)
}

func TestReportResult_ThroughHandler(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := core.NewReportResultHandler(trc.New(srv.URL), "t1", "b1")
	err := h.Handle(context.Background(), core.ReceivedMessage{Payload: core.EncodeSequence(3, 4)})

	var reportErr *core.ReportResultError
	require.ErrorAs(t, err, &reportErr)
	require.Equal(t, 1, calls)
}

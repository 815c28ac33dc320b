package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStore_PutReport(t *testing.T) {
	var (
		method, path, contentType string
		body                      []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, contentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewReportStore(context.Background(), S3Config{
		Endpoint:     srv.URL,
		Region:       "us-east-1",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		Bucket:       "reports",
		UsePathStyle: true,
	})
	require.NoError(t, err)

	report := []byte(`{"date":"2026-07-01"}`)
	require.NoError(t, store.PutReport(context.Background(), "reports/performance/2026-07-01.json", report))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/reports/reports/performance/2026-07-01.json", path)
	assert.Equal(t, "application/json", contentType)
	assert.Contains(t, string(body), `"date":"2026-07-01"`)
}

func TestReportStore_PutReportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	}))
	defer srv.Close()

	store, err := NewReportStore(context.Background(), S3Config{
		Endpoint: srv.URL, Region: "us-east-1", AccessKey: "k", SecretKey: "s", Bucket: "reports", UsePathStyle: true,
	})
	require.NoError(t, err)

	err = store.PutReport(context.Background(), "reports/performance/x.json", []byte("{}"))
	assert.ErrorContains(t, err, "put reports/reports/performance/x.json")
}

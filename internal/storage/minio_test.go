package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauselens/internal/model"
)

func TestReportKey(t *testing.T) {
	at := time.Date(2026, 3, 7, 23, 30, 0, 0, time.FixedZone("PST", -8*3600))

	// Keys are dated in UTC
	assert.Equal(t, "reports/2026/03/08/run-123.json", ReportKey("run-123", at))
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://s3.example.com/reports-bucket/reports/a.json",
		ObjectURL(true, "s3.example.com", "reports-bucket", "reports/a.json"))
	assert.Equal(t, "http://localhost:9000/b/k.json",
		ObjectURL(false, "localhost:9000", "b", "k.json"))
}

func TestNew_RequiresEndpointAndBucket(t *testing.T) {
	_, err := New(context.Background(), model.StorageConfig{Bucket: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")

	_, err = New(context.Background(), model.StorageConfig{Endpoint: "localhost:9000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

package cloudwriter

import (
	"context"
	"testing"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWriterFactory(t *testing.T) {
	f := NewMemoryWriterFactory()
	w, err := f.NewWriter(context.Background(), "reports", "week=2024-01-01/data.json")
	require.NoError(t, err)

	_, err = w.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)

	_, ok := f.Object("reports/week=2024-01-01/data.json")
	assert.False(t, ok, "object must not exist before Close")

	require.NoError(t, w.Close())
	body, ok := f.Object("reports/week=2024-01-01/data.json")
	require.True(t, ok)
	assert.Equal(t, "hello world", string(body))
}

func TestS3WriterNeedsBucket(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	f, err := NewS3WriterFactory(context.Background(), models.CloudStorageConfig{
		Region:   "us-east-1",
		Endpoint: "http://localhost:9000",
	})
	require.NoError(t, err)

	_, err = f.NewWriter(context.Background(), "", "data.parquet")
	assert.Error(t, err)

	w, err := f.NewWriter(context.Background(), "reports", "data.parquet")
	require.NoError(t, err)
	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

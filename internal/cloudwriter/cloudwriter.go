package cloudwriter

import (
	"bytes"
	"context"
	"sync"
)

// CloudWriter buffers an object and uploads it on Close.
type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

type CloudWriterFactory interface {
	NewWriter(ctx context.Context, bucket, objectPath string) (CloudWriter, error)
}

// MemoryWriterFactory keeps closed objects in memory, keyed by
// "bucket/objectPath". It stands in for a bucket in tests and dry runs.
type MemoryWriterFactory struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewMemoryWriterFactory() *MemoryWriterFactory {
	return &MemoryWriterFactory{Objects: make(map[string][]byte)}
}

func (f *MemoryWriterFactory) NewWriter(_ context.Context, bucket, objectPath string) (CloudWriter, error) {
	return &memoryWriter{factory: f, key: bucket + "/" + objectPath}, nil
}

// Object returns a stored object and whether it exists.
func (f *MemoryWriterFactory) Object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.Objects[key]
	return body, ok
}

type memoryWriter struct {
	factory *MemoryWriterFactory
	key     string
	buffer  bytes.Buffer
}

func (w *memoryWriter) Write(data []byte) (int, error) {
	return w.buffer.Write(data)
}

func (w *memoryWriter) Close() error {
	w.factory.mu.Lock()
	defer w.factory.mu.Unlock()
	w.factory.Objects[w.key] = append([]byte(nil), w.buffer.Bytes()...)
	return nil
}

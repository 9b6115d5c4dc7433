package storage

import (
	"context"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector keeps objects in memory for local runs and tests.
type MockConnector struct {
	mu      sync.Mutex
	objects map[string][]byte
	logger  *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		objects: make(map[string][]byte),
		logger:  logger,
	}
}

func (m *MockConnector) Put(ctx context.Context, name string, data []byte) error {
	ctxzap.Info(ctx, "[MOCK] storing object",
		zap.String("object", name),
		zap.Int("size", len(data)),
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = append([]byte(nil), data...)
	return nil
}

func (m *MockConnector) Remove(ctx context.Context, names []string) error {
	ctxzap.Info(ctx, "[MOCK] removing objects", zap.Strings("objects", names))

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		delete(m.objects, name)
	}
	return nil
}

// Object returns the stored bytes for a name, for test assertions.
func (m *MockConnector) Object(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	return data, ok
}

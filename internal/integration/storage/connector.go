package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/courseqa/courseqa-backend/internal/config"
	"github.com/courseqa/courseqa-backend/internal/integration/common"
	pkghttp "github.com/courseqa/courseqa-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector talks to a Supabase-compatible object storage API. Raw document
// bytes live there, one object per registered file, keyed by the sanitized
// file name.
type Connector struct {
	config    config.StorageConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(cfg config.StorageConfig, logger *zap.Logger) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Put uploads an object, overwriting any previous generation so re-ingestion
// of a file name replaces its bytes.
// POST /object/{bucket}/{name} with x-upsert
func (c *Connector) Put(ctx context.Context, name string, data []byte) error {
	endpoint := fmt.Sprintf("/object/%s/%s", c.config.Bucket, url.PathEscape(name))

	ctxzap.Info(ctx, "uploading object to storage",
		zap.String("bucket", c.config.Bucket),
		zap.String("object", name),
		zap.Int("size", len(data)),
	)

	err := c.connector.DoBytesRequest(ctx, http.MethodPost, endpoint, data, "application/octet-stream", nil,
		pkghttp.WithHeader("x-upsert", "true"),
	)
	if err != nil {
		ctxzap.Error(ctx, "object upload failed", zap.Error(err))
		return fmt.Errorf("upload object %s: %w", name, err)
	}

	return nil
}

// Remove deletes objects by name.
// DELETE /object/{bucket} with {"prefixes": [...]}
func (c *Connector) Remove(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("/object/%s", c.config.Bucket)

	ctxzap.Info(ctx, "removing objects from storage",
		zap.String("bucket", c.config.Bucket),
		zap.Strings("objects", names),
	)

	body := map[string][]string{"prefixes": names}
	if err := c.connector.DoRequest(ctx, http.MethodDelete, endpoint, body, nil); err != nil {
		ctxzap.Error(ctx, "object removal failed", zap.Error(err))
		return fmt.Errorf("remove objects: %w", err)
	}

	return nil
}

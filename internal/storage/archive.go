package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sapiencia-analitica/matricula-portal/config"
	log "github.com/sirupsen/logrus"
)

const archiveTimeout = 15 * time.Second

// ExportArchive keeps a copy of every CSV export in object storage. Archiving
// is best-effort: the download is served regardless of archive failures.
type ExportArchive struct {
	backend ObjectStorage
}

// NewExportArchive builds an archive for the configured backend, or nil when
// archiving is disabled (backend "none" or unset).
func NewExportArchive(ctx context.Context, cfg config.ArchiveConfig) (*ExportArchive, error) {
	var backend ObjectStorage
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "minio":
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return &ExportArchive{backend: backend}, nil
}

// Save stores a CSV export under a date-prefixed key derived from the
// filename. Failures are logged and swallowed.
func (a *ExportArchive) Save(ctx context.Context, filename string, data []byte) {
	if a == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	key := fmt.Sprintf("%s/%s", time.Now().UTC().Format("2006-01-02"), filename)
	err := a.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "text/csv")
	if err != nil {
		log.WithError(err).WithField("key", key).
			Warn("archive: failed to store export copy")
	}
}

package internal_storage

import (
	"context"

	internal_recorder "github.com/teachermoments/moments/api/moment-api/internal/recorder"
	"github.com/teachermoments/moments/pkg/commons"
)

// BlobStore persists audio blobs under opaque keys and returns a remote
// reference for each stored blob.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

type blobUploadTransport struct {
	store  BlobStore
	logger commons.Logger
}

// NewUploadTransport adapts a BlobStore into the recorder flow's upload
// transport. The upload runs asynchronously and resolves the done callback
// exactly once with either the remote URL or the error.
func NewUploadTransport(store BlobStore, logger commons.Logger) internal_recorder.UploadTransport {
	return &blobUploadTransport{store: store, logger: logger}
}

func (t *blobUploadTransport) Upload(ctx context.Context, blob []byte, dest string, done func(remoteURL string, err error)) {
	go func() {
		url, err := t.store.Put(ctx, dest, blob)
		if err != nil {
			t.logger.Errorf("blob upload to %s failed: %v", dest, err)
			done("", err)
			return
		}
		done(url, nil)
	}()
}

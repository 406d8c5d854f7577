package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/corddisc/corddisc/backend"
)

const uploadChunk = 32 * 1024

// Upload implements backend.Blobs. Blobs are retrievable through Blob under
// a mem:// URL.
func (b *Backend) Upload(ctx context.Context, path string, r io.Reader, progress backend.Progress) (string, error) {
	var buf bytes.Buffer
	chunk := make([]byte, uploadChunk)
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", backend.ErrUploadFailed, err)
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if progress != nil {
				progress(int64(buf.Len()), -1)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", backend.ErrUploadFailed, err)
		}
	}
	total := int64(buf.Len())
	if progress != nil {
		progress(total, total)
	}
	b.mu.Lock()
	b.blobs[path] = buf.Bytes()
	b.mu.Unlock()
	return "mem://" + path, nil
}

// Blob returns a stored blob's bytes, for tests and the local demo mode.
func (b *Backend) Blob(path string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[path]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

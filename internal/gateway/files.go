package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// sniffLen is how much of a file is read to detect its type.
const sniffLen = 3072

// UploadFile stores content in blob storage under a fresh unique key and
// returns its public URL together with the original file name.
func (g *Gateway) UploadFile(ctx context.Context, fileName string, content io.Reader) (*models.UploadedFile, error) {
	if !g.configured {
		return nil, fmt.Errorf("upload file: %w", models.ErrConfigurationMissing)
	}

	mime, body, err := sniff(content)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	key := fmt.Sprintf("manuals/%s_%d.%s", uuid.NewString(), g.now().UnixMilli(), extension(fileName, mime))
	if err := g.blobs.Upload(ctx, key, body, mime.String()); err != nil {
		return nil, fmt.Errorf("%w: upload %s: %v", models.ErrBackendUnavailable, key, err)
	}

	g.logger.WithFields(log.Fields{
		"key":       key,
		"file_name": fileName,
		"mime":      mime.String(),
	}).Info("File uploaded")
	return &models.UploadedFile{FileURL: g.blobs.PublicURL(key), FileName: fileName}, nil
}

// OpenFile returns a stored file and its detected content type.
func (g *Gateway) OpenFile(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !g.configured {
		return nil, "", fmt.Errorf("open file: %w", models.ErrConfigurationMissing)
	}

	rc, err := g.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: open %s: %v", models.ErrBackendUnavailable, key, err)
	}

	mime, body, err := sniff(rc)
	if err != nil {
		_ = rc.Close()
		return nil, "", fmt.Errorf("%w: read %s: %v", models.ErrBackendUnavailable, key, err)
	}
	return readCloser{Reader: body, Closer: rc}, mime.String(), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// sniff detects the type of r from its first bytes and returns a reader
// that still yields the whole content.
func sniff(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, nil, err
	}
	head = head[:n]
	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), r), nil
}

func extension(fileName string, mime *mimetype.MIME) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext == "" {
		ext = strings.TrimPrefix(mime.Extension(), ".")
	}
	if ext == "" {
		ext = "bin"
	}
	return ext
}

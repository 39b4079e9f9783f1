package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// DefaultMaxUploadBytes caps an image upload when no limit is configured.
const DefaultMaxUploadBytes = 5 << 20

// Uploader stores an object and returns its public URL. DeleteObject must treat a
// missing object as success.
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	DeleteObject(ctx context.Context, object string) error
}

type uploadMetrics interface {
	IncMediaUpload(ok bool)
}

type productStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SetImage(ctx context.Context, id uuid.UUID, url string) error
}

// Service exposes product image upload.
type Service interface {
	UploadProductImage(ctx context.Context, productID uuid.UUID, filename string, body io.Reader) (string, error)
}

type service struct {
	store    Uploader
	products productStore
	metrics  uploadMetrics
	maxBytes int64
	logg     *logger.Logger
}

// NewService builds the media service. store may be nil when object storage is not
// configured; uploads then fail with NOT_CONFIGURED. metrics may be nil.
func NewService(store Uploader, products productStore, metrics uploadMetrics, maxBytes int64, logg *logger.Logger) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &service{store: store, products: products, metrics: metrics, maxBytes: maxBytes, logg: logg}, nil
}

// UploadProductImage validates the image, stores it under products/<id>/ and points
// the product at the resulting URL.
func (s *service) UploadProductImage(ctx context.Context, productID uuid.UUID, filename string, body io.Reader) (string, error) {
	if s.store == nil {
		return "", pkgerrors.New(pkgerrors.CodeNotConfigured, "image storage is not configured")
	}
	if body == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("image must be at most %d MB", s.maxBytes>>20)).
			WithDetails(map[string]any{"maxBytes": s.maxBytes})
	}

	contentType, ext, ok := sniffImage(data)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image must be "+allowedDescription).
			WithDetails(map[string]any{"detected": contentType})
	}

	key := objectKey(productID, ext)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"product_id": productID.String(),
		"object":     key,
		"file_name":  cleanFileName(filename),
		"bytes":      len(data),
	})
	url, err := s.store.Upload(ctx, key, contentType, bytes.NewReader(data))
	s.record(err == nil)
	if err != nil {
		s.logg.Error(ctx, "media.upload_failed", err)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image failed")
	}
	if err := s.products.SetImage(ctx, productID, url); err != nil {
		s.discard(ctx, key)
		return "", err
	}
	s.logg.Info(ctx, "media uploaded")
	return url, nil
}

// discard removes an object that no product points at.
func (s *service) discard(ctx context.Context, key string) {
	if err := s.store.DeleteObject(context.WithoutCancel(ctx), key); err != nil {
		s.logg.Error(ctx, "media.orphan_cleanup_failed", err)
		return
	}
	s.logg.Warn(ctx, "media.orphan_removed")
}

func (s *service) record(ok bool) {
	if s.metrics != nil {
		s.metrics.IncMediaUpload(ok)
	}
}

func objectKey(productID uuid.UUID, ext string) string {
	return fmt.Sprintf("products/%s/%s%s", productID, uuid.NewString(), ext)
}

func cleanFileName(name string) string {
	clean := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if clean == "." || clean == "/" {
		return ""
	}
	return clean
}

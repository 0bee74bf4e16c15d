package catphotos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MetadataRepo defines the interface for photo metadata persistence.
// Records are insert-once: a second Insert for the same (familyID, photoID)
// must fail with ErrConflict, never overwrite.
//
// All methods accept a context for cancellation and timeout control.
type MetadataRepo interface {
	// Insert writes a new metadata record. Returns ErrConflict when a record
	// with the same (FamilyID, PhotoID) already exists.
	Insert(ctx context.Context, rec PhotoRecord) error

	// Get retrieves a record by its composite key. Returns ErrNotFound when
	// no record exists for the pair.
	Get(ctx context.Context, familyID, photoID string) (PhotoRecord, error)

	// ListByFamily returns every record under the partition in sort-key
	// (PhotoID) descending order.
	ListByFamily(ctx context.Context, familyID string) ([]PhotoRecord, error)
}

// ObjectStore defines the interface for binary photo storage.
// Implementations can use S3 or the local filesystem backend.
type ObjectStore interface {
	// Put writes raw bytes directly to the store.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// PresignPut returns a time-limited URL granting a single upload of the
	// given content type to key.
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)

	// PresignGet returns a time-limited URL granting a read of key.
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// DefaultPresignTTL is how long presigned upload and download URLs stay valid.
const DefaultPresignTTL = 15 * time.Minute

// contentTypeExtensions maps known image MIME types to object key suffixes.
// Unknown types get no extension.
var contentTypeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/heic": ".heic",
	"image/heif": ".heif",
}

// ExtensionForContentType returns the object key extension for a MIME type,
// or "" when the type is unknown or empty.
func ExtensionForContentType(contentType string) string {
	return contentTypeExtensions[strings.ToLower(contentType)]
}

// ServiceConfig holds configuration options for PhotoService.
type ServiceConfig struct {
	PresignTTL time.Duration // Validity of presigned URLs (default: 15m)
}

// PhotoService combines the metadata repository and the object store into the
// operations the request router needs. It holds no per-request state and is
// safe for concurrent use.
type PhotoService struct {
	repo       MetadataRepo
	store      ObjectStore
	presignTTL time.Duration

	now   func() time.Time
	newID func() string
}

func NewPhotoService(repo MetadataRepo, store ObjectStore, cfg ServiceConfig) *PhotoService {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &PhotoService{
		repo:       repo,
		store:      store,
		presignTTL: ttl,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// ListPhotos returns every metadata record for the family, newest insertion
// first. Storage failures are returned unwrapped sentinel-wise; the gateway
// maps anything that is not a known sentinel to a 500.
func (s *PhotoService) ListPhotos(ctx context.Context, familyID string) ([]PhotoRecord, error) {
	recs, err := s.repo.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return recs, nil
}

// CreateUploadTarget reserves a new photo id and object key and returns a
// presigned upload URL for it. The metadata record is not written here; the
// caller records it after the upload completes.
func (s *PhotoService) CreateUploadTarget(ctx context.Context, familyID, contentType, title string) (UploadTarget, error) {
	photoID := s.newID()
	objectKey := familyID + "/" + photoID + ExtensionForContentType(contentType)

	uploadURL, err := s.store.PresignPut(ctx, objectKey, contentType, s.presignTTL)
	if err != nil {
		return UploadTarget{}, fmt.Errorf("create upload target %s: %w", objectKey, err)
	}

	return UploadTarget{
		PhotoID:          photoID,
		ObjectKey:        objectKey,
		UploadURL:        uploadURL,
		Title:            title,
		ContentType:      contentType,
		ExpiresInSeconds: int(s.presignTTL.Seconds()),
	}, nil
}

// PersistMetadata writes the metadata record for an uploaded photo.
// UploadedAt is set server-side and the insert-once constraint applies:
// a duplicate (familyID, photoID) pair yields ErrConflict.
func (s *PhotoService) PersistMetadata(ctx context.Context, familyID, photoID, objectKey string, details PhotoDetails) (PhotoRecord, error) {
	if photoID == "" || objectKey == "" {
		return PhotoRecord{}, fmt.Errorf("persist metadata: %w: photo id and object key are required", ErrInvalidInput)
	}

	rec := PhotoRecord{
		FamilyID:    familyID,
		PhotoID:     photoID,
		ObjectKey:   objectKey,
		UploadedAt:  s.now().UTC().Format(time.RFC3339),
		Title:       details.Title,
		Description: details.Description,
		ContentType: details.ContentType,
		TakenAt:     details.TakenAt,
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		return PhotoRecord{}, fmt.Errorf("persist metadata %s/%s: %w", familyID, photoID, err)
	}

	return rec, nil
}

// FetchDownloadTarget looks up a photo by its composite key and returns a
// presigned download URL for its stored object. A missing record or a record
// with no object key yields ErrNotFound.
func (s *PhotoService) FetchDownloadTarget(ctx context.Context, familyID, photoID string) (string, error) {
	rec, err := s.repo.Get(ctx, familyID, photoID)
	if err != nil {
		return "", fmt.Errorf("fetch download target %s/%s: %w", familyID, photoID, err)
	}
	if rec.ObjectKey == "" {
		return "", fmt.Errorf("fetch download target %s/%s: %w", familyID, photoID, ErrNotFound)
	}

	downloadURL, err := s.store.PresignGet(ctx, rec.ObjectKey, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("fetch download target %s/%s: %w", familyID, photoID, err)
	}
	return downloadURL, nil
}

// StoreBinary writes photo bytes straight to the object store. Only the
// multipart form upload path uses it; the JSON API uploads through presigned
// URLs instead.
func (s *PhotoService) StoreBinary(ctx context.Context, objectKey string, data []byte, contentType string) error {
	if err := s.store.Put(ctx, objectKey, data, contentType); err != nil {
		return fmt.Errorf("store binary %s: %w", objectKey, err)
	}
	return nil
}

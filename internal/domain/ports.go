package domain

import (
	"context"
	"io"
	"time"
)

type PropertyRepository interface {
	// Write paths
	CreateProperty(ctx context.Context, p *Property) error // sets p.ID; ErrDuplicateCode on code clash
	UpdateProperty(ctx context.Context, p Property) error
	DeleteProperty(ctx context.Context, id int64) error // removes images and infrastructure too
	SetActive(ctx context.Context, id int64, active bool) error
	SetHighlight(ctx context.Context, id int64, highlight bool) error
	InsertImages(ctx context.Context, propertyID int64, imgs []Image) error
	CreateInfrastructure(ctx context.Context, propertyID int64, in Infrastructure) error
	UpsertInfrastructure(ctx context.Context, propertyID int64, in Infrastructure) error
	// SetImageHighlight clears every highlight of the property and sets the
	// given image, atomically.
	SetImageHighlight(ctx context.Context, propertyID, imageID int64) error

	// Read paths
	GetPropertyByID(ctx context.Context, id int64) (Property, error)
	GetPropertyByCode(ctx context.Context, code string) (Property, error)
	GetImage(ctx context.Context, id int64) (Image, error)
	ListProperties(ctx context.Context) ([]Property, error)
	FindProperties(ctx context.Context, where Predicate, pg PageQuery) ([]Property, error)
	CountProperties(ctx context.Context, where Predicate) (int, error)
}

// MediaStore is the object storage holding property media.
type MediaStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (url string, err error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	PresignUpload(ctx context.Context, key string, expiry time.Duration) (string, error)
	URL(key string) string
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}

// LeadNotifier relays a lead message to the broker.
type LeadNotifier interface {
	SendText(ctx context.Context, to, body string) error
}

// MediaFile is one uploaded file of a property form.
type MediaFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

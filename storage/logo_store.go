package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// StoredObject describes an uploaded logo object.
type StoredObject struct {
	Key      string
	Location string
	ETag     string
}

// LogoStore хранит логотипы команд. Единственная реализация использует S3-совместимое
// хранилище (Cloudflare R2), но сервисный слой зависит только от интерфейса.
type LogoStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) (*StoredObject, error)
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// NewLogoKey builds a unique object key for a team logo. The uuid keeps an
// overwritten logo from being served from stale CDN caches under the old key.
func NewLogoKey(teamID int, ext string) string {
	return fmt.Sprintf("teams/%d/logo-%s%s", teamID, uuid.NewString(), ext)
}

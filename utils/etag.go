package utils

import (
	"crypto/sha1"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateETag derives a strong ETag from a document's id and its last
// update time, so conditional GETs can short-circuit unchanged reads.
// Derived state that can change without a write (such as a campaign's
// effective status flipping when its deadline passes) must be folded in
// through extra, otherwise revalidating clients keep a stale view.
func GenerateETag(id primitive.ObjectID, updatedAt time.Time, extra ...string) string {
	h := sha1.New()
	io.WriteString(h, id.Hex())
	io.WriteString(h, updatedAt.UTC().Format(time.RFC3339Nano))
	for _, e := range extra {
		io.WriteString(h, e)
	}
	return fmt.Sprintf(`"%x"`, h.Sum(nil)[:8])
}

// Package dedupe enforces at-most-once processing per physical document. The
// content hash is computed before any expensive work so a re-sent email or an
// overlapping batch never re-uploads or re-OCRs the same bytes.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/troyfry/workorder-reconciler/constants"
)

// Hit is the result of an already-processed lookup.
type Hit struct {
	Exists  bool
	FoundIn constants.FoundIn
	Ref     string // store-specific reference to the prior result
}

// Lookup is the collaborator that knows which hashes are fully processed.
type Lookup interface {
	Exists(ctx context.Context, fileHash string) (Hit, error)
}

// HashBytes returns the SHA-256 of the raw PDF bytes as lowercase hex. The
// same value keys dedup lookups and confirmed-document storage.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Guard short-circuits the pipeline for already-processed content.
type Guard struct {
	lookup Lookup
	logger *slog.Logger
}

func NewGuard(lookup Lookup, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{lookup: lookup, logger: logger}
}

// Check hashes the document and asks the store whether that hash was already
// fully handled.
func (g *Guard) Check(ctx context.Context, pdf []byte) (string, Hit, error) {
	hash := HashBytes(pdf)
	hit, err := g.lookup.Exists(ctx, hash)
	if err != nil {
		return hash, Hit{}, fmt.Errorf("dedup lookup: %w", err)
	}
	if hit.Exists {
		g.logger.Info("dedupe.hit", "file_hash", hash, "found_in", hit.FoundIn, "ref", hit.Ref)
	}
	return hash, hit, nil
}

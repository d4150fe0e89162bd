package ingest

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/troyfry/workorder-reconciler/constants"
)

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// rePageObj matches page objects but not the /Pages tree node.
var rePageObj = regexp.MustCompile(`/Type\s*/Page\b`)

// CountPages estimates the page count of a PDF by counting page objects. Good
// enough to drive the alternate-page OCR heuristic; a miscount only costs one
// extra or one skipped attempt.
func CountPages(pdf []byte) int {
	n := len(rePageObj.FindAll(pdf, -1))
	if n < 1 {
		return 1
	}
	return n
}

// SenderFromPath derives the sender key from an inbox layout of
// <root>/<senderKey>/<file>.pdf. Empty when the file sits directly in root.
func SenderFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

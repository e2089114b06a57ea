package constants

import "strings"

const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// FileTypes holds the source formats the page extractor understands.
var FileTypes = []string{PDF, IMAGE}

// AllowedExtensions holds the default allowed file extensions for ballot ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns PDF, IMAGE or "" for an extension with or without the dot.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png":
		return IMAGE
	default:
		return ""
	}
}

// MimeTypeForExt returns the MIME type sent to vision models.
func MimeTypeForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "png":
		return "image/png"
	case "pdf":
		return "application/pdf"
	default:
		return "image/jpeg"
	}
}

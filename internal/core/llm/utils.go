package llm

import (
	"encoding/base64"
	"net/http"
	"path/filepath"

	"github.com/joseph-ayodele/ballot-registry/constants"
)

// MaxVisionBytes caps the page image we are willing to send.
const MaxVisionBytes = 20 * 1024 * 1024

// DataURL encodes a page image for the image_url content part.
func DataURL(req PageRequest) string {
	mt := ImageMimeType(req)
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(req.Image)
}

// ImageMimeType prefers the declared type, then the file extension, then sniffing.
func ImageMimeType(req PageRequest) string {
	if req.MimeType != "" {
		return req.MimeType
	}
	if ext := filepath.Ext(req.SourceFile); constants.MapExtToFormat(ext) == constants.IMAGE {
		return constants.MimeTypeForExt(ext)
	}
	if len(req.Image) > 0 {
		if mt := http.DetectContentType(req.Image); mt == "image/png" || mt == "image/jpeg" {
			return mt
		}
	}
	return "image/jpeg"
}

package constants

import "strings"

// DefaultMaxUploadBytes is the client-side size ceiling. Anything larger
// is rejected before the registration service is ever contacted.
const DefaultMaxUploadBytes = 10 << 20 // 10 MiB

// AllowedExtensions holds the allowed file extensions for document upload.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tiff": {},
}

// ContentTypes maps normalized extensions to their declared content type.
var ContentTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"tiff": "image/tiff",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtAllowed reports whether the extension is on the upload allow list.
func ExtAllowed(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

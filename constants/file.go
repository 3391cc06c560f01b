package constants

import "strings"

// PDFMimeType is the only content type accepted for uploads.
const PDFMimeType = "application/pdf"

// MaxUploadBytes caps uploaded PDFs at 10MB.
const MaxUploadBytes = 10 << 20

// AllowedExtensions holds the file extensions accepted for processing.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

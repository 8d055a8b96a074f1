// Package petition validates uploaded petition files and records them.
package petition

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Size ceilings per media class
const (
	MaxDocumentSize = 10 << 20
	MaxImageSize    = 50 << 20
)

// Accepted media types
const (
	TypeText = "text/plain"
	TypePDF  = "application/pdf"
	TypeDOC  = "application/msword"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
)

var allowed = map[string]bool{
	TypeText: true,
	TypePDF:  true,
	TypeDOC:  true,
	TypeDOCX: true,
	TypeJPEG: true,
	TypePNG:  true,
}

// ValidationError is an input problem reported to the caller verbatim
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// FileInfo describes an uploaded file before anything is stored
type FileInfo struct {
	Name      string
	MediaType string
	Size      int64
}

// IsImage reports whether the media type is an image type
func (f FileInfo) IsImage() bool {
	return strings.HasPrefix(f.MediaType, "image/")
}

// NormalizeType lowercases a declared media type, drops parameters and
// resolves the image/jpg alias
func NormalizeType(mediaType string) string {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if mediaType == "image/jpg" || mediaType == "image/pjpeg" {
		return TypeJPEG
	}
	return mediaType
}

// SniffType detects the media type from content. Used when the client
// declares nothing useful.
func SniffType(data []byte) string {
	return NormalizeType(mimetype.Detect(data).String())
}

// ResolveType returns the declared type, or the sniffed type when the
// declared one is empty or generic
func ResolveType(declared string, data []byte) string {
	t := NormalizeType(declared)
	if t == "" || t == "application/octet-stream" {
		return SniffType(data)
	}
	return t
}

// ValidateUpload checks the file against the allow-list and size ceilings.
// It has no side effects.
func ValidateUpload(f FileInfo, userID string) error {
	if f.Name == "" {
		return invalid("No file uploaded")
	}
	if strings.TrimSpace(userID) == "" {
		return invalid("User ID is required")
	}

	mediaType := NormalizeType(f.MediaType)
	if !allowed[mediaType] {
		return invalid("Invalid file type: %s. Only PDF, DOCX, TXT, JPEG, and PNG files are allowed.", f.MediaType)
	}

	if f.Size <= 0 {
		return invalid("File is empty")
	}

	f.MediaType = mediaType
	if f.IsImage() {
		if f.Size > MaxImageSize {
			return invalid("File size exceeds 50MB limit")
		}
	} else if f.Size > MaxDocumentSize {
		return invalid("File size exceeds 10MB limit")
	}

	return nil
}

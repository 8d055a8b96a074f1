package petition

import (
	"fmt"
	"unicode/utf8"

	"github.com/ppiankov/casedesk/internal/extract"
)

// Text length limits
const (
	DescriptionRunes = 1000
	PreviewRunes     = 200
	MinContentChars  = 5
)

// ExtractText derives the display text for an upload. Plain text is decoded
// (HTML reduced to its visible text); other types get a placeholder until
// extraction runs.
func ExtractText(f FileInfo, data []byte) (string, error) {
	var text string

	switch mediaType := NormalizeType(f.MediaType); {
	case mediaType == TypeText:
		if !utf8.Valid(data) {
			return "", invalid("Failed to process file content")
		}
		text = string(data)
		if extract.LooksLikeHTML(text) {
			visible, err := extract.VisibleText(text)
			if err != nil {
				return "", invalid("Failed to process file content")
			}
			text = visible
		}
	case mediaType == TypePDF:
		text = fmt.Sprintf("[PDF File: %s] - Text extraction pending. File uploaded successfully for AI analysis.", f.Name)
	case mediaType == TypeDOC || mediaType == TypeDOCX:
		text = fmt.Sprintf("[DOCX File: %s] - Text extraction pending. File uploaded successfully for AI analysis.", f.Name)
	case f.IsImage() || mediaType == TypeJPEG || mediaType == TypePNG:
		text = fmt.Sprintf("[Image File: %s] - Image analysis and OCR processing pending. File uploaded successfully for AI analysis.", f.Name)
	}

	if extract.CountSignificant(text) < MinContentChars {
		return "", invalid("File appears to be empty or contains insufficient content")
	}

	return text, nil
}

// Description is the stored petition description
func Description(text string) string {
	return extract.Truncate(text, DescriptionRunes)
}

// Preview is the short content preview returned to the uploader
func Preview(text string) string {
	return extract.Truncate(text, PreviewRunes) + "..."
}

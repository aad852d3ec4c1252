package constants

import "strings"

// PDFMimeType is the only document type the extraction service accepts.
const PDFMimeType = "application/pdf"

// Export formats supported by the table writers.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// AllowedExtensions holds the file extensions accepted for analysis.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

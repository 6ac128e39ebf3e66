package excel

import (
	"path/filepath"
	"strings"
)

// Config holds configuration for the Excel opener
type Config struct {
	// FormattedValues makes Sheet.Value return the number-formatted text
	// Excel displays instead of the raw stored value.
	FormattedValues bool
}

// supportedExtensions are the formats excelize can open and save
var supportedExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

// validatePath checks that path names a workbook format we can round-trip
func validatePath(path string) error {
	if path == "" {
		return ErrMissingFilePath
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range supportedExtensions {
		if ext == supported {
			return nil
		}
	}
	return ErrInvalidFileFormat
}

package excel

import (
	"errors"
	"fmt"

	sheetsync "github.com/ideamans/go-sheetsync"
)

var (
	// ErrMissingFilePath is returned when file path is not specified
	ErrMissingFilePath = errors.New("file path is required")
	// ErrSheetNotFound is returned when the specified sheet doesn't exist
	ErrSheetNotFound = fmt.Errorf("excel: %w", sheetsync.ErrSheetNotFound)
	// ErrInvalidFileFormat is returned when the file is not a workbook excelize can write
	ErrInvalidFileFormat = errors.New("invalid Excel file format")
)

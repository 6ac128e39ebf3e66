package sheetsync

const (
	DefaultHeaderRow = 2 // row 1 holds the sheet title
)

// Mapping pairs a remote field with a spreadsheet column header
type Mapping struct {
	Remote string
	Column string
}

// Mappings is an ordered remote field -> header correspondence
type Mappings []Mapping

// Lookup returns the header mapped to a remote field
func (m Mappings) Lookup(remote string) (string, bool) {
	for _, mp := range m {
		if mp.Remote == remote {
			return mp.Column, true
		}
	}
	return "", false
}

// Headers returns the distinct headers in declaration order
func (m Mappings) Headers() []string {
	seen := make(map[string]bool, len(m))
	headers := make([]string, 0, len(m))
	for _, mp := range m {
		if !seen[mp.Column] {
			seen[mp.Column] = true
			headers = append(headers, mp.Column)
		}
	}
	return headers
}

// TableSpec describes how one remote table reconciles into one sheet
type TableSpec struct {
	Table                 string   // remote table name
	SpreadsheetPath       string   // live workbook path
	SheetName             string   // worksheet to update
	RelationField         string   // remote relation field
	RelationFieldMappings Mappings // remote relation field -> header
	FieldMappings         Mappings // remote field -> header, values copied
	HeaderRow             int      // default: DefaultHeaderRow
	DataStartRow          int      // default: HeaderRow + 1
	Filters               []Condition
}

// WithDefaults returns a copy with zero rows replaced by defaults
func (s TableSpec) WithDefaults() TableSpec {
	if s.HeaderRow <= 0 {
		s.HeaderRow = DefaultHeaderRow
	}
	if s.DataStartRow <= 0 {
		s.DataStartRow = s.HeaderRow + 1
	}
	return s
}

// RelationColumn returns the header the relation field maps to
func (s *TableSpec) RelationColumn() (string, error) {
	col, ok := s.RelationFieldMappings.Lookup(s.RelationField)
	if !ok {
		return "", &SpecError{
			Table:   s.Table,
			Field:   s.RelationField,
			Message: "relation field is not a key of relation_field_mappings",
			Err:     ErrRelationMappingMissing,
		}
	}
	return col, nil
}

// Validate checks everything that can be checked without the remote source
func (s *TableSpec) Validate() error {
	if s.Table == "" {
		return &SpecError{Message: "table name is required"}
	}
	if s.SpreadsheetPath == "" {
		return &SpecError{Table: s.Table, Message: "spreadsheet path is required"}
	}
	if s.SheetName == "" {
		return &SpecError{Table: s.Table, Message: "sheet name is required"}
	}
	if s.RelationField == "" {
		return &SpecError{Table: s.Table, Message: "relation field is required"}
	}
	if _, err := s.RelationColumn(); err != nil {
		return err
	}
	if s.HeaderRow < 1 {
		return &SpecError{Table: s.Table, Field: "header_row", Message: "must be at least 1"}
	}
	if s.DataStartRow <= s.HeaderRow {
		return &SpecError{Table: s.Table, Field: "data_start_row", Message: "must be below the header row"}
	}
	for _, mp := range s.FieldMappings {
		if mp.Remote == "" || mp.Column == "" {
			return &SpecError{Table: s.Table, Field: "field_mappings", Message: "empty field or column name"}
		}
	}
	if err := ValidateConditions(s.Filters); err != nil {
		return &SpecError{Table: s.Table, Field: "filters", Message: err.Error()}
	}
	return nil
}

package models

// ImportFormat represents the accepted upload formats
type ImportFormat string

const (
	ImportFormatXLSX ImportFormat = "xlsx"
	ImportFormatXLS  ImportFormat = "xls"
)

// ValidationError lists the field violations of one row
type ValidationError struct {
	Row      int      `json:"row"`
	Messages []string `json:"messages"`
}

// MappingError is a row that could not be translated into a backend record
type MappingError struct {
	Row     int    `json:"row"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

func (e MappingError) Error() string {
	return e.Message
}

// ImportRowError represents a backend error for a specific row
type ImportRowError struct {
	Row   int    `json:"row"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportCounts aggregates the backend outcome of a bulk import
type ImportCounts struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors"`
}

// ImportResult is the bulk import response returned by the catalog backend
type ImportResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Results ImportCounts `json:"results"`
}

// Partial reports a successful call that still failed some rows.
func (r ImportResult) Partial() bool {
	return r.Success && r.Results.Failed > 0
}

// BulkImportRequest is the payload sent to the catalog backend
type BulkImportRequest struct {
	Products []MappedProduct `json:"products"`
}

package source

// RawExpense is one line of an expense export. Amounts may be encoded as JSON
// numbers or strings, since exports from spreadsheet tooling often quote them.
type RawExpense struct {
	ID              string   `json:"id"`
	ProjectID       string   `json:"project_id"`
	Project         string   `json:"project"`
	Amount          flexNum  `json:"amount"`
	Currency        string   `json:"currency"`
	ConversionRate  *flexNum `json:"conversion_rate"`
	ConvertedAmount *flexNum `json:"converted_amount"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	RecordedAt      string   `json:"recorded_at"`
}

// DiscoveredFile represents an export file found during directory scanning.
type DiscoveredFile struct {
	Path    string
	Project string // project hint from the parent directory, "" at top level
}

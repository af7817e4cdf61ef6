package catalog

// Validation statuses.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
)

// ParsedCard is the defaulted view of a card shown before upload.
type ParsedCard struct {
	Name        string   `json:"name"`
	Author      string   `json:"author"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	FirstMes    string   `json:"first_mes"`
	Tags        []string `json:"tags"`
}

// Validation reports whether one uploaded file can become a catalog entry.
type Validation struct {
	FileName   string      `json:"fileName"`
	Size       int64       `json:"size"`
	Status     string      `json:"status"`
	Errors     []string    `json:"errors"`
	Warnings   []string    `json:"warnings"`
	ParsedData *ParsedCard `json:"parsedData,omitempty"`
}

// NewValidation returns a passing result with empty error and warning lists.
func NewValidation(fileName string, size int64) Validation {
	return Validation{
		FileName: fileName,
		Size:     size,
		Status:   StatusValid,
		Errors:   []string{},
		Warnings: []string{},
	}
}

// Fail records msg and marks the result invalid.
func (v *Validation) Fail(msg string) {
	v.Errors = append(v.Errors, msg)
	v.Status = StatusInvalid
}

// Warn records a non-fatal issue.
func (v *Validation) Warn(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

// Valid reports whether no errors were recorded.
func (v Validation) Valid() bool { return v.Status == StatusValid }

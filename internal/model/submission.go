package model

// DocumentSubmission represents one document provided for a case
type DocumentSubmission struct {
	Name          string            `json:"name"`                     // File name as uploaded
	Tag           string            `json:"tag,omitempty"`            // Uploader-assigned document tag
	ParsedContent string            `json:"parsed_content,omitempty"` // Extracted text, may be empty
	ExpiryDate    string            `json:"expiry_date,omitempty"`    // Raw expiry date as declared
	Fields        map[string]string `json:"fields,omitempty"`         // Optional extra fields
}

// HasExpiry reports whether the submission declares an expiry date
func (d DocumentSubmission) HasExpiry() bool {
	return d.ExpiryDate != ""
}

// CaseInput is the caller-supplied description of one case to classify
type CaseInput struct {
	CaseID      string               `json:"case_id"`
	Responsible string               `json:"responsible,omitempty"` // Party notified about blocking issues
	TaxID       string               `json:"tax_id,omitempty"`      // Company tax identifier (CNPJ)
	Fields      map[string]string    `json:"fields,omitempty"`
	Documents   []DocumentSubmission `json:"documents"`
}

// TaxIdentifier returns the case's tax identifier, falling back to the named field
func (c CaseInput) TaxIdentifier(field string) string {
	if c.TaxID != "" {
		return c.TaxID
	}
	if field == "" {
		return ""
	}
	return c.Fields[field]
}

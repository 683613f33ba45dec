package enums

import "fmt"

// DocumentType distinguishes a priced estimate from a final invoice.
type DocumentType string

const (
	DocumentTypeEstimate DocumentType = "estimate"
	DocumentTypeInvoice  DocumentType = "invoice"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeEstimate,
	DocumentTypeInvoice,
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocumentType.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentType converts raw input into a DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}

// NumberPrefix is the human-facing document number prefix.
func (d DocumentType) NumberPrefix() string {
	if d == DocumentTypeInvoice {
		return "INV"
	}
	return "EST"
}

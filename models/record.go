package models

import "strings"

// Sentinel values stand in for fields that could not be read, keeping every
// record the same width.
const (
	NotFound      = "Not found"
	TabNotFound   = "Tab not found"
	ErrorOccurred = "Error occurred"
	NotOnCard     = "Not available without detail page"
)

// Columns is the fixed output header, in field order.
var Columns = []string{
	"RERA Regd. No",
	"Project Name",
	"Promoter Name",
	"Address of the Promoter",
	"GST No",
}

// ProjectRecord is one extracted project registration. Every field is always
// set; absence is expressed with a sentinel value.
type ProjectRecord struct {
	RegulatoryID    string `json:"rera_regd_no"`
	ProjectName     string `json:"project_name"`
	PromoterName    string `json:"promoter_name"`
	PromoterAddress string `json:"promoter_address"`
	TaxID           string `json:"gst_no"`
}

// PromoterFallback builds a record whose three promoter fields all carry the
// same sentinel.
func PromoterFallback(regulatoryID, projectName, sentinel string) ProjectRecord {
	return ProjectRecord{
		RegulatoryID:    regulatoryID,
		ProjectName:     projectName,
		PromoterName:    sentinel,
		PromoterAddress: sentinel,
		TaxID:           sentinel,
	}
}

// Row returns the record's fields in Columns order.
func (r ProjectRecord) Row() []string {
	return []string{r.RegulatoryID, r.ProjectName, r.PromoterName, r.PromoterAddress, r.TaxID}
}

// HasSentinel reports whether any field holds a sentinel value.
func (r ProjectRecord) HasSentinel() bool {
	for _, v := range r.Row() {
		if IsSentinel(v) {
			return true
		}
	}
	return false
}

// IsSentinel reports whether v is one of the fixed placeholder values.
func IsSentinel(v string) bool {
	switch strings.TrimSpace(v) {
	case NotFound, TabNotFound, ErrorOccurred, NotOnCard, "":
		return true
	}
	return false
}

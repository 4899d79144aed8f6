package scraper

import (
	"fmt"

	"github.com/use-agent/rerascrape/engine"
)

// FieldLocatorSet is the cascade for one logical field. Locators are tried in
// order; the first non-empty text wins.
type FieldLocatorSet struct {
	Field    string
	Locators []engine.Locator
}

// listingStrategies enumerate project cards, most specific first.
var listingStrategies = []engine.Locator{
	engine.XPath("//div[contains(@class, 'project-card')]"),
	engine.XPath("//div[contains(@class, 'card') and contains(@class, 'project-card')]"),
	engine.XPath("//div[contains(@class, 'container')]/div[contains(@class, 'row')]/div[contains(@class, 'col-lg-4')]"),
	engine.XPath("//div[contains(@class, 'card')]"),
}

// viewDetailsControls find the control that opens a card's detail view.
var viewDetailsControls = []engine.Locator{
	engine.XPath(".//a[contains(text(), 'View Details')]"),
	engine.XPath(".//a[contains(@class, 'btn-primary') and contains(text(), 'View Details')]"),
	engine.XPath(".//a[contains(text(), 'details')]"),
	engine.XPath(".//a[contains(@class, 'btn')]"),
	engine.XPath(".//button[contains(text(), 'View')]"),
}

// promoterTabs find the "Promoter Details" tab on the detail page.
var promoterTabs = []engine.Locator{
	engine.XPath("//a[contains(text(), 'Promoter Details')]"),
	engine.XPath("//li/a[contains(text(), 'Promoter')]"),
	engine.XPath("//div[contains(@class, 'tab')]/a[contains(text(), 'Promoter')]"),
}

var (
	popupConfirm = engine.CSS("button.swal2-confirm.swal2-styled")
	detailRoot   = engine.CSS("body")
	firstAnchor  = engine.CSS("a")
)

// identityAttributes may carry a project's natural identifier.
var identityAttributes = []string{"data-id", "id", "data-project-id"}

// thCell locates the table cell next to a header containing label.
func thCell(label string) engine.Locator {
	return engine.XPath(fmt.Sprintf("//th[contains(text(), '%s')]/following-sibling::td", label))
}

func thCells(field string, labels ...string) FieldLocatorSet {
	set := FieldLocatorSet{Field: field}
	for _, l := range labels {
		set.Locators = append(set.Locators, thCell(l))
	}
	return set
}

// Detail page cascades.
var (
	detailRegulatoryID = thCells("regulatory_id", "RERA Regd. No")
	detailProjectName  = thCells("project_name", "Project Name")

	promoterName    = thCells("promoter_name", "Company Name", "Promoter Name", "Name of Promoter", "Company")
	promoterAddress = thCells("promoter_address", "Registered Office Address", "Office Address", "Address")
	promoterTaxID   = thCells("tax_id", "GST No", "GST Number", "GSTIN")
)

// Listing card cascades. They run against a static snapshot of the card, so
// only CSS locators apply; cascadia's :contains() stands in for the XPath
// text tests.
var (
	cardRegulatoryID = FieldLocatorSet{Field: "regulatory_id", Locators: []engine.Locator{
		engine.CSS("span.fw-bold"),
	}}
	cardProjectName = FieldLocatorSet{Field: "project_name", Locators: []engine.Locator{
		engine.CSS("h5.card-title"),
		engine.CSS(".card-title"),
	}}
	cardPromoter = FieldLocatorSet{Field: "promoter_name", Locators: []engine.Locator{
		engine.CSS("small"),
	}}
	cardAddress = FieldLocatorSet{Field: "promoter_address", Locators: []engine.Locator{
		engine.CSS(`label:contains("Address") ~ strong`),
	}}
	cardTaxID = FieldLocatorSet{Field: "tax_id", Locators: []engine.Locator{
		engine.CSS(`label:contains("GST") ~ strong`),
	}}
)

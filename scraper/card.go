package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/use-agent/rerascrape/engine"
	"github.com/use-agent/rerascrape/models"
)

// ReadCard builds a record from a listing card without leaving the listing.
// The card's HTML is read once and evaluated as a static snapshot. It
// returns nil when the card lacks a regulatory ID, project name or promoter.
// Errors come only from reading the live card, e.g. when it went stale.
func ReadCard(ctx context.Context, entry engine.Element) (*models.ProjectRecord, error) {
	html, err := entry.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read card html: %w", err)
	}
	snap, err := engine.NewSnapshot(html)
	if err != nil {
		return nil, err
	}

	regID := Extract(ctx, snap, cardRegulatoryID, 0, "")
	name := Extract(ctx, snap, cardProjectName, 0, "")
	promoter := trimByPrefix(Extract(ctx, snap, cardPromoter, 0, ""))
	if regID == "" || name == "" || promoter == "" {
		return nil, nil
	}

	return &models.ProjectRecord{
		RegulatoryID:    regID,
		ProjectName:     name,
		PromoterName:    promoter,
		PromoterAddress: Extract(ctx, snap, cardAddress, 0, models.NotFound),
		TaxID:           Extract(ctx, snap, cardTaxID, 0, models.NotOnCard),
	}, nil
}

// trimByPrefix drops the "by " the listing puts before promoter names.
func trimByPrefix(s string) string {
	if len(s) >= 3 && strings.EqualFold(s[:3], "by ") {
		return strings.TrimSpace(s[3:])
	}
	return s
}

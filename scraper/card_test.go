package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/rerascrape/engine"
	"github.com/use-agent/rerascrape/engine/enginetest"
	"github.com/use-agent/rerascrape/models"
)

func TestReadCard_AllFields(t *testing.T) {
	entry := enginetest.NewElement("").WithHTML(cardHTML(
		"RP/01/2023/00123", "Sunrise Heights", "Acme Infra Pvt Ltd",
		"Plot 12, Patia, Bhubaneswar", "21ABCDE1234F1Z5"))

	rec, err := ReadCard(context.Background(), entry)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.ProjectRecord{
		RegulatoryID:    "RP/01/2023/00123",
		ProjectName:     "Sunrise Heights",
		PromoterName:    "Acme Infra Pvt Ltd",
		PromoterAddress: "Plot 12, Patia, Bhubaneswar",
		TaxID:           "21ABCDE1234F1Z5",
	}, *rec)
	assert.False(t, rec.HasSentinel())
}

func TestReadCard_OptionalFieldsDefault(t *testing.T) {
	entry := enginetest.NewElement("").WithHTML(cardHTML("RP/01/2023/00124", "Lake View", "Orbit Homes", "", ""))

	rec, err := ReadCard(context.Background(), entry)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.NotFound, rec.PromoterAddress)
	assert.Equal(t, models.NotOnCard, rec.TaxID)
}

func TestReadCard_MissingRequiredField(t *testing.T) {
	for name, html := range map[string]string{
		"no regulatory id": cardHTML("", "Lake View", "Orbit Homes", "", ""),
		"no name":          cardHTML("RP/1", "", "Orbit Homes", "", ""),
		"no promoter":      cardHTML("RP/1", "Lake View", "", "", ""),
		"not a card":       `<div class="banner">Welcome</div>`,
	} {
		t.Run(name, func(t *testing.T) {
			rec, err := ReadCard(context.Background(), enginetest.NewElement("").WithHTML(html))
			require.NoError(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestReadCard_StaleEntry(t *testing.T) {
	entry := enginetest.NewElement("").WithHTML(cardHTML("RP/1", "A", "B", "", ""))
	entry.SetStale(true)

	_, err := ReadCard(context.Background(), entry)
	assert.True(t, engine.IsStale(err))
}

func TestTrimByPrefix(t *testing.T) {
	tests := map[string]string{
		"by Acme":    "Acme",
		"By  Acme":   "Acme",
		"BY Acme":    "Acme",
		"Bylane Ltd": "Bylane Ltd",
		"Acme":       "Acme",
		"by":         "by",
	}
	for in, want := range tests {
		if got := trimByPrefix(in); got != want {
			t.Errorf("trimByPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

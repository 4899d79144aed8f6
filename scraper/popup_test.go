package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/rerascrape/engine/enginetest"
)

func TestPopupDismisser_Dismiss(t *testing.T) {
	t.Run("clicks confirm", func(t *testing.T) {
		btn := enginetest.NewElement("OK")
		page := enginetest.NewPage("p").Set(popupConfirm, btn)

		assert.True(t, NewPopupDismisser(0).Dismiss(context.Background(), page, 0))
		assert.Equal(t, 1, btn.Clicks)
	})

	t.Run("no popup", func(t *testing.T) {
		page := enginetest.NewPage("p")
		assert.False(t, NewPopupDismisser(0).Dismiss(context.Background(), page, 0))
	})

	t.Run("covered button takes script click", func(t *testing.T) {
		btn := enginetest.NewElement("OK")
		btn.OnClick = func(ctx context.Context) error { return errors.New("intercepted") }
		btn.OnScriptClick = func(ctx context.Context) error { return nil }
		page := enginetest.NewPage("p").Set(popupConfirm, btn)

		assert.True(t, NewPopupDismisser(0).Dismiss(context.Background(), page, 0))
		assert.Equal(t, 1, btn.ScriptClicks)
	})

	t.Run("hidden button ignored", func(t *testing.T) {
		btn := enginetest.NewElement("OK")
		btn.Hidden = true
		page := enginetest.NewPage("p").Set(popupConfirm, btn)

		assert.False(t, NewPopupDismisser(0).Dismiss(context.Background(), page, 0))
		assert.Equal(t, 0, btn.Clicks)
	})
}

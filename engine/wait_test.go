package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubElement struct {
	Element
	text string
}

func TestPoll_ZeroTimeoutSingleAttempt(t *testing.T) {
	calls := 0
	_, err := Poll(context.Background(), CSS(".x"), 0, func(ctx context.Context) ([]Element, error) {
		calls++
		return nil, nil
	}, nil)

	assert.True(t, IsNotFound(err))
	assert.Equal(t, 1, calls)
}

func TestPoll_ReturnsFirstReady(t *testing.T) {
	a, b := &stubElement{text: "a"}, &stubElement{text: "b"}
	got, err := Poll(context.Background(), CSS(".x"), 0, func(ctx context.Context) ([]Element, error) {
		return []Element{a, b}, nil
	}, func(ctx context.Context, el Element) bool {
		return el.(*stubElement).text == "b"
	})

	require.NoError(t, err)
	assert.Same(t, b, got)
}

func TestPoll_RetriesUntilFound(t *testing.T) {
	calls := 0
	el := &stubElement{text: "late"}
	got, err := Poll(context.Background(), XPath("//a"), time.Second, func(ctx context.Context) ([]Element, error) {
		calls++
		if calls < 2 {
			return nil, ErrNotFound
		}
		return []Element{el}, nil
	}, nil)

	require.NoError(t, err)
	assert.Same(t, el, got)
	assert.Equal(t, 2, calls)
}

func TestPoll_StaleIsImmediate(t *testing.T) {
	calls := 0
	_, err := Poll(context.Background(), CSS(".x"), time.Minute, func(ctx context.Context) ([]Element, error) {
		calls++
		return nil, ErrStale
	}, nil)

	assert.True(t, IsStale(err))
	assert.Equal(t, 1, calls)
}

func TestPoll_ContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Poll(ctx, CSS(".x"), time.Minute, func(ctx context.Context) ([]Element, error) {
		return nil, nil
	}, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLocator_String(t *testing.T) {
	assert.Equal(t, "css:a.b", CSS("a.b").String())
	assert.Equal(t, "xpath://th", XPath("//th").String())
}

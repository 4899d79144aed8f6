package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/rerascrape/models"
)

func TestKey(t *testing.T) {
	a := Key("xpath://div", 0)
	assert.Len(t, a, 64)
	assert.Equal(t, a, Key("xpath://div", 0))
	assert.NotEqual(t, a, Key("xpath://div", 1))
	assert.NotEqual(t, a, Key("css:div", 0))
	// The separator keeps strategy and index from running together.
	assert.NotEqual(t, Key("s1", 23), Key("s12", 3))
}

func TestLedger_MarkSeen(t *testing.T) {
	l := NewLedger()
	k := Key("s", 1)

	assert.False(t, l.Seen(k))
	assert.True(t, l.MarkSeen(k))
	assert.False(t, l.MarkSeen(k))
	assert.True(t, l.Seen(k))
}

func TestLedger_Add(t *testing.T) {
	l := NewLedger()
	rec := models.ProjectRecord{RegulatoryID: "RP/1", ProjectName: "A"}

	assert.True(t, l.Add(rec))
	assert.False(t, l.Add(models.ProjectRecord{RegulatoryID: " RP/1 ", ProjectName: "B"}))
	assert.True(t, l.Add(models.ProjectRecord{RegulatoryID: "RP/2"}))

	// Sentinel IDs carry no identity.
	assert.True(t, l.Add(models.ProjectRecord{RegulatoryID: models.NotFound}))
	assert.True(t, l.Add(models.ProjectRecord{RegulatoryID: models.NotFound}))

	assert.Equal(t, 4, l.Len())
	assert.Equal(t, "A", l.Records()[0].ProjectName)
}

func TestLedger_RecordsIsCopy(t *testing.T) {
	l := NewLedger()
	l.Add(models.ProjectRecord{RegulatoryID: "RP/1"})

	recs := l.Records()
	recs[0].RegulatoryID = "changed"
	assert.Equal(t, "RP/1", l.Records()[0].RegulatoryID)
}

func TestLedger_Concurrent(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.MarkSeen(Key("s", i%10))
			l.Add(models.ProjectRecord{RegulatoryID: Key("id", i%5)})
			_ = l.Records()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, l.Len())
}

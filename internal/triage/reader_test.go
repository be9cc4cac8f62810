package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchReader_GetBatch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Merge([]Classification{
		classificationFor("a", CategoryActionRequired),
		classificationFor("b", CategoryActionRequired),
	}))

	r := NewBatchReader(s)

	batch, err := r.GetBatch("ACTION_REQUIRED", 0, 10)
	require.NoError(t, err)
	assert.Len(t, batch.Emails, 2)
	assert.Equal(t, 2, batch.TotalInCategory)
}

func TestBatchReader_RejectsUnknownCategory(t *testing.T) {
	r := NewBatchReader(newTestStore(t))

	_, err := r.GetBatch("NEWSLETTER", 0, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid category")
}

func TestBatchReader_ClampsLimit(t *testing.T) {
	s := newTestStore(t)
	var batch []Classification
	for i := 0; i < 25; i++ {
		batch = append(batch, classificationFor(string(rune('a'+i)), CategoryOther))
	}
	require.NoError(t, s.Merge(batch))

	r := NewBatchReader(s)

	page, err := r.GetBatch("OTHER", 0, 50)
	require.NoError(t, err)
	assert.Len(t, page.Emails, MaxBatchLimit)
}

package importer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTrackerBeginResets(t *testing.T) {
	job := NewJobTracker()

	collectionID := uint(7)
	require.NoError(t, job.Begin(&collectionID, "/music"))

	snap := job.Snapshot()
	assert.Equal(t, StatusStarting, snap.Status)
	assert.Equal(t, &collectionID, snap.CollectionID)
	assert.Equal(t, "/music", snap.RootPath)
	assert.Zero(t, snap.Total)
	assert.Empty(t, snap.ErrorList)
}

func TestJobTrackerRejectsConcurrentStart(t *testing.T) {
	job := NewJobTracker()
	require.NoError(t, job.Begin(nil, ""))

	assert.ErrorIs(t, job.Begin(nil, ""), ErrJobRunning)

	job.SetRunning()
	assert.ErrorIs(t, job.Begin(nil, ""), ErrJobRunning)

	job.Finish()
	assert.NoError(t, job.Begin(nil, ""))
}

func TestJobTrackerOnlyOneConcurrentBeginWins(t *testing.T) {
	job := NewJobTracker()

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- job.Begin(nil, "")
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

func TestJobTrackerCountersInvariant(t *testing.T) {
	job := NewJobTracker()
	require.NoError(t, job.Begin(nil, ""))
	job.SetRunning()
	job.SetTotal(10)

	for i := 0; i < 4; i++ {
		job.Imported()
	}
	for i := 0; i < 3; i++ {
		job.Updated()
	}
	job.Skipped()
	job.ErrorItem("broken directory")
	job.ErrorItem("unreadable tags")

	snap := job.Snapshot()
	assert.Equal(t, 4, snap.Imported)
	assert.Equal(t, 3, snap.Updated)
	assert.Equal(t, 1, snap.Skipped)
	assert.Equal(t, 2, snap.Errors)
	assert.Equal(t, snap.Imported+snap.Updated+snap.Skipped+snap.Errors, snap.Done)
	assert.LessOrEqual(t, snap.Done, snap.Total)
	assert.Len(t, snap.ErrorList, 2)
}

func TestJobTrackerErrorListCapped(t *testing.T) {
	job := NewJobTracker()
	require.NoError(t, job.Begin(nil, ""))

	for i := 0; i < 60; i++ {
		job.ErrorItem(fmt.Sprintf("error %d", i))
	}

	snap := job.Snapshot()
	assert.Equal(t, 60, snap.Errors)
	require.Len(t, snap.ErrorList, maxErrorList)
	// Oldest entries are dropped first.
	assert.Equal(t, "error 10", snap.ErrorList[0])
	assert.Equal(t, "error 59", snap.ErrorList[len(snap.ErrorList)-1])
}

func TestJobTrackerCancelFlow(t *testing.T) {
	job := NewJobTracker()
	require.NoError(t, job.Begin(nil, ""))
	job.SetRunning()

	assert.False(t, job.Cancelled())
	job.Cancel()
	assert.True(t, job.Cancelled())

	job.MarkCancelled()
	snap := job.Snapshot()
	assert.Equal(t, StatusCancelled, snap.Status)

	// A terminal job can be restarted.
	assert.NoError(t, job.Begin(nil, ""))
	assert.False(t, job.Cancelled())
}

func TestJobTrackerFail(t *testing.T) {
	job := NewJobTracker()
	require.NoError(t, job.Begin(nil, ""))
	job.Fail("roon connection lost")

	snap := job.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	require.Len(t, snap.ErrorList, 1)
	assert.Equal(t, "roon connection lost", snap.ErrorList[0])
}

func TestJobTrackerSnapshotIsACopy(t *testing.T) {
	job := NewJobTracker()
	require.NoError(t, job.Begin(nil, ""))
	job.ErrorItem("first")

	snap := job.Snapshot()
	job.ErrorItem("second")

	assert.Len(t, snap.ErrorList, 1)
	assert.Len(t, job.Snapshot().ErrorList, 2)
}

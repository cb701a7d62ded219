// Package importer implements the bulk album importers: the Roon
// library importer and the local file-tag scanner. Both report
// progress through a JobTracker that a polling endpoint reads.
package importer

import (
	"errors"
	"sync"
)

// ErrJobRunning is returned when a job of the same type is already
// active.
var ErrJobRunning = errors.New("a job is already running")

// Job states.
const (
	StatusIdle      = "idle"
	StatusStarting  = "starting"
	StatusRunning   = "running"
	StatusDone      = "done"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

// maxErrorList caps the number of retained per-item error messages;
// older entries are dropped first.
const maxErrorList = 50

// Snapshot is the point-in-time job state returned by the progress
// endpoints.
type Snapshot struct {
	Status          string   `json:"status"`
	Total           int      `json:"total"`
	Done            int      `json:"done"`
	Imported        int      `json:"imported"`
	Updated         int      `json:"updated"`
	Skipped         int      `json:"skipped"`
	Errors          int      `json:"errors"`
	ErrorList       []string `json:"error_list"`
	CollectionID    *uint    `json:"collection_id"`
	RootPath        string   `json:"root_path,omitempty"`
	CurrentItem     string   `json:"current_item,omitempty"`
	ChangesDetected int      `json:"changes_detected"`
}

// JobTracker holds the mutable state of a single background job. At
// most one job per tracker is active at a time; Begin enforces that.
type JobTracker struct {
	mu sync.Mutex

	status          string
	total           int
	done            int
	imported        int
	updated         int
	skipped         int
	errors          int
	errorList       []string
	collectionID    *uint
	rootPath        string
	currentItem     string
	changesDetected int
	cancelRequested bool
}

// NewJobTracker returns an idle tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{status: StatusIdle}
}

// Begin resets the tracker and moves it to starting. Returns
// ErrJobRunning when a job is already starting or running, so two
// concurrent start requests cannot both proceed.
func (j *JobTracker) Begin(collectionID *uint, rootPath string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status == StatusStarting || j.status == StatusRunning {
		return ErrJobRunning
	}
	j.status = StatusStarting
	j.total = 0
	j.done = 0
	j.imported = 0
	j.updated = 0
	j.skipped = 0
	j.errors = 0
	j.errorList = nil
	j.collectionID = collectionID
	j.rootPath = rootPath
	j.currentItem = ""
	j.changesDetected = 0
	j.cancelRequested = false
	return nil
}

// SetRunning marks the job as actively processing.
func (j *JobTracker) SetRunning() {
	j.mu.Lock()
	j.status = StatusRunning
	j.mu.Unlock()
}

// SetTotal records the number of items the job will process.
func (j *JobTracker) SetTotal(n int) {
	j.mu.Lock()
	j.total = n
	j.mu.Unlock()
}

// SetCurrent records the item currently being processed.
func (j *JobTracker) SetCurrent(item string) {
	j.mu.Lock()
	j.currentItem = item
	j.mu.Unlock()
}

// Imported counts one newly created album.
func (j *JobTracker) Imported() {
	j.mu.Lock()
	j.imported++
	j.done++
	j.mu.Unlock()
}

// Updated counts one refreshed existing album.
func (j *JobTracker) Updated() {
	j.mu.Lock()
	j.updated++
	j.done++
	j.mu.Unlock()
}

// Skipped counts one item that was not importable.
func (j *JobTracker) Skipped() {
	j.mu.Lock()
	j.skipped++
	j.done++
	j.mu.Unlock()
}

// ErrorItem counts one failed item and retains its message.
func (j *JobTracker) ErrorItem(msg string) {
	j.mu.Lock()
	j.errors++
	j.done++
	if len(j.errorList) >= maxErrorList {
		j.errorList = j.errorList[len(j.errorList)-maxErrorList+1:]
	}
	j.errorList = append(j.errorList, msg)
	j.mu.Unlock()
}

// Cancel requests cooperative cancellation; the running job checks
// Cancelled between items.
func (j *JobTracker) Cancel() {
	j.mu.Lock()
	j.cancelRequested = true
	j.mu.Unlock()
}

// Cancelled reports whether cancellation was requested.
func (j *JobTracker) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelRequested
}

// MarkCancelled moves the job to its terminal cancelled state.
func (j *JobTracker) MarkCancelled() {
	j.mu.Lock()
	j.status = StatusCancelled
	j.currentItem = ""
	j.mu.Unlock()
}

// Finish moves the job to done.
func (j *JobTracker) Finish() {
	j.mu.Lock()
	j.status = StatusDone
	j.currentItem = ""
	j.mu.Unlock()
}

// Fail moves the job to error, retaining the failure message.
func (j *JobTracker) Fail(msg string) {
	j.mu.Lock()
	j.status = StatusError
	j.currentItem = ""
	if len(j.errorList) >= maxErrorList {
		j.errorList = j.errorList[len(j.errorList)-maxErrorList+1:]
	}
	j.errorList = append(j.errorList, msg)
	j.mu.Unlock()
}

// ChangeDetected counts one filesystem change noticed after a scan.
func (j *JobTracker) ChangeDetected() {
	j.mu.Lock()
	j.changesDetected++
	j.mu.Unlock()
}

// CollectionID returns the target collection recorded at Begin.
func (j *JobTracker) CollectionID() *uint {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.collectionID
}

// Snapshot returns a copy of the current state.
func (j *JobTracker) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errorList))
	copy(errs, j.errorList)
	return Snapshot{
		Status:          j.status,
		Total:           j.total,
		Done:            j.done,
		Imported:        j.imported,
		Updated:         j.updated,
		Skipped:         j.skipped,
		Errors:          j.errors,
		ErrorList:       errs,
		CollectionID:    j.collectionID,
		RootPath:        j.rootPath,
		CurrentItem:     j.currentItem,
		ChangesDetected: j.changesDetected,
	}
}

// Package batch describes per-record outcomes of an index build.
package batch

// ItemStatus is the processing outcome of a single record.
type ItemStatus string

// Record status values.
const (
	StatusOK       ItemStatus = "ok"
	StatusDegraded ItemStatus = "degraded" // indexed without a vector
	StatusRejected ItemStatus = "rejected"
)

// Result is the outcome of indexing one record.
type Result struct {
	position int
	id       string
	status   ItemStatus
	err      error
}

// NewOK creates a result for a fully indexed record.
func NewOK(position int, id string) Result {
	return Result{position: position, id: id, status: StatusOK}
}

// NewDegraded creates a result for a record indexed without its semantic vector.
func NewDegraded(position int, id string, err error) Result {
	return Result{position: position, id: id, status: StatusDegraded, err: err}
}

// NewRejected creates a result for a record left out of the index.
func NewRejected(position int, id string, err error) Result {
	return Result{position: position, id: id, status: StatusRejected, err: err}
}

// Position returns the record's offset in the input.
func (r Result) Position() int { return r.position }

// ID returns the record identifier, possibly empty for rejected records.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Indexed reports whether the record made it into the snapshot.
func (r Result) Indexed() bool { return r.status != StatusRejected }

package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	SessionsImported int `json:"sessions_imported"`
	SessionsSkipped  int `json:"sessions_skipped"`
	SetsImported     int `json:"sets_imported"`

	// LogID is the import log row recording this run, 0 when none was written.
	LogID   int64  `json:"log_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Add accumulates other into r.
func (r *Result) Add(other *Result) {
	if other == nil {
		return
	}
	r.SessionsReceived += other.SessionsReceived
	r.SessionsImported += other.SessionsImported
	r.SessionsSkipped += other.SessionsSkipped
	r.SetsImported += other.SetsImported
}

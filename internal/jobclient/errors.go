package jobclient

import "fmt"

// maxDiagnosticBody bounds how much raw provider output is kept on errors.
const maxDiagnosticBody = 512

// SubmissionError means the job could not be created: a bad request, a
// rejected credential, or a payload with neither prompt nor image.
type SubmissionError struct {
	Reason     string
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("job submission failed: %s (http %d)", e.Reason, e.StatusCode)
	}
	return "job submission failed: " + e.Reason
}

// PollError means the provider reported a terminal status other than
// Pending or Ready for an accepted job.
type PollError struct {
	JobID       string
	Status      string
	RawResponse string
}

func (e *PollError) Error() string {
	return fmt.Sprintf("job %s ended with status %q", e.JobID, e.Status)
}

// FetchError means the job finished but the result asset could not be
// downloaded.
type FetchError struct {
	JobID      string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job %s: fetch result: %v", e.JobID, e.Err)
	}
	return fmt.Sprintf("job %s: fetch result: http %d", e.JobID, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TimeoutError means the job stayed Pending past the configured poll budget.
type TimeoutError struct {
	JobID string
	Polls int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s still pending after %d polls", e.JobID, e.Polls)
}

func truncate(b []byte) string {
	if len(b) > maxDiagnosticBody {
		return string(b[:maxDiagnosticBody])
	}
	return string(b)
}

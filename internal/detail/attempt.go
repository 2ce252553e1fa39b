package detail

import "time"

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetry
	outcomeFatal
)

// outcome classifies one attempt at a row: done, worth retrying (stale DOM,
// timeout, dismissed dialog), or not worth retrying (structural failure).
type outcome struct {
	kind   outcomeKind
	reason string
}

func succeed() outcome             { return outcome{kind: outcomeSuccess} }
func retry(reason string) outcome  { return outcome{kind: outcomeRetry, reason: reason} }
func failed(reason string) outcome { return outcome{kind: outcomeFatal, reason: reason} }

func (o outcome) ok() bool { return o.kind == outcomeSuccess }

// runAttempts loops f up to attempts times, pausing between retryable
// failures. It returns the last outcome; a retryable outcome on the final
// attempt is the terminal result. This replaces nested try/retry chains with
// one externally-bounded loop.
func runAttempts(attempts int, pause time.Duration, f func(attempt int) outcome) outcome {
	var last outcome
	for attempt := 1; attempt <= attempts; attempt++ {
		last = f(attempt)
		switch last.kind {
		case outcomeSuccess, outcomeFatal:
			return last
		}
		if attempt < attempts && pause > 0 {
			time.Sleep(pause)
		}
	}
	return last
}

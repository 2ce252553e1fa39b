package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrNoResults     = errors.New("no result tables on page")
	ErrNoRosterBlock = errors.New("roster section missing from panel")
	ErrRowOutOfRange = errors.New("row index beyond loaded rows")
)

// WaitTimeoutError reports that an element-visibility wait elapsed.
type WaitTimeoutError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("wait for %q timed out after %s: %v", e.Selector, e.Timeout, e.Err)
}

func (e *WaitTimeoutError) Unwrap() error { return e.Err }

// NavigationError reports a failed filter-selection step. Callers treat the
// affected (date, category) combination as empty and continue.
type NavigationError struct {
	Stage string // region, date, category, search, results
	Err   error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed at %s: %v", e.Stage, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ScriptError reports a failed injected-script invocation; callers fall back
// to a native click or retry.
type ScriptError struct {
	Script string
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script execution failed (%s): %v", e.Script, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// StaleElementError reports that the DOM re-rendered under an interaction.
// Retried by re-locating the row.
type StaleElementError struct {
	Err error
}

func (e *StaleElementError) Error() string {
	return fmt.Sprintf("element went stale: %v", e.Err)
}

func (e *StaleElementError) Unwrap() error { return e.Err }

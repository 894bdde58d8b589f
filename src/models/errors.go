package models

import "fmt"

var MissingCredentialsErr = fmt.Errorf("missing IG credentials: set IG_USERNAME, IG_PASSWORD, IG_API_KEY")

var NoDealReferenceErr = fmt.Errorf("no dealReference returned")

// ValidationError marks an instruction that was rejected before any broker
// call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid instruction: %s: %s", e.Field, e.Message)
}

// SubmissionError means every calling convention the submitter knows was
// tried against the broker and all of them were refused as malformed. It
// carries the last attempted payload for diagnostics.
type SubmissionError struct {
	Payload interface{}
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed after exhausting calling conventions: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

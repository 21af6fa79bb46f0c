package params

import "fmt"

// InvalidParameterError reports a ParameterSet field outside its domain.
type InvalidParameterError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Field, e.Value, e.Reason)
}

// CorruptParametersError reports a parameter file that is missing fields,
// malformed, or holds out-of-domain values.
type CorruptParametersError struct {
	Path   string
	Field  string
	Reason string
	Err    error
}

func (e *CorruptParametersError) Error() string {
	msg := "corrupt parameters file " + e.Path
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptParametersError) Unwrap() error {
	return e.Err
}

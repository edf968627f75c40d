package dataset

import "fmt"

// SchemaError indicates a malformed or inconsistent input header.
type SchemaError struct {
	Source string
	Msg    string
}

func (e *SchemaError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("schema error in %s: %s", e.Source, e.Msg)
	}
	return fmt.Sprintf("schema error: %s", e.Msg)
}

// ValidationError indicates a bad argument, such as an unparseable date or start > end.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("invalid arguments: %s", e.Msg)
}

// IOError wraps a failure to read an input file.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

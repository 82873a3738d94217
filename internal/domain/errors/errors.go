package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Sentinel errors for the storage engine's failure taxonomy.
// Every typed error below matches exactly one of these with errors.Is.
var (
	ErrIO               = stderrors.New("storage I/O failure")
	ErrSchemaMismatch   = stderrors.New("datum does not match table schema")
	ErrUnsupportedType  = stderrors.New("unsupported value type")
	ErrCorruptData      = stderrors.New("corrupt data")
	ErrNotFound         = stderrors.New("digest not found")
	ErrTableNotFound    = stderrors.New("table not found")
	ErrUnknownField     = stderrors.New("unknown field")
	ErrInvalidCondition = stderrors.New("invalid condition")
	ErrStoreLocked      = stderrors.New("store is locked by another process")
	ErrStoreClosed      = stderrors.New("store is closed")
)

// IOError wraps a failure at the storage layer (open, create, extend, write, sync).
// It is fatal to the triggering call only.
type IOError struct {
	Op   string // "open", "append", "sync", ...
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// NewIOError returns nil when err is nil so callers can wrap unconditionally.
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// SchemaMismatchError reports a datum that disagrees with its table's fixed schema.
// The datum is rejected as a whole; nothing from it is written.
type SchemaMismatchError struct {
	Table    string
	Field    string // empty for datum-level mismatches (field count, empty datum)
	Expected string
	Got      string
	Reason   string
}

func (e *SchemaMismatchError) Error() string {
	var parts []string

	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("schema mismatch in %s.%s", e.Table, e.Field))
	} else {
		parts = append(parts, fmt.Sprintf("schema mismatch in %s", e.Table))
	}

	if e.Expected != "" || e.Got != "" {
		parts = append(parts, fmt.Sprintf("expected %s, got %s", e.Expected, e.Got))
	}

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	return strings.Join(parts, " - ")
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// UnsupportedTypeError is raised when a value has no DbType mapping.
type UnsupportedTypeError struct {
	Field string
	Type  string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("field %q: unsupported type %s", e.Field, e.Type)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

// CorruptDataError reports a buffer or record that is short or malformed
// relative to its schema or on-disk format.
type CorruptDataError struct {
	Source string // table name or file path
	Offset int64  // -1 if unknown
	Reason string
}

func (e *CorruptDataError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("corrupt data in %s at offset %d: %s", e.Source, e.Offset, e.Reason)
	}
	return fmt.Sprintf("corrupt data in %s: %s", e.Source, e.Reason)
}

func (e *CorruptDataError) Is(target error) bool { return target == ErrCorruptData }

// NotFoundError reports a digest that is not a member of a value store category.
type NotFoundError struct {
	Category string
	Digest   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("digest %s not found in %s values", e.Digest, e.Category)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TableNotFoundError is returned when a query or schema load names an unknown table.
type TableNotFoundError struct {
	TableName string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %q not found", e.TableName)
}

func (e *TableNotFoundError) Is(target error) bool { return target == ErrTableNotFound }

// UnknownFieldError is returned when a condition names a field absent from the schema.
type UnknownFieldError struct {
	TableName string
	FieldName string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("field %q does not exist in table %q", e.FieldName, e.TableName)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrUnknownField }

// InvalidConditionError reports a condition with a bad operator or an operand
// that cannot be compared against the field's type.
type InvalidConditionError struct {
	FieldName string
	Operator  string
	Reason    string
}

func (e *InvalidConditionError) Error() string {
	return fmt.Sprintf("invalid condition %s %s: %s", e.FieldName, e.Operator, e.Reason)
}

func (e *InvalidConditionError) Is(target error) bool { return target == ErrInvalidCondition }

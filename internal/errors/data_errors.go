package errors

import (
	"fmt"
)

// SchemaError reports a required column missing from a source sheet. It is
// fatal: the load aborts before any computation runs.
type SchemaError struct {
	Sheet  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q: required column %q is missing", e.Sheet, e.Column)
}

// NewSchemaError creates a SchemaError for a sheet/column pair
func NewSchemaError(sheet, column string) *SchemaError {
	return &SchemaError{Sheet: sheet, Column: column}
}

// SheetNotFoundError reports that a sheet could not be located in the workbook
type SheetNotFoundError struct {
	Sheet string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found in workbook", e.Sheet)
}

// NewSheetNotFoundError creates a SheetNotFoundError
func NewSheetNotFoundError(sheet string) *SheetNotFoundError {
	return &SheetNotFoundError{Sheet: sheet}
}

// ValidationError reports a row whose values the model cannot represent, such
// as a negative quantity or rate. The row is excluded from the aggregates and
// surfaced in the quality report; it never fails a whole load.
type ValidationError struct {
	Sheet  string
	Row    int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sheet %q row %d: field %q: %s", e.Sheet, e.Row, e.Field, e.Reason)
}

// NewValidationError creates a row-level ValidationError
func NewValidationError(sheet string, row int, field, reason string) *ValidationError {
	return &ValidationError{Sheet: sheet, Row: row, Field: field, Reason: reason}
}

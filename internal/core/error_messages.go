package core

// error_messages.go maps technical errors to messages an uploader can act on.
//
// # Error Codes Reference
//
// Typed errors from the pipeline are matched first with errors.As / errors.Is
// so their messages can carry details such as the sheet name. Anything else
// falls through to a case-insensitive substring table.
//
// # Input Errors
//
//	SHEET001 - Worksheet not found in the workbook
//	           Action: Check the sheet name; it is case-sensitive
//
//	ROW001   - Sheet has no discriminator column
//	           Action: Add the ENTITYTYPE column to the header row
//
// # Output Errors
//
//	PKG001   - Archive could not be created
//	           Action: Please try again or contact support
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Unsupported file type (not a spreadsheet)
//	FILE003 - File could not be parsed
//	FILE004 - No file was selected
//	FILE005 - The uploaded file is empty
//	FILE006 - Download not found or expired
//
// # Conversion Errors (UPL001-UPL099)
//
//	UPL001 - Service is shutting down
//	UPL002 - Too many conversions in progress
//	UPL003 - Workspace could not be prepared
//	UPL004 - Request was cancelled
//	UPL005 - Request timed out
//
// # Rate Limiting
//
//	RATE001 - Too many requests
//
// # Default Error
//
//	ERR000 - Unknown error; check logs for the technical error
//
// When a user reports ERR000, look up the request_id in the logs.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/entityexport/internal/archive"
	"github.com/JonMunkholm/entityexport/internal/producer"
	"github.com/JonMunkholm/entityexport/internal/workspace"
	"github.com/JonMunkholm/entityexport/internal/worksheet"
)

// Input errors raised before the pipeline runs.
var (
	ErrNoFile              = errors.New("no file provided")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrWorkspace           = errors.New("workspace unavailable")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is consulted after the typed checks in MapError.
// First match wins, so specific patterns go first.
var errorPatterns = []errorPattern{
	{
		pattern: "zip: not a valid zip file",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Re-save the file as .xlsx, .xls or .csv and upload again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Re-save the file as .xlsx, .xls or .csv and upload again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "parse error on line",
		msg: UserMessage{
			Message: "The CSV file could not be parsed",
			Action:  "Ensure the file is comma-separated with quoted fields closed",
			Code:    "FILE003",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the sheet into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// sentinelMessages maps sentinel errors, matched with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrNoFile, UserMessage{"No file was selected", "Please select a spreadsheet to upload", "FILE004"}},
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the sheet into smaller files", "FILE001"}},
	{ErrUnsupportedFileType, UserMessage{"Unsupported file type", "Upload an .xlsx, .xls or .csv file", "FILE002"}},
	{worksheet.ErrEmptyFile, UserMessage{"The uploaded file is empty", "Please upload a spreadsheet with data rows", "FILE005"}},
	{workspace.ErrNotFound, UserMessage{"Download not found", "The archive may have expired. Please convert the file again", "FILE006"}},
	{workspace.ErrInvalidName, UserMessage{"Download not found", "Check the download link", "FILE006"}},
	{ErrShuttingDown, UserMessage{"Service is restarting", "Please try again in a few moments", "UPL001"}},
	{ErrTooManyConversions, UserMessage{"System is busy processing other conversions", "Please wait a moment and try again", "UPL002"}},
	{ErrWorkspace, UserMessage{"Output files could not be prepared", "Please try again or contact support", "UPL003"}},
	{ErrHistoryDisabled, UserMessage{"Conversion history is not enabled", "Set DATABASE_URL to record runs", "HIST001"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "UPL005"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := worksheet.Read(data, "Agents")
//	msg := MapError(err)
//	// msg.Code == "SHEET001"
//	// msg.Message == `Sheet "Agents" was not found in the workbook`
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var notFound *worksheet.SheetNotFoundError
	if errors.As(err, &notFound) {
		action := "Check the sheet name; it is case-sensitive"
		if len(notFound.Available) > 0 {
			action += ". Available sheets: " + strings.Join(notFound.Available, ", ")
		}
		return UserMessage{
			Message: fmt.Sprintf("Sheet %q was not found in the workbook", notFound.Name),
			Action:  action,
			Code:    "SHEET001",
		}
	}

	var malformed *producer.MalformedRowError
	if errors.As(err, &malformed) {
		return UserMessage{
			Message: fmt.Sprintf("The sheet has no %s column", malformed.Column),
			Action:  fmt.Sprintf("Add a %s column to the header row", malformed.Column),
			Code:    "ROW001",
		}
	}

	var packaging *archive.PackagingError
	if errors.As(err, &packaging) {
		return UserMessage{
			Message: "The download archive could not be created",
			Action:  "Please try again or contact support",
			Code:    "PKG001",
		}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

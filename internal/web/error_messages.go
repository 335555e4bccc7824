package web

// error_messages.go maps technical errors to user-facing messages with a
// code that users can quote to support.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Patterns: "file too large", "request body too large"
//	FILE002 - Not a CSV: Only .csv files can be normalized
//	          Patterns: "not a csv"
//	FILE004 - No file: No file was selected
//	          Patterns: "no file provided"
//	FILE005 - Empty file: The file has no header row
//	          Patterns: "empty file"
//	FILE006 - Invalid form: The upload form could not be read
//	          Patterns: "invalid form"
//
// # Normalization Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many normalizations in progress
//	         Patterns: "too many normalizations"
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Run Ledger Errors (RUN001-RUN099)
//
//	RUN001 - Run not found
//	         Patterns: "run not found"
//	RUN002 - Invalid run ID
//	         Patterns: "invalid run id"
//	RUN003 - Invalid limit
//	         Patterns: "invalid limit"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - An unexpected error occurred. Check server logs for the
//	         technical error using the request ID.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import "strings"

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "not a csv",
		msg: UserMessage{
			Message: "Only .csv files can be normalized",
			Action:  "Upload a semicolon-delimited file with a .csv extension",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid form",
		msg: UserMessage{
			Message: "The upload form could not be read",
			Action:  "Send the file as multipart/form-data in a field named \"file\"",
			Code:    "FILE006",
		},
	},

	// Normalization errors
	{
		pattern: "too many normalizations",
		msg: UserMessage{
			Message: "System is busy normalizing other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Run ledger errors
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "Run not found",
			Action:  "Check the run ID or list recent runs",
			Code:    "RUN001",
		},
	},
	{
		pattern: "invalid run id",
		msg: UserMessage{
			Message: "Run ID is not valid",
			Action:  "Use the id returned by /api/runs or the X-Run-ID header",
			Code:    "RUN002",
		},
	},
	{
		pattern: "invalid limit",
		msg: UserMessage{
			Message: "Limit must be a positive number",
			Action:  "Remove the limit parameter or use a value of 1 or more",
			Code:    "RUN003",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

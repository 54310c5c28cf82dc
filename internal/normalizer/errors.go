package normalizer

import "fmt"

// ErrorKind identifies a document-level parse failure. These abort the run;
// row-level defects are skipped and counted instead.
type ErrorKind string

const (
	UnsupportedFormat     ErrorKind = "UNSUPPORTED_FORMAT"
	MissingRequiredColumn ErrorKind = "MISSING_REQUIRED_COLUMN"
	EmptyFile             ErrorKind = "EMPTY_FILE"
	EncryptedDocument     ErrorKind = "ENCRYPTED_DOCUMENT"
	NoExtractableText     ErrorKind = "NO_EXTRACTABLE_TEXT"
	NoTransactionsFound   ErrorKind = "NO_TRANSACTIONS_FOUND"
)

// ParseError is a fatal, document-level failure with a user-facing message.
type ParseError struct {
	Kind    ErrorKind
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newParseError(kind ErrorKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsParseError unwraps err into a *ParseError if it is one.
func AsParseError(err error) (*ParseError, bool) {
	pe, ok := err.(*ParseError)
	return pe, ok
}

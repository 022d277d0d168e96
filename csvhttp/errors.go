package csvhttp

import "errors"

// Sentinel errors reported by the package, matched with errors.Is.
var (
	// ErrReadUnsupported is returned by [Converter.Read] unconditionally:
	// CSV messages are write-only.
	ErrReadUnsupported = errors.New("csvhttp: reading CSV messages is not supported")

	// ErrNilMessage rejects a nil message before any output.
	ErrNilMessage = errors.New("csvhttp: message is nil")

	// ErrNilSink rejects a nil response writer before any output.
	ErrNilSink = errors.New("csvhttp: response writer is nil")

	// ErrNoBlocks rejects a nil block list at message construction.
	ErrNoBlocks = errors.New("csvhttp: block list is nil")

	// ErrNilBlock rejects a message carrying a nil block entry.
	ErrNilBlock = errors.New("csvhttp: message contains a nil block")

	// ErrNilRows rejects a block without a row cursor.
	ErrNilRows = errors.New("csvhttp: block has no row cursor")

	// ErrRowsConsumed reports a row cursor that has already been
	// serialized once. Cursors are forward-only and non-restartable.
	ErrRowsConsumed = errors.New("csvhttp: row cursor already consumed")

	// ErrUnsupportedCharset reports a content-type charset the body
	// encoder cannot produce.
	ErrUnsupportedCharset = errors.New("csvhttp: unsupported charset")
)

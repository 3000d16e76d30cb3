package parser

import (
	"ndjaka/mineral-tax/internal/logging"
)

// BaseParser provides the logger and CSV delimiter shared by parser
// implementations. Parsers embed it:
//
//	type MyParser struct {
//		parser.BaseParser
//		// parser-specific fields
//	}
type BaseParser struct {
	logger    logging.Logger
	delimiter rune
}

// NewBaseParser creates a new BaseParser. A nil logger is replaced by a
// default logrus-backed one and a zero delimiter by ','.
func NewBaseParser(logger logging.Logger, delimiter rune) BaseParser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return BaseParser{
		logger:    logger,
		delimiter: delimiter,
	}
}

// SetLogger implements the LoggerConfigurable interface.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// GetLogger returns the current logger instance.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// Delimiter returns the CSV field separator.
func (b *BaseParser) Delimiter() rune {
	return b.delimiter
}

// Package parser defines the interfaces every fuel-entry source implements
// and the BaseParser that implementations embed.
package parser

import (
	"io"

	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/models"
)

// Parser reads fuel entries from a stream.
// Implementations return *parsererror.ParseError for rows that cannot be
// decoded and *parsererror.InvalidFormatError when the stream is not in the
// expected format at all.
type Parser interface {
	Parse(r io.Reader) ([]models.FuelEntry, error)
}

// FileParser reads fuel entries from a file path.
type FileParser interface {
	ParseFile(filePath string) ([]models.FuelEntry, error)
}

// Validator checks whether a file looks like something the parser understands.
type Validator interface {
	ValidateFormat(filePath string) (bool, error)
}

// LoggerConfigurable is implemented by parsers whose logger can be swapped.
type LoggerConfigurable interface {
	SetLogger(logger logging.Logger)
}

// FullParser combines every parser capability.
type FullParser interface {
	Parser
	FileParser
	Validator
	LoggerConfigurable
}

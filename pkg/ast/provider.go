package ast

import (
	"errors"
)

// ErrUnsupportedLanguage is returned when parsing a file with an unsupported language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language represents a source dialect.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangUnknown    Language = "unknown"
)

// Module is a parsed source file.
type Module struct {
	Path     string
	Language Language
	Source   []byte
	Program  *Program
}

// Provider abstracts the parser producing module trees.
type Provider interface {
	// Parse reads and parses the file at path.
	Parse(path string) (*Module, error)

	// ParseSource parses source already in memory.
	ParseSource(source []byte, lang Language, path string) (*Module, error)

	// Language returns the detected language for a file path.
	Language(path string) Language

	// Close releases provider resources.
	Close()
}

package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language represents a supported source dialect.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangUnknown    Language = "unknown"
)

// ErrFileTooLarge is returned by ParseFile when a file exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// Parser wraps a tree-sitter parser for the JavaScript family of grammars.
// A Parser is not safe for concurrent use; give each worker its own.
type Parser struct {
	parser      *sitter.Parser
	maxFileSize int64
}

// ParseResult contains the parsed tree and metadata.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxFileSize rejects files larger than size bytes. Zero disables the limit.
func WithMaxFileSize(size int64) Option {
	return func(p *Parser) {
		p.maxFileSize = size
	}
}

// New creates a new parser instance.
func New(opts ...Option) *Parser {
	p := &Parser{
		parser: sitter.NewParser(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile parses a source file and returns the tree.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	lang := DetectLanguage(path)
	if lang == LangUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}

	if p.maxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		if info.Size() > p.maxFileSize {
			return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, info.Size())
		}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return p.Parse(source, lang, path)
}

// Parse parses source code with a specified language.
func (p *Parser) Parse(source []byte, lang Language, path string) (*ParseResult, error) {
	return p.ParseCtx(context.Background(), source, lang, path)
}

// ParseCtx is Parse with a caller supplied context for cancellation.
func (p *Parser) ParseCtx(ctx context.Context, source []byte, lang Language, path string) (*ParseResult, error) {
	tsLang, err := GetTreeSitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	return &ParseResult{
		Tree:     tree,
		Language: lang,
		Source:   source,
		Path:     path,
	}, nil
}

// GetTreeSitterLanguage returns the tree-sitter language for a Language enum.
func GetTreeSitterLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".jsx":
		return LangTSX // JSX goes through the TSX grammar
	default:
		return LangUnknown
	}
}

// IsTypeScript reports whether the language carries TypeScript syntax.
func (l Language) IsTypeScript() bool {
	return l == LangTypeScript || l == LangTSX
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// Close releases the tree held by the result.
func (r *ParseResult) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

// FirstError returns the first ERROR or missing node in source order, or
// nil for a clean tree. Only subtrees that contain an error are visited.
func FirstError(node *sitter.Node) *sitter.Node {
	if node == nil || !node.HasError() {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := range int(node.ChildCount()) {
		if bad := FirstError(node.Child(i)); bad != nil {
			return bad
		}
	}
	return node
}

// GetNodeText returns the source slice covered by node, or "" when node is
// nil or its range falls outside source.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	lo, hi := node.StartByte(), node.EndByte()
	if lo > hi || hi > uint32(len(source)) {
		return ""
	}
	return string(source[lo:hi])
}

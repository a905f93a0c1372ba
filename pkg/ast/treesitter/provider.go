package treesitter

import (
	"errors"
	"fmt"

	"github.com/panbanda/esmdeps/pkg/ast"
	"github.com/panbanda/esmdeps/pkg/parser"
)

// ErrSyntax is returned for sources tree-sitter could not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// Provider implements ast.Provider using tree-sitter.
type Provider struct {
	parser *parser.Parser
}

// Option configures a Provider.
type Option func(*options)

type options struct {
	maxFileSize int64
}

// WithMaxFileSize rejects files larger than size bytes.
func WithMaxFileSize(size int64) Option {
	return func(o *options) {
		o.maxFileSize = size
	}
}

// New creates a new tree-sitter based provider. A Provider owns a single
// tree-sitter parser and is not safe for concurrent use.
func New(opts ...Option) *Provider {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Provider{
		parser: parser.New(parser.WithMaxFileSize(o.maxFileSize)),
	}
}

// Parse parses a file and lowers it to a module tree.
func (p *Provider) Parse(path string) (*ast.Module, error) {
	if p.Language(path) == ast.LangUnknown {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}
	result, err := p.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return lowerResult(result)
}

// ParseSource parses source held in memory.
func (p *Provider) ParseSource(source []byte, lang ast.Language, path string) (*ast.Module, error) {
	if lang == ast.LangUnknown || lang == "" {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}
	result, err := p.parser.Parse(source, parser.Language(lang), path)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return lowerResult(result)
}

// Language returns the detected language for a file path.
func (p *Provider) Language(path string) ast.Language {
	return ast.Language(parser.DetectLanguage(path))
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}

func lowerResult(result *parser.ParseResult) (*ast.Module, error) {
	root := result.Tree.RootNode()
	if bad := parser.FirstError(root); bad != nil {
		pos := bad.StartPoint()
		return nil, fmt.Errorf("%w: %s:%d:%d", ErrSyntax, result.Path, pos.Row+1, pos.Column+1)
	}

	l := &lowerer{src: result.Source}
	return &ast.Module{
		Path:     result.Path,
		Language: ast.Language(result.Language),
		Source:   result.Source,
		Program:  l.program(root),
	}, nil
}

var _ ast.Provider = (*Provider)(nil)

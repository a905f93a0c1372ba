// Package ast defines the module-level syntax tree the dependency walker
// consumes: top-level module items (imports, exports, declarations and
// opaque statements) with byte spans into the original source.
//
// The tree is intentionally shallow. Function and class bodies are kept as
// spans only, because dependency extraction never looks inside them beyond
// the parameter list needed to rewrite anonymous default exports.
//
// The Provider interface abstracts the parser producing the tree, so the
// walker can be driven from tree-sitter or from hand-built trees in tests.
//
// Usage:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	mod, err := provider.Parse("src/index.js")
//	if err != nil {
//	    return err
//	}
//
//	for _, item := range mod.Program.Body {
//	    fmt.Printf("%T at %v\n", item, item.Span())
//	}
package ast

package plugin

import (
	"github.com/panbanda/esmdeps/pkg/ast"
	"github.com/panbanda/esmdeps/pkg/dependency"
	"github.com/panbanda/esmdeps/pkg/javascript/parser"
)

// UseStrictPlugin removes a leading "use strict" directive; the generated
// module adds its own.
type UseStrictPlugin struct{}

// NewUseStrictPlugin creates the plugin.
func NewUseStrictPlugin() *UseStrictPlugin {
	return &UseStrictPlugin{}
}

func (*UseStrictPlugin) Name() string { return "use-strict" }

func (*UseStrictPlugin) Program(p *parser.Parser, program *ast.Program) parser.HookResult {
	if len(program.Body) == 0 {
		return parser.Unhandled
	}
	stmt, ok := program.Body[0].(*ast.ExprStmt)
	if !ok || !stmt.IsDirective("use strict") {
		return parser.Unhandled
	}
	p.AddPresentationalDependency(dependency.NewConstDependency(stmt.Range.Lo, stmt.Range.Hi, "", nil))
	p.BuildInfo().Strict = true
	return parser.Unhandled
}

var _ parser.ProgramHook = (*UseStrictPlugin)(nil)

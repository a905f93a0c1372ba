package plugin

import (
	"github.com/panbanda/esmdeps/pkg/ast"
	"github.com/panbanda/esmdeps/pkg/javascript/parser"
)

// HarmonyDetectionPlugin marks a module that uses import or export syntax
// as a strict ESM module.
type HarmonyDetectionPlugin struct{}

// NewHarmonyDetectionPlugin creates the plugin.
func NewHarmonyDetectionPlugin() *HarmonyDetectionPlugin {
	return &HarmonyDetectionPlugin{}
}

func (*HarmonyDetectionPlugin) Name() string { return "harmony-detection" }

func (*HarmonyDetectionPlugin) Program(p *parser.Parser, program *ast.Program) parser.HookResult {
	if !IsHarmonyModule(program) {
		return parser.Unhandled
	}
	meta := p.BuildMeta()
	meta.ExportsType = parser.ExportsTypeNamespace
	meta.StrictHarmonyModule = true
	p.BuildInfo().Strict = true
	return parser.Unhandled
}

// IsHarmonyModule reports whether any top-level item is a module declaration.
func IsHarmonyModule(program *ast.Program) bool {
	for _, item := range program.Body {
		if _, ok := item.(ast.ModuleDecl); ok {
			return true
		}
	}
	return false
}

var _ parser.ProgramHook = (*HarmonyDetectionPlugin)(nil)

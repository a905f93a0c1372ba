package plugin

import (
	"github.com/panbanda/esmdeps/pkg/javascript/parser"
)

// Default returns the plugins every module is walked with, in drive order.
func Default() []parser.Plugin {
	return []parser.Plugin{
		NewHarmonyDetectionPlugin(),
		NewUseStrictPlugin(),
		NewHarmonyImportPlugin(),
		NewHarmonyExportPlugin(),
	}
}

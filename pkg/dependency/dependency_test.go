package dependency

import (
	"encoding/json"
	"testing"

	"github.com/panbanda/esmdeps/pkg/ast"
	"github.com/panbanda/esmdeps/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGeneratorIsStable(t *testing.T) {
	a := NewIDGenerator("src/index.js")
	b := NewIDGenerator("src/index.js")
	other := NewIDGenerator("src/other.js")

	first, second := a.Next(), a.Next()
	assert.NotEqual(t, first, second)
	assert.Equal(t, first, b.Next())
	assert.Equal(t, second, b.Next())
	assert.NotEqual(t, first, other.Next())
	assert.NotZero(t, first)
}

func TestIDText(t *testing.T) {
	id := ID(0xabc)
	text, err := id.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "0000000000000abc", string(text))

	var decoded ID
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, id, decoded)

	assert.Error(t, decoded.UnmarshalText([]byte("zz")))
}

func TestMetaAssignsOnce(t *testing.T) {
	dep := &HarmonyExportSpecifierDependency{Name: "a", Value: "a"}
	assert.Zero(t, dep.ID())
	dep.AssignID(7)
	dep.AssignID(9)
	assert.Equal(t, ID(7), dep.ID())
}

func TestLocation(t *testing.T) {
	m := source.NewMap("a.js", []byte("x;\nexport * from './b';"))
	loc := NewLocation(ast.NewSpan(3, 23), m)
	assert.Equal(t, "a.js:2:1", loc.String())
	assert.Equal(t, ast.NewSpan(3, 23), loc.Span())
	assert.Equal(t, "3..23", Location{Start: 3, End: 23}.String())
}

func TestNamedSpecifierImportedName(t *testing.T) {
	assert.Equal(t, "a", NamedSpecifier{Orig: "a"}.ImportedName())
	assert.Equal(t, "b", NamedSpecifier{Orig: "a", Exported: StrPtr("b")}.ImportedName())
	assert.Equal(t, "ns", NamespaceSpecifier{Name: "ns"}.LocalName())
	assert.Equal(t, "d", DefaultSpecifier{Name: "d"}.LocalName())
}

func TestRecordJSON(t *testing.T) {
	dep := &HarmonyExportImportedSpecifierDependency{
		Request:     "./m",
		SourceOrder: 2,
		IDs:         []ExportID{{Exported: "ns"}},
		UsedIDs:     []ExportID{},
		Name:        StrPtr("ns"),
		Range:       Location{Start: 0, End: 24},
	}
	dep.AssignID(1)

	data, err := json.Marshal(dep)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "0000000000000001",
		"request": "./m",
		"source_order": 2,
		"ids": [{"exported": "ns"}],
		"used_ids": [],
		"name": "ns",
		"export_all": false,
		"range": {"start": 0, "end": 24},
		"export_presence_mode": "none"
	}`, string(data))
}

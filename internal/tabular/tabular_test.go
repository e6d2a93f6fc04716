package tabular_test

import (
	"testing"

	"github.com/estuarine/gateopt/internal/tabular"
	"github.com/stretchr/testify/require"
)

const barriersCSV = `id,name,region,cost
A,Alder Creek,Trident,120000
B,Bywater,Red Fork,60000
C,Crossing,Red Fork,85000.5
`

func TestParseKeyedTable(t *testing.T) {
	table, err := tabular.ParseString("barriers", barriersCSV)
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	require.Equal(t, []string{"id", "name", "region", "cost"}, table.Columns())
	require.Equal(t, []string{"A", "B", "C"}, table.Keys())

	row, ok := table.Lookup("B")
	require.True(t, ok)
	name, err := row.String("name")
	require.NoError(t, err)
	require.Equal(t, "Bywater", name)

	cost, err := row.Float("cost")
	require.NoError(t, err)
	require.Equal(t, 60000.0, cost)

	_, ok = table.Lookup("Z")
	require.False(t, ok)
}

func TestParseDuplicateKeyFatal(t *testing.T) {
	_, err := tabular.ParseString("barriers", "id,cost\nA,1\nA,2\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), `duplicate key "A"`)
}

func TestParseDuplicateColumnFatal(t *testing.T) {
	_, err := tabular.ParseString("barriers", "id,cost,cost\nA,1,2\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate column")
}

func TestParseEmptyPayloadFatal(t *testing.T) {
	_, err := tabular.ParseString("targets", "")
	require.Error(t, err)
}

func TestRequireColumns(t *testing.T) {
	table, err := tabular.ParseString("barriers", barriersCSV)
	require.NoError(t, err)

	require.NoError(t, table.Require("id", "cost"))
	err = table.Require("id", "passability")
	require.Error(t, err)
	require.Contains(t, err.Error(), `missing required column "passability"`)
}

func TestFloatRejectsLocaleSeparators(t *testing.T) {
	table, err := tabular.ParseString("run", "id,cost\nA,\"12,5\"\n")
	require.NoError(t, err)

	row, ok := table.Lookup("A")
	require.True(t, ok)
	_, err = row.Float("cost")
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed number")
}

func TestHeaderOnlyTableIsEmpty(t *testing.T) {
	table, err := tabular.ParseString("run", "id,cost\n")
	require.NoError(t, err)
	require.Equal(t, 0, table.Len())
	require.Empty(t, table.Rows())
}

package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(tdb, tt, tc, sdb, st, sc string) RawRow {
	return RawRow{
		TargetDB: tdb, TargetTable: tt, TargetColumn: tc,
		SourceDB: sdb, SourceTable: st, SourceColumn: sc,
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "w.orders", TableKey("w", "orders"))
	assert.Equal(t, "w.orders.total", FieldKey("w", "orders", "total"))
	assert.Equal(t, "w.orders", TableOf("w.orders.total"))
	assert.Equal(t, "nodot", TableOf("nodot"))
}

func TestBuild(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		idx := Build(nil)
		assert.Empty(t, idx.Tables())
		assert.Equal(t, 0, idx.Len())
		assert.Empty(t, idx.Fields("x.y"))
		assert.Empty(t, idx.Upstreams("x.y.z"))
	})

	t.Run("groups_rows_by_target_field", func(t *testing.T) {
		idx := Build([]RawRow{
			row("w", "orders", "total", "w", "items", "price"),
			row("w", "orders", "total", "w", "items", "qty"),
			row("w", "orders", "id", "s", "raw_orders", "id"),
		})

		assert.Equal(t, 2, idx.Len())
		assert.Equal(t, []string{"s.raw_orders", "w.items", "w.orders"}, idx.Tables())

		ups := idx.Upstreams("w.orders.total")
		require.Len(t, ups, 2)
		assert.Equal(t, "w.items.price", ups[0].FieldKey)
		assert.Equal(t, "w.items", ups[0].TableKey)
		assert.Equal(t, "w.items.qty", ups[1].FieldKey)
	})

	t.Run("keeps_duplicate_upstreams", func(t *testing.T) {
		a := row("w", "u", "c", "w", "src", "c")
		a.UnionBranch = "1"
		a.SQLFile = "u.sql"
		b := a
		b.UnionBranch = "2"

		idx := Build([]RawRow{a, b})

		ups := idx.Upstreams("w.u.c")
		require.Len(t, ups, 2)
		assert.Equal(t, "1", ups[0].UnionBranch)
		assert.Equal(t, "2", ups[1].UnionBranch)
		assert.Equal(t, "u.sql", ups[1].SQLFile)
	})

	t.Run("keys_are_case_sensitive", func(t *testing.T) {
		idx := Build([]RawRow{
			row("w", "T", "a", "w", "s", "a"),
			row("w", "t", "a", "w", "s", "a"),
		})
		assert.Equal(t, 2, idx.Len())
		assert.True(t, idx.HasTable("w.T"))
		assert.True(t, idx.HasTable("w.t"))
	})
}

func TestIndex_Fields(t *testing.T) {
	idx := Build([]RawRow{
		row("x", "y", "b", "p", "q", "2"),
		row("x", "y", "a", "p", "q", "1"),
		row("x", "y", "C", "p", "q", "3"),
		row("x", "z", "a", "x", "y", "a"),
	})

	fields := idx.Fields("x.y")
	require.Len(t, fields, 3)

	var cols, keys []string
	for _, f := range fields {
		cols = append(cols, f.Column)
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"a", "b", "C"}, cols)
	assert.Equal(t, []string{"x.y.a", "x.y.b", "x.y.C"}, keys)
	assert.Equal(t, "x.y", fields[0].TableKey)

	assert.Empty(t, idx.Fields("p.q"), "source-only table has no fields")
}

func TestIndex_Upstreams_Leaf(t *testing.T) {
	idx := Build([]RawRow{row("w", "orders", "total", "w", "items", "price")})

	assert.Empty(t, idx.Upstreams("w.items.price"))
	_, ok := idx.Lookup("w.items.price")
	assert.False(t, ok)

	rec, ok := idx.Lookup("w.orders.total")
	require.True(t, ok)
	assert.Equal(t, "total", rec.Column)
}

func TestIndex_TablesIsCopy(t *testing.T) {
	idx := Build([]RawRow{row("a", "b", "c", "d", "e", "f")})
	tables := idx.Tables()
	tables[0] = "mutated"
	assert.Equal(t, []string{"a.b", "d.e"}, idx.Tables())
}

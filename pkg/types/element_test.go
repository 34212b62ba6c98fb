package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manuscripta/apm/pkg/types"
)

func TestElementDiffEqual(t *testing.T) {
	saved := types.Element{ID: 7, Type: types.ELEMENT_LINE, PageID: 1, ColumnNumber: 1, Lang: "la", Seq: 0}

	moved := saved
	moved.Seq = 3
	moved.Items = []types.Item{{Type: types.ITEM_TEXT, Text: "changed"}}
	assert.True(t, types.ElementDiffEqual(saved, moved))

	other := saved
	other.ID = 8
	assert.False(t, types.ElementDiffEqual(saved, other))

	fresh := saved
	fresh.ID = 0
	assert.False(t, types.ElementDiffEqual(saved, fresh))
	assert.True(t, types.ElementDiffEqual(fresh, fresh))

	gloss := saved
	gloss.Type = types.ELEMENT_GLOSS
	assert.False(t, types.ElementDiffEqual(saved, gloss))
}

func TestItemDiffEqual(t *testing.T) {
	saved := types.Item{ID: 3, Type: types.ITEM_TEXT, Text: "verbum", Lang: "la"}

	assert.True(t, types.ItemDiffEqual(saved, types.Item{Type: types.ITEM_TEXT, Text: "verbum", Lang: "la"}))
	assert.False(t, types.ItemDiffEqual(saved, types.Item{ID: 4, Type: types.ITEM_TEXT, Text: "verbum", Lang: "la"}))
	assert.False(t, types.ItemDiffEqual(saved, types.Item{ID: 3, Type: types.ITEM_TEXT, Text: "sermo", Lang: "la"}))
}

func TestItemWithDefaults(t *testing.T) {
	e := types.Element{Lang: "he", HandID: 2}
	item := e.ItemWithDefaults(types.Item{Type: types.ITEM_TEXT})
	assert.Equal(t, "he", item.Lang)
	assert.Equal(t, 2, item.HandID)

	item = e.ItemWithDefaults(types.Item{Type: types.ITEM_TEXT, Lang: "la", HandID: 1})
	assert.Equal(t, "la", item.Lang)
	assert.Equal(t, 1, item.HandID)
}

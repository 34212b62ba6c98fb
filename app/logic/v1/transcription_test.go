package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/errors"
	"github.com/manuscripta/apm/pkg/types"
)

func TestUpdateColumnElements(t *testing.T) {
	f := setupFixture(t)
	logic := NewTranscriptionLogic(f.ctx, f.core)
	t1 := ts("2021-03-01 10:00:00")
	t2 := ts("2021-03-02 10:00:00")

	first := text("In principio")
	first.ID = -1
	ids, err := logic.UpdateColumnElements(f.pageID, 1, []types.Element{
		line(f, first, text("erat verbum")),
		line(f, text("et verbum erat")),
	}, t1)
	require.NoError(t, err)
	require.Contains(t, ids, int64(-1))

	before, err := logic.GetColumnElements(f.pageID, 1, t1)
	require.NoError(t, err)
	require.Len(t, before, 2)
	requireContiguous(t, before)
	assert.Equal(t, ids[-1], before[0].Items[0].ID)
	assert.Equal(t, "la", before[0].Items[0].Lang)

	t.Run("unchanged content writes nothing", func(t *testing.T) {
		_, err := logic.UpdateColumnElements(f.pageID, 1, before, t2)
		require.NoError(t, err)

		after, err := logic.GetColumnElements(f.pageID, 1, t2)
		require.NoError(t, err)
		require.Len(t, after, 2)
		for i := range after {
			assert.True(t, t1.Equal(after[i].ValidFrom))
			for j := range after[i].Items {
				assert.Equal(t, before[i].Items[j].ID, after[i].Items[j].ID)
				assert.True(t, t1.Equal(after[i].Items[j].ValidFrom))
			}
		}
	})

	t.Run("changed item gets a new id and history is kept", func(t *testing.T) {
		t3 := ts("2021-03-03 10:00:00")
		edited, err := logic.GetColumnElements(f.pageID, 1, t3)
		require.NoError(t, err)
		edited[1].Items[0].Text = "et verbum erat apud Deum"
		edited = append([]types.Element{line(f, text("Incipit"))}, edited...)

		_, err = logic.UpdateColumnElements(f.pageID, 1, edited, t3)
		require.NoError(t, err)

		current, err := logic.GetColumnElements(f.pageID, 1, t3)
		require.NoError(t, err)
		require.Len(t, current, 3)
		requireContiguous(t, current)
		assert.Equal(t, "Incipit", current[0].Items[0].Text)
		assert.Equal(t, before[0].ID, current[1].ID)
		assert.Equal(t, before[0].Items[0].ID, current[1].Items[0].ID)
		assert.Equal(t, before[1].ID, current[2].ID)
		assert.NotEqual(t, before[1].Items[0].ID, current[2].Items[0].ID)

		old, err := logic.GetColumnElements(f.pageID, 1, t2)
		require.NoError(t, err)
		require.Len(t, old, 2)
		assert.Equal(t, "et verbum erat", old[1].Items[0].Text)
	})

	t.Run("removing everything empties the column", func(t *testing.T) {
		t4 := ts("2021-03-04 10:00:00")
		_, err := logic.UpdateColumnElements(f.pageID, 1, nil, t4)
		require.NoError(t, err)

		current, err := logic.GetColumnElements(f.pageID, 1, t4)
		require.NoError(t, err)
		assert.Empty(t, current)
	})
}

func TestUpdateColumnElementsResolvesTemporaryIDs(t *testing.T) {
	f := setupFixture(t)
	logic := NewTranscriptionLogic(f.ctx, f.core)
	t1 := ts("2021-04-01 10:00:00")

	deletion := types.Item{ID: -10, Type: types.ITEM_DELETION, Text: "verbum", ExtraInfo: "strikeout"}
	addition := types.Item{ID: -11, Type: types.ITEM_ADDITION, Text: "sermo", ExtraInfo: "above", Target: -10}
	ids, err := logic.UpdateColumnElements(f.pageID, 1, []types.Element{
		line(f, text("In principio erat"), deletion, addition),
		{
			Type:         types.ELEMENT_SUBSTITUTION,
			Lang:         "la",
			EditorTid:    f.editorTid,
			Reference:    -10,
			Placement:    "margin left",
			Items:        []types.Item{text("logos")},
			PageID:       f.pageID,
			ColumnNumber: 1,
		},
	}, t1)
	require.NoError(t, err)

	elements, err := logic.GetColumnElements(f.pageID, 1, t1)
	require.NoError(t, err)
	require.Len(t, elements, 2)
	assert.Equal(t, ids[-10], elements[0].Items[1].ID)
	assert.Equal(t, ids[-10], elements[0].Items[2].Target)
	assert.Equal(t, ids[-10], elements[1].Reference)

	// 同样的内容用真实 id 提交不会改变任何条目
	t2 := ts("2021-04-02 10:00:00")
	_, err = logic.UpdateColumnElements(f.pageID, 1, elements, t2)
	require.NoError(t, err)
	again, err := logic.GetColumnElements(f.pageID, 1, t2)
	require.NoError(t, err)
	assert.Equal(t, elements[0].ItemIDs(), again[0].ItemIDs())
	assert.Equal(t, elements[1].Reference, again[1].Reference)
}

func TestUpdateColumnElementsKeepsIdentity(t *testing.T) {
	f := setupFixture(t)
	logic := NewTranscriptionLogic(f.ctx, f.core)
	t1 := ts("2021-06-01 10:00:00")

	_, err := logic.UpdateColumnElements(f.pageID, 1, []types.Element{line(f, text("alpha")), line(f, text("beta"))}, t1)
	require.NoError(t, err)
	before, err := logic.GetColumnElements(f.pageID, 1, t1)
	require.NoError(t, err)
	require.Len(t, before, 2)
	beta := before[1]

	t.Run("removing the first line", func(t *testing.T) {
		t2 := ts("2021-06-02 10:00:00")
		_, err := logic.UpdateColumnElements(f.pageID, 1, before[1:], t2)
		require.NoError(t, err)

		current, err := logic.GetColumnElements(f.pageID, 1, t2)
		require.NoError(t, err)
		require.Len(t, current, 1)
		requireContiguous(t, current)
		assert.Equal(t, beta.ID, current[0].ID)
		assert.Equal(t, beta.ItemIDs(), current[0].ItemIDs())
		assert.Equal(t, "beta", current[0].Items[0].Text)
	})

	t.Run("inserting a line with the same content", func(t *testing.T) {
		t3 := ts("2021-06-03 10:00:00")
		edited, err := logic.GetColumnElements(f.pageID, 1, t3)
		require.NoError(t, err)
		edited = append([]types.Element{line(f, text("beta"))}, edited...)

		_, err = logic.UpdateColumnElements(f.pageID, 1, edited, t3)
		require.NoError(t, err)

		current, err := logic.GetColumnElements(f.pageID, 1, t3)
		require.NoError(t, err)
		require.Len(t, current, 2)
		requireContiguous(t, current)
		assert.NotEqual(t, beta.ID, current[0].ID)
		assert.NotEqual(t, beta.ItemIDs(), current[0].ItemIDs())
		assert.Equal(t, beta.ID, current[1].ID)
		assert.Equal(t, beta.ItemIDs(), current[1].ItemIDs())
	})
}

func TestUpdateElementReplacesOnlyChangedItems(t *testing.T) {
	f := setupFixture(t)
	logic := NewTranscriptionLogic(f.ctx, f.core)
	t1 := ts("2021-06-10 10:00:00")
	t2 := ts("2021-06-11 10:00:00")

	_, err := logic.UpdateColumnElements(f.pageID, 1, []types.Element{
		line(f, types.Item{Type: types.ITEM_RUBRIC, Text: "Incipit"}, text("liber primus")),
	}, t1)
	require.NoError(t, err)
	before, err := logic.GetColumnElements(f.pageID, 1, t1)
	require.NoError(t, err)
	require.Len(t, before, 1)
	rubric, body := before[0].Items[0], before[0].Items[1]

	edited, err := logic.GetColumnElements(f.pageID, 1, t1)
	require.NoError(t, err)
	edited[0].Items = []types.Item{edited[0].Items[1], {Type: types.ITEM_SIC, Text: "prymus", AltText: "primus"}}
	_, err = logic.UpdateColumnElements(f.pageID, 1, edited, t2)
	require.NoError(t, err)

	current, err := logic.GetColumnElements(f.pageID, 1, t2)
	require.NoError(t, err)
	require.Len(t, current, 1)
	requireContiguous(t, current)
	assert.Equal(t, before[0].ID, current[0].ID)
	require.Len(t, current[0].Items, 2)
	assert.Equal(t, body.ID, current[0].Items[0].ID)
	sic := current[0].Items[1]
	assert.Equal(t, types.ITEM_SIC, sic.Type)
	assert.NotContains(t, []int64{rubric.ID, body.ID}, sic.ID)

	old, err := logic.GetColumnElements(f.pageID, 1, t1)
	require.NoError(t, err)
	assert.Equal(t, before[0].ItemIDs(), old[0].ItemIDs())
}

func TestUpdateColumnElementsRewritesAdditionTargets(t *testing.T) {
	f := setupFixture(t)
	logic := NewTranscriptionLogic(f.ctx, f.core)
	t1 := ts("2021-07-01 10:00:00")

	deletion := types.Item{ID: -1, Type: types.ITEM_DELETION, Text: "verbum", ExtraInfo: "strikeout"}
	addition := types.Item{Type: types.ITEM_ADDITION, Text: "sermo", ExtraInfo: "above", Target: -1}
	_, err := logic.UpdateColumnElements(f.pageID, 1, []types.Element{
		line(f, text("In principio erat"), deletion),
		line(f, text("et"), addition),
	}, t1)
	require.NoError(t, err)
	before, err := logic.GetColumnElements(f.pageID, 1, t1)
	require.NoError(t, err)
	require.Len(t, before, 2)
	oldDeletion, oldAddition := before[0].Items[1], before[1].Items[1]
	require.Equal(t, oldDeletion.ID, oldAddition.Target)

	t.Run("target re-created in an earlier line", func(t *testing.T) {
		t2 := ts("2021-07-02 10:00:00")
		edited, err := logic.GetColumnElements(f.pageID, 1, t1)
		require.NoError(t, err)
		edited[0].Items[1].Text = "verbo"

		ids, err := logic.UpdateColumnElements(f.pageID, 1, edited, t2)
		require.NoError(t, err)

		current, err := logic.GetColumnElements(f.pageID, 1, t2)
		require.NoError(t, err)
		newDeletion := current[0].Items[1]
		assert.NotEqual(t, oldDeletion.ID, newDeletion.ID)
		assert.Equal(t, newDeletion.ID, ids[oldDeletion.ID])
		assert.Equal(t, oldAddition.ID, current[1].Items[1].ID)
		assert.Equal(t, newDeletion.ID, current[1].Items[1].Target)

		old, err := logic.GetColumnElements(f.pageID, 1, t1)
		require.NoError(t, err)
		assert.Equal(t, oldDeletion.ID, old[1].Items[1].Target)
	})

	t.Run("addition and target both move", func(t *testing.T) {
		t3 := ts("2021-07-03 10:00:00")
		edited, err := logic.GetColumnElements(f.pageID, 1, t3)
		require.NoError(t, err)
		require.Len(t, edited, 2)
		movedDeletion := edited[0].Items[1]
		edited[0].Items = edited[0].Items[:1]
		edited[1].Items = append([]types.Item{movedDeletion}, edited[1].Items...)
		edited = append([]types.Element{line(f, text("Incipit"))}, edited...)

		ids, err := logic.UpdateColumnElements(f.pageID, 1, edited, t3)
		require.NoError(t, err)

		current, err := logic.GetColumnElements(f.pageID, 1, t3)
		require.NoError(t, err)
		require.Len(t, current, 3)
		requireContiguous(t, current)
		assert.Equal(t, before[0].ID, current[1].ID)
		assert.Equal(t, before[1].ID, current[2].ID)

		require.Len(t, current[2].Items, 3)
		target, add := current[2].Items[0], current[2].Items[2]
		assert.Equal(t, types.ITEM_DELETION, target.Type)
		assert.Equal(t, ids[movedDeletion.ID], target.ID)
		assert.Equal(t, oldAddition.ID, add.ID)
		assert.Equal(t, target.ID, add.Target)
	})
}

func TestUpdateColumnElementsValidation(t *testing.T) {
	f := setupFixture(t)
	logic := NewTranscriptionLogic(f.ctx, f.core)
	now := bitemporal.Now()

	cases := []struct {
		name    string
		element types.Element
		column  int
	}{
		{name: "column beyond page", element: line(f, text("a")), column: 3},
		{name: "editor is not a user", element: func() types.Element { e := line(f, text("a")); e.EditorTid = f.guestTid; return e }(), column: 1},
		{name: "language not allowed", element: func() types.Element { e := line(f, text("a")); e.Lang = "xx"; return e }(), column: 1},
		{name: "empty line", element: line(f), column: 1},
		{name: "unknown item type", element: line(f, types.Item{Type: types.ItemType(99)}), column: 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := logic.UpdateColumnElements(f.pageID, c.column, []types.Element{c.element}, now)
			requireCode(t, err, http.StatusBadRequest)
		})
	}

	gap := types.Element{Type: types.ELEMENT_LINE_GAP, Lang: "la", EditorTid: f.editorTid}
	_, err := logic.UpdateColumnElements(f.pageID, 2, []types.Element{gap}, now)
	require.NoError(t, err)
}

func TestInsertAndDeleteElement(t *testing.T) {
	f := setupFixture(t)
	logic := NewTranscriptionLogic(f.ctx, f.core)
	t1 := ts("2021-05-01 10:00:00")
	t2 := ts("2021-05-02 10:00:00")
	t3 := ts("2021-05-03 10:00:00")

	ids := make(IDMap)
	for _, s := range []string{"alpha", "gamma"} {
		_, err := logic.InsertNewElement(line(f, text(s)), true, ids, t1)
		require.NoError(t, err)
	}

	middle := line(f, text("beta"))
	middle.Seq = 1
	betaID, err := logic.InsertNewElement(middle, false, ids, t2)
	require.NoError(t, err)

	elements, err := logic.GetColumnElements(f.pageID, 1, t2)
	require.NoError(t, err)
	require.Len(t, elements, 3)
	requireContiguous(t, elements)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, []string{elements[0].Items[0].Text, elements[1].Items[0].Text, elements[2].Items[0].Text})

	require.NoError(t, logic.DeleteElement(betaID, t3))
	elements, err = logic.GetColumnElements(f.pageID, 1, t3)
	require.NoError(t, err)
	require.Len(t, elements, 2)
	requireContiguous(t, elements)
	assert.Equal(t, "gamma", elements[1].Items[0].Text)

	requireCode(t, logic.DeleteElement(betaID, t3), http.StatusNotFound)
}

func TestSaveColumn(t *testing.T) {
	f := setupFixture(t)
	logic := NewTranscriptionLogic(f.ctx, f.core)

	item := text("Liber primus")
	item.ID = -1
	ids, version, err := logic.SaveColumn(f.pageID, 1,
		[]types.Element{line(f, item)},
		[]types.EdNote{{Type: types.EDNOTE_INLINE, Target: -1, AuthorTid: f.editorTid, Lang: "en", Text: "  rubricated   title "}},
		types.ColumnVersionInfo{AuthorTid: f.editorTid, Description: "first pass"},
	)
	require.NoError(t, err)
	assert.NotZero(t, version.ID)
	assert.True(t, bitemporal.EndOfTimes.Equal(version.TimeUntil))

	notes, err := NewEdNoteLogic(f.ctx, f.core).GetEditorialNotesByItemIDs([]int64{ids[-1]})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "rubricated title", notes[0].Text)

	t.Run("failed version registration rolls everything back", func(t *testing.T) {
		elements, err := logic.GetColumnElements(f.pageID, 1, bitemporal.Now())
		require.NoError(t, err)
		elements = append(elements, line(f, text("Capitulum I")))

		_, _, err = logic.SaveColumn(f.pageID, 1, elements, nil, types.ColumnVersionInfo{})
		requireCode(t, err, http.StatusBadRequest)

		after, err := logic.GetColumnElements(f.pageID, 1, bitemporal.Now())
		require.NoError(t, err)
		assert.Len(t, after, 1)

		versions, err := NewColumnVersionLogic(f.ctx, f.core).GetColumnVersionInfoByPageCol(f.pageID, 1, 0)
		require.NoError(t, err)
		assert.Len(t, versions, 1)
	})
}

func TestPageSettings(t *testing.T) {
	f := setupFixture(t)
	pages := NewPageLogic(f.ctx, f.core)
	tx := NewTranscriptionLogic(f.ctx, f.core)

	gap := types.Element{Type: types.ELEMENT_LINE_GAP, Lang: "la", EditorTid: f.editorTid}
	_, err := tx.UpdateColumnElements(f.pageID, 2, []types.Element{gap}, bitemporal.Now())
	require.NoError(t, err)

	one := 1
	err = pages.UpdatePageSettings(f.pageID, types.PageSettings{NumCols: &one})
	requireCode(t, err, http.StatusBadRequest)
	var ce *errors.CustomizedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, map[string]interface{}{"MaxColumn": 2}, ce.TemplateData())

	three := 3
	foliation := "  12r "
	require.NoError(t, pages.UpdatePageSettings(f.pageID, types.PageSettings{NumCols: &three, Foliation: &foliation}))
	page, err := pages.GetPageInfo(f.pageID)
	require.NoError(t, err)
	assert.Equal(t, 3, page.NumCols)
	assert.Equal(t, "12r", page.Foliation)

	bad := "xx"
	requireCode(t, pages.UpdatePageSettings(f.pageID, types.PageSettings{Lang: &bad}), http.StatusBadRequest)
	requireCode(t, pages.UpdatePageSettings(-1, types.PageSettings{}), http.StatusNotFound)

	_, err = tx.GetPageInfoByDocSeq(f.docID, 2)
	require.NoError(t, err)
	_, err = tx.GetPageInfoByDocPage(f.docID, 9)
	requireCode(t, err, http.StatusNotFound)

	transcribed, err := tx.GetTranscribedPages(f.docID)
	require.NoError(t, err)
	require.Len(t, transcribed, 1)
	assert.Equal(t, f.pageID, transcribed[0].PageID)

	doc, err := pages.GetDocByLegacyID("hunt79")
	require.NoError(t, err)
	assert.Equal(t, f.docID, doc.ID)
}

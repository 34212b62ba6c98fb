package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/types"
)

func ts(s string) time.Time {
	t, err := bitemporal.ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func setupPage(t *testing.T, p *Provider) (docID, pageID int64) {
	ctx := context.Background()
	docID, err := p.DocStore().Create(ctx, types.Doc{Title: "Test doc", Lang: "la"})
	require.NoError(t, err)
	pageID, err = p.PageStore().Create(ctx, types.Page{DocID: docID, Seq: 1, PageNumber: 1, NumCols: 1})
	require.NoError(t, err)
	return docID, pageID
}

func TestElementBitemporalRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := New()
	_, pageID := setupPage(t, p)

	t1 := ts("2020-01-01 10:00:00")
	t2 := ts("2020-01-02 10:00:00")
	t3 := ts("2020-01-03 10:00:00")

	id, err := p.ElementStore().Create(ctx, types.Element{Type: types.ELEMENT_LINE, PageID: pageID, ColumnNumber: 1, Lang: "la"}, t1)
	require.NoError(t, err)

	e, err := p.ElementStore().Get(ctx, id, t1)
	require.NoError(t, err)
	e.Lang = "ar"
	require.NoError(t, p.ElementStore().Update(ctx, *e, t2))

	old, err := p.ElementStore().Get(ctx, id, t1.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "la", old.Lang)

	cur, err := p.ElementStore().Get(ctx, id, t2)
	require.NoError(t, err)
	assert.Equal(t, "ar", cur.Lang)
	assert.Equal(t, bitemporal.EndOfTimes, cur.ValidUntil)

	require.NoError(t, p.ElementStore().Delete(ctx, id, t3))
	_, err = p.ElementStore().Get(ctx, id, t3)
	assert.True(t, errors.Is(err, store.ErrRowDoesNotExist))

	// 删除之前的历史仍然可以读到
	hist, err := p.ElementStore().Get(ctx, id, t3.Add(-time.Microsecond))
	require.NoError(t, err)
	assert.Equal(t, "ar", hist.Lang)

	_, err = p.ElementStore().Get(ctx, id, t1.Add(-time.Second))
	assert.True(t, errors.Is(err, store.ErrRowDoesNotExist))
}

func TestItemUpdateInPlace(t *testing.T) {
	ctx := context.Background()
	p := New()
	t1 := ts("2021-05-05 12:00:00.123456")

	id, err := p.ItemStore().Create(ctx, types.Item{Type: types.ITEM_TEXT, ColumnElementID: 10, Text: "a"}, t1)
	require.NoError(t, err)

	item, err := p.ItemStore().Get(ctx, id, t1)
	require.NoError(t, err)
	item.Text = "b"
	require.NoError(t, p.ItemStore().Update(ctx, *item, t1))

	assert.Len(t, p.st.items, 1)
	got, err := p.ItemStore().Get(ctx, id, t1)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Text)

	err = p.ItemStore().Update(ctx, types.Item{ID: id + 100}, t1)
	assert.True(t, errors.Is(err, store.ErrRowDoesNotExist))
}

func TestListByElementsOrder(t *testing.T) {
	ctx := context.Background()
	p := New()
	t1 := ts("2021-01-01 00:00:00")

	for _, item := range []types.Item{
		{ColumnElementID: 2, Seq: 1, Text: "d"},
		{ColumnElementID: 1, Seq: 1, Text: "b"},
		{ColumnElementID: 2, Seq: 0, Text: "c"},
		{ColumnElementID: 1, Seq: 0, Text: "a"},
		{ColumnElementID: 3, Seq: 0, Text: "x"},
	} {
		item.Type = types.ITEM_TEXT
		_, err := p.ItemStore().Create(ctx, item, t1)
		require.NoError(t, err)
	}

	items, err := p.ItemStore().ListByElements(ctx, []int64{1, 2}, t1)
	require.NoError(t, err)
	var texts []string
	for _, item := range items {
		texts = append(texts, item.Text)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, texts)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	p := New()
	t1 := ts("2021-01-01 00:00:00")

	boom := errors.New("boom")
	err := p.Transaction(ctx, func(ctx context.Context) error {
		if _, err := p.ItemStore().Create(ctx, types.Item{Type: types.ITEM_TEXT, ColumnElementID: 1}, t1); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Len(t, p.st.items, 0)

	err = p.Transaction(ctx, func(ctx context.Context) error {
		_, err := p.ItemStore().Create(ctx, types.Item{Type: types.ITEM_TEXT, ColumnElementID: 1}, t1)
		return err
	})
	require.NoError(t, err)
	assert.Len(t, p.st.items, 1)
}

func TestQueryRowsAndChunkMarks(t *testing.T) {
	ctx := context.Background()
	p := New()
	docID, pageID := setupPage(t, p)
	t1 := ts("2022-03-01 08:00:00")

	lineID, err := p.ElementStore().Create(ctx, types.Element{Type: types.ELEMENT_LINE, PageID: pageID, ColumnNumber: 1, Seq: 0}, t1)
	require.NoError(t, err)
	glossID, err := p.ElementStore().Create(ctx, types.Element{Type: types.ELEMENT_GLOSS, PageID: pageID, ColumnNumber: 1, Seq: 1}, t1)
	require.NoError(t, err)

	items := []types.Item{
		{Type: types.ITEM_CHUNK_MARK, ColumnElementID: lineID, Seq: 0, Text: "AW47", Target: 1, AltText: types.CHUNK_MARK_START},
		{Type: types.ITEM_TEXT, ColumnElementID: lineID, Seq: 1, Text: "hello"},
		{Type: types.ITEM_CHUNK_MARK, ColumnElementID: lineID, Seq: 2, Text: "AW47", Target: 1, AltText: types.CHUNK_MARK_END, ExtraInfo: "B"},
		{Type: types.ITEM_TEXT, ColumnElementID: glossID, Seq: 0, Text: "gloss"},
	}
	for _, item := range items {
		_, err := p.ItemStore().Create(ctx, item, t1)
		require.NoError(t, err)
	}

	marks, err := p.TranscriptionQueryStore().ListChunkMarks(ctx, types.ChunkMarkFilter{WorkID: "AW47", WitnessLocalID: "A"}, t1)
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, types.CHUNK_MARK_START, marks[0].Mark().Type)
	assert.Equal(t, docID, marks[0].Mark().DocID)

	from := types.ItemLocation{DocID: docID, PageSeq: 1, ColumnNumber: 1, ElementSeq: 0, ItemSeq: 0}
	to := types.ItemLocation{DocID: docID, PageSeq: 1, ColumnNumber: 1, ElementSeq: 1, ItemSeq: 5}
	rows, err := p.TranscriptionQueryStore().ListItemRowsBetween(ctx, docID, from, to, t1)
	require.NoError(t, err)
	// 只包含 Line 元素中的条目
	assert.Len(t, rows, 3)

	before, err := p.TranscriptionQueryStore().ListItemRowsBefore(ctx, pageID, 1, types.ItemLocation{ElementSeq: 0, ItemSeq: 2}, t1)
	require.NoError(t, err)
	assert.Len(t, before, 2)

	pages, err := p.TranscriptionQueryStore().ListTranscribedPages(ctx, docID, t1)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, pageID, pages[0].PageID)

	// 写入之前什么都没有
	rows, err = p.TranscriptionQueryStore().ListItemRowsBetween(ctx, docID, from, to, t1.Add(-time.Second))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "k")
	assert.Equal(t, redis.Nil, err)

	require.NoError(t, c.SetEx(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.Equal(t, redis.Nil, err)
}

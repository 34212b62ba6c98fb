package v1

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manuscripta/apm/app/core"
	"github.com/manuscripta/apm/app/store/memstore"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/errors"
	"github.com/manuscripta/apm/pkg/types"
)

type fixture struct {
	core      *core.Core
	ctx       context.Context
	docID     int64
	pageID    int64
	editorTid int64
	guestTid  int64
}

func setupFixture(t *testing.T) fixture {
	ctx := context.Background()
	c := core.MustSetupCore(core.LoadBaseConfigFromENV(), core.WithStore(memstore.New()), core.WithCache(memstore.NewCache()))

	docID, err := c.Store().DocStore().Create(ctx, types.Doc{Title: "Bodleian MS. Hunt. 79", Lang: "la", LegacyID: "hunt79"})
	require.NoError(t, err)
	pageID, err := c.Store().PageStore().Create(ctx, types.Page{DocID: docID, Seq: 1, PageNumber: 1, NumCols: 2, Lang: "la"})
	require.NoError(t, err)
	_, err = c.Store().PageStore().Create(ctx, types.Page{DocID: docID, Seq: 2, PageNumber: 2, NumCols: 1, Lang: "la"})
	require.NoError(t, err)
	editorTid, err := c.Store().PersonStore().Create(ctx, types.Person{Name: "editor", IsUser: true})
	require.NoError(t, err)
	guestTid, err := c.Store().PersonStore().Create(ctx, types.Person{Name: "guest"})
	require.NoError(t, err)

	return fixture{
		core:      c,
		ctx:       ctx,
		docID:     docID,
		pageID:    pageID,
		editorTid: editorTid,
		guestTid:  guestTid,
	}
}

func ts(s string) time.Time {
	t, err := bitemporal.ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func line(f fixture, items ...types.Item) types.Element {
	return types.Element{
		Type:         types.ELEMENT_LINE,
		PageID:       f.pageID,
		ColumnNumber: 1,
		Lang:         "la",
		EditorTid:    f.editorTid,
		HandID:       0,
		Items:        items,
	}
}

func text(s string) types.Item {
	return types.Item{Type: types.ITEM_TEXT, Text: s}
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, errors.CodeOf(err), err.Error())
}

// requireContiguous 栏中元素的 seq 为 0..n-1，每个元素中条目的 seq 为 0..m-1
func requireContiguous(t *testing.T, elements []types.Element) {
	t.Helper()
	for i, e := range elements {
		require.Equal(t, i, e.Seq)
		for j, item := range e.Items {
			require.Equal(t, j, item.Seq)
		}
	}
}

package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/testutils"
	"github.com/manuscripta/apm/pkg/types"
)

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m PGConfig) FormatDSN() string {
	return m.DSN
}

func setupProvider(t *testing.T) *Provider {
	provider := MustSetup(PGConfig{DSN: testutils.PostgresDSN(t)})()
	require.NoError(t, provider.Install())
	return provider
}

func TestVersionedElement(t *testing.T) {
	provider := setupProvider(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	docID, err := provider.DocStore().Create(ctx, types.Doc{Title: "versioned element test", Lang: "la"})
	require.NoError(t, err)
	pageID, err := provider.PageStore().Create(ctx, types.Page{DocID: docID, Seq: 1, PageNumber: 1, NumCols: 1})
	require.NoError(t, err)

	t1 := bitemporal.Now()
	t2 := t1.Add(time.Second)

	id, err := provider.ElementStore().Create(ctx, types.Element{Type: types.ELEMENT_LINE, PageID: pageID, ColumnNumber: 1, Lang: "la"}, t1)
	require.NoError(t, err)

	e, err := provider.ElementStore().Get(ctx, id, t1)
	require.NoError(t, err)
	e.Lang = "he"
	require.NoError(t, provider.ElementStore().Update(ctx, *e, t2))

	old, err := provider.ElementStore().Get(ctx, id, t1)
	require.NoError(t, err)
	assert.Equal(t, "la", old.Lang)
	assert.True(t, old.ValidUntil.Equal(t2))

	cur, err := provider.ElementStore().Get(ctx, id, t2)
	require.NoError(t, err)
	assert.Equal(t, "he", cur.Lang)

	list, err := provider.ElementStore().ListByPageCol(ctx, pageID, 1, t2)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, provider.ElementStore().Delete(ctx, id, t2.Add(time.Second)))
	_, err = provider.ElementStore().Get(ctx, id, t2.Add(time.Second))
	assert.True(t, errors.Is(err, store.ErrRowDoesNotExist))
}

func TestTransactionRollback(t *testing.T) {
	provider := setupProvider(t)
	ctx := context.Background()
	now := bitemporal.Now()

	var id int64
	err := provider.Transaction(ctx, func(ctx context.Context) error {
		var err error
		id, err = provider.ItemStore().Create(ctx, types.Item{Type: types.ITEM_TEXT, ColumnElementID: 1, Text: "x"}, now)
		if err != nil {
			return err
		}
		return errors.New("rollback")
	})
	require.Error(t, err)

	_, err = provider.ItemStore().Get(ctx, id, now)
	assert.True(t, errors.Is(err, store.ErrRowDoesNotExist))
}

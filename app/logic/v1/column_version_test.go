package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/types"
)

func TestRegisterNewColumnVersion(t *testing.T) {
	f := setupFixture(t)
	logic := NewColumnVersionLogic(f.ctx, f.core)

	register := func(from string) (types.ColumnVersionInfo, error) {
		return logic.RegisterNewColumnVersion(f.pageID, 1, types.ColumnVersionInfo{
			PageID:    f.pageID,
			Column:    1,
			AuthorTid: f.editorTid,
			TimeFrom:  ts(from),
		})
	}

	for _, from := range []string{"2022-01-01 00:00:00", "2022-03-01 00:00:00", "2022-02-01 00:00:00", "2021-12-01 00:00:00"} {
		_, err := register(from)
		require.NoError(t, err, from)
	}

	versions, err := logic.GetColumnVersionInfoByPageCol(f.pageID, 1, 0)
	require.NoError(t, err)
	require.Len(t, versions, 4)
	for i := 0; i+1 < len(versions); i++ {
		assert.True(t, versions[i].TimeUntil.Equal(versions[i+1].TimeFrom), "version %d is not adjacent to the next one", i)
	}
	assert.True(t, versions[0].TimeFrom.Equal(ts("2021-12-01 00:00:00")))
	assert.True(t, versions[3].TimeUntil.Equal(bitemporal.EndOfTimes))

	last, err := logic.GetColumnVersionInfoByPageCol(f.pageID, 1, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, versions[2].ID, last[0].ID)

	t.Run("conflicting boundary", func(t *testing.T) {
		_, err := register("2022-02-01 00:00:00")
		requireCode(t, err, http.StatusConflict)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := logic.RegisterNewColumnVersion(f.pageID, 2, types.ColumnVersionInfo{PageID: f.pageID, Column: 1, AuthorTid: f.editorTid, TimeFrom: bitemporal.Now()})
		requireCode(t, err, http.StatusBadRequest)
		_, err = logic.RegisterNewColumnVersion(f.pageID, 1, types.ColumnVersionInfo{PageID: f.pageID, Column: 1, TimeFrom: bitemporal.Now()})
		requireCode(t, err, http.StatusBadRequest)
		_, err = logic.RegisterNewColumnVersion(f.pageID, 1, types.ColumnVersionInfo{PageID: f.pageID, Column: 1, AuthorTid: f.editorTid})
		requireCode(t, err, http.StatusBadRequest)
	})

	t.Run("segment and recent versions", func(t *testing.T) {
		list, err := logic.GetVersionsForSegment(f.docID, 1, 1)
		require.NoError(t, err)
		assert.Len(t, list, 4)

		list, err = logic.GetVersionsForSegment(f.docID, 2, 2)
		require.NoError(t, err)
		assert.Empty(t, list)

		recent, err := logic.GetRecentVersions(2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, versions[3].ID, recent[0].ID)
	})
}

func TestPublishVersion(t *testing.T) {
	f := setupFixture(t)
	logic := NewColumnVersionLogic(f.ctx, f.core)

	v, err := logic.RegisterNewColumnVersion(f.pageID, 1, types.ColumnVersionInfo{
		PageID:    f.pageID,
		Column:    1,
		AuthorTid: f.editorTid,
		TimeFrom:  ts("2022-05-01 00:00:00"),
	})
	require.NoError(t, err)

	require.NoError(t, logic.PublishVersion(v.ID))
	require.NoError(t, logic.PublishVersion(v.ID))
	versions, err := logic.GetColumnVersionInfoByPageCol(f.pageID, 1, 0)
	require.NoError(t, err)
	assert.True(t, versions[0].IsPublished)

	require.NoError(t, logic.UnPublishVersion(v.ID))
	versions, err = logic.GetColumnVersionInfoByPageCol(f.pageID, 1, 0)
	require.NoError(t, err)
	assert.False(t, versions[0].IsPublished)

	requireCode(t, logic.PublishVersion(v.ID+1), http.StatusNotFound)
}

func TestEdNotes(t *testing.T) {
	f := setupFixture(t)
	logic := NewEdNoteLogic(f.ctx, f.core)

	id, err := logic.InsertNote(types.EDNOTE_OFFLINE, 1001, f.editorTid, "see  fol. 3v", "en")
	require.NoError(t, err)

	notes, err := logic.GetEditorialNotesByTypeAndTarget(types.EDNOTE_OFFLINE, 1001)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "see fol. 3v", notes[0].Text)

	notes[0].Text = "see fol. 4r"
	require.NoError(t, logic.UpdateNotesFromArray(notes, IDMap{}, bitemporal.Now()))
	notes, err = logic.GetEditorialNotesByItemIDs([]int64{1001, 1001})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].ID)
	assert.Equal(t, "see fol. 4r", notes[0].Text)

	_, err = logic.InsertNote(types.EDNOTE_INLINE, 1001, f.editorTid, "   ", "en")
	requireCode(t, err, http.StatusBadRequest)
}

package v1

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/manuscripta/apm/app/core"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/i18n"
	"github.com/manuscripta/apm/pkg/types"
	"github.com/manuscripta/apm/pkg/utils"
)

type EdNoteLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewEdNoteLogic(ctx context.Context, core *core.Core) *EdNoteLogic {
	return &EdNoteLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *EdNoteLogic) GetEditorialNotesByItemIDs(ids []int64) ([]types.EdNote, error) {
	ids = lo.Uniq(lo.Filter(ids, func(id int64, _ int) bool { return id > 0 }))
	if len(ids) == 0 {
		return nil, nil
	}
	list, err := l.core.Store().EdNoteStore().ListByTargets(l.ctx, ids)
	if err != nil {
		return nil, storeFailure("EdNoteLogic.GetEditorialNotesByItemIDs.EdNoteStore.ListByTargets", err)
	}
	return list, nil
}

func (l *EdNoteLogic) GetEditorialNotesByTypeAndTarget(noteType types.EdNoteType, target int64) ([]types.EdNote, error) {
	list, err := l.core.Store().EdNoteStore().ListByTypeAndTarget(l.ctx, noteType, target)
	if err != nil {
		return nil, storeFailure("EdNoteLogic.GetEditorialNotesByTypeAndTarget.EdNoteStore.ListByTypeAndTarget", err)
	}
	return list, nil
}

func (l *EdNoteLogic) check(trace string, note types.EdNote) error {
	if !note.Type.IsValid() {
		return invalid(trace, i18n.ERROR_INVALIDARGUMENT, "unknown note type", slog.Int("type", int(note.Type)))
	}
	if note.Target == 0 {
		return invalid(trace, i18n.ERROR_INVALIDARGUMENT, "empty target")
	}
	if note.AuthorTid == 0 {
		return invalid(trace, i18n.ERROR_INVALID_EDITOR, "empty author", slog.Int64("target", note.Target))
	}
	if strings.TrimSpace(note.Text) == "" {
		return invalid(trace, i18n.ERROR_INVALIDARGUMENT, "empty text", slog.Int64("target", note.Target))
	}
	return nil
}

// InsertNote 返回新注释的 id
func (l *EdNoteLogic) InsertNote(noteType types.EdNoteType, target, authorTid int64, text, lang string) (int64, error) {
	note := types.EdNote{
		ID:        utils.GenUniqID(),
		Type:      noteType,
		Target:    target,
		AuthorTid: authorTid,
		Lang:      lang,
		Text:      utils.NormalizeWhitespace(text),
		Time:      bitemporal.Now(),
	}
	if err := l.check("EdNoteLogic.InsertNote.check", note); err != nil {
		return 0, err
	}

	if err := l.core.Store().EdNoteStore().Create(l.ctx, note); err != nil {
		return 0, storeFailure("EdNoteLogic.InsertNote.EdNoteStore.Create", err, slog.Int64("target", target))
	}
	return note.ID, nil
}

// UpdateNotesFromArray id 为 0 或临时 id 的注释新建，其余更新；target 先经过 ids 映射
func (l *EdNoteLogic) UpdateNotesFromArray(notes []types.EdNote, ids IDMap, t time.Time) error {
	for _, note := range notes {
		note.Target, _ = ids.Resolve(note.Target)
		note.Text = utils.NormalizeWhitespace(note.Text)
		note.Time = bitemporal.Normalize(t)
		if err := l.check("EdNoteLogic.UpdateNotesFromArray.check", note); err != nil {
			return err
		}

		if note.ID > 0 {
			_, err := l.core.Store().EdNoteStore().Get(l.ctx, note.ID)
			if err == nil {
				if err = l.core.Store().EdNoteStore().Update(l.ctx, note); err != nil {
					return storeFailure("EdNoteLogic.UpdateNotesFromArray.EdNoteStore.Update", err, slog.Int64("note_id", note.ID))
				}
				continue
			}
			if !isNoRows(err) {
				return storeFailure("EdNoteLogic.UpdateNotesFromArray.EdNoteStore.Get", err, slog.Int64("note_id", note.ID))
			}
		}

		note.ID = utils.GenUniqID()
		if err := l.core.Store().EdNoteStore().Create(l.ctx, note); err != nil {
			return storeFailure("EdNoteLogic.UpdateNotesFromArray.EdNoteStore.Create", err, slog.Int64("target", note.Target))
		}
	}
	return nil
}

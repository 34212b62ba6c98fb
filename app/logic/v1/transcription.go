package v1

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/manuscripta/apm/app/core"
	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/errors"
	"github.com/manuscripta/apm/pkg/i18n"
	"github.com/manuscripta/apm/pkg/myers"
	"github.com/manuscripta/apm/pkg/types"
)

type TranscriptionLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewTranscriptionLogic(ctx context.Context, core *core.Core) *TranscriptionLogic {
	return &TranscriptionLogic{
		ctx:  ctx,
		core: core,
	}
}

// GetColumnElements 栏中在 t 时有效的元素（按 seq 升序），每个元素带上自己的条目
func (l *TranscriptionLogic) GetColumnElements(pageID int64, column int, t time.Time) ([]types.Element, error) {
	elements, err := l.core.Store().ElementStore().ListByPageCol(l.ctx, pageID, column, t)
	if err != nil {
		return nil, storeFailure("TranscriptionLogic.GetColumnElements.ElementStore.ListByPageCol", err)
	}
	if len(elements) == 0 {
		return elements, nil
	}

	ids := lo.Map(elements, func(e types.Element, _ int) int64 { return e.ID })
	items, err := l.core.Store().ItemStore().ListByElements(l.ctx, ids, t)
	if err != nil {
		return nil, storeFailure("TranscriptionLogic.GetColumnElements.ItemStore.ListByElements", err)
	}

	grouped := lo.GroupBy(items, func(item types.Item) int64 { return item.ColumnElementID })
	for i := range elements {
		elements[i].Items = grouped[elements[i].ID]
	}
	return elements, nil
}

// checkNewElement 新元素写入前的校验，失败时返回 400 并记录原因
func (l *TranscriptionLogic) checkNewElement(trace string, element types.Element) error {
	attrs := []any{slog.Int64("page_id", element.PageID), slog.Int("column", element.ColumnNumber)}
	if element.PageID == 0 {
		return invalid(trace, i18n.ERROR_INVALIDARGUMENT, "empty page id", attrs...)
	}
	if element.ColumnNumber <= 0 {
		return invalid(trace, i18n.ERROR_INVALID_COLUMN, "column number must be positive", attrs...)
	}
	if !element.Type.IsValid() {
		return invalid(trace, i18n.ERROR_INVALIDARGUMENT, "unknown element type", append(attrs, slog.Int("type", int(element.Type)))...)
	}
	if len(element.Items) == 0 && element.Type != types.ELEMENT_LINE_GAP {
		return invalid(trace, i18n.ERROR_EMPTY_ELEMENT, "element without items", attrs...)
	}
	if !l.core.Cfg().Transcription.IsValidLang(element.Lang) {
		return invalid(trace, i18n.ERROR_INVALID_LANGUAGE, "language not allowed", append(attrs, slog.String("lang", element.Lang))...)
	}
	for _, item := range element.Items {
		if !item.Type.IsValid() {
			return invalid(trace, i18n.ERROR_INVALIDARGUMENT, "unknown item type", append(attrs, slog.Int("type", int(item.Type)))...)
		}
	}

	page, err := l.core.Store().PageStore().Get(l.ctx, element.PageID)
	if err != nil {
		if isNoRows(err) {
			return invalid(trace, i18n.ERROR_PAGE_NOT_FOUND, "page does not exist", attrs...)
		}
		return storeFailure(trace+".PageStore.Get", err, attrs...)
	}
	if element.ColumnNumber > page.NumCols {
		return invalid(trace, i18n.ERROR_INVALID_COLUMN, "column exceeds page columns", append(attrs, slog.Int("num_cols", page.NumCols))...)
	}

	person, err := l.core.Store().PersonStore().Get(l.ctx, element.EditorTid)
	if err != nil && !isNoRows(err) {
		return storeFailure(trace+".PersonStore.Get", err, attrs...)
	}
	if person == nil || !person.IsUser {
		return invalid(trace, i18n.ERROR_INVALID_EDITOR, "editor is not a user", append(attrs, slog.Int64("editor_tid", element.EditorTid))...)
	}
	return nil
}

// InsertNewElement 校验并写入一个新元素；insertAtEnd 为 false 且 seq 落在已有元素之间时，后面的元素顺延
// 返回新元素 id，新条目的 id 记录到 ids 中
func (l *TranscriptionLogic) InsertNewElement(element types.Element, insertAtEnd bool, ids IDMap, t time.Time) (int64, error) {
	if err := l.checkNewElement("TranscriptionLogic.InsertNewElement.check", element); err != nil {
		return 0, err
	}
	t = bitemporal.Normalize(t)

	maxSeq, err := l.core.Store().ElementStore().MaxSeq(l.ctx, element.PageID, element.ColumnNumber, t)
	if err != nil {
		return 0, storeFailure("TranscriptionLogic.InsertNewElement.ElementStore.MaxSeq", err)
	}

	if !insertAtEnd && element.Seq >= 0 && element.Seq <= maxSeq {
		columnElements, err := l.core.Store().ElementStore().ListByPageCol(l.ctx, element.PageID, element.ColumnNumber, t)
		if err != nil {
			return 0, storeFailure("TranscriptionLogic.InsertNewElement.ElementStore.ListByPageCol", err)
		}
		for _, e := range columnElements {
			if e.Seq < element.Seq {
				continue
			}
			e.Seq++
			if err = l.core.Store().ElementStore().Update(l.ctx, e, t); err != nil {
				return 0, storeFailure("TranscriptionLogic.InsertNewElement.ElementStore.Update", err, slog.Int64("element_id", e.ID))
			}
		}
	} else {
		element.Seq = maxSeq + 1
	}

	id, err := l.createElement(element, ids, t)
	if err != nil {
		return 0, errors.Trace("TranscriptionLogic.InsertNewElement", err)
	}
	return id, nil
}

// createElement 写入元素及其条目，不做校验也不调整其他元素的 seq
func (l *TranscriptionLogic) createElement(element types.Element, ids IDMap, t time.Time) (int64, error) {
	id, err := l.core.Store().ElementStore().Create(l.ctx, element, t)
	if err != nil {
		return 0, storeFailure("TranscriptionLogic.createElement.ElementStore.Create", err,
			slog.Int64("page_id", element.PageID), slog.Int("column", element.ColumnNumber), slog.Int("seq", element.Seq))
	}

	for i, item := range element.Items {
		item.Seq = i
		if _, err = l.createItem(item, element, id, ids, t); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// createItem 补齐条目的默认值、解析 Addition 的 target，写入后记录 id 映射
func (l *TranscriptionLogic) createItem(item types.Item, element types.Element, elementID int64, ids IDMap, t time.Time) (int64, error) {
	callerID := item.ID
	item = element.ItemWithDefaults(item)
	item.ColumnElementID = elementID
	if item.Type == types.ITEM_ADDITION && item.Target != 0 {
		target, ok := ids.Resolve(item.Target)
		if !ok && item.Target < 0 {
			// 目标条目排在后面，此时还没有写入
			slog.Warn("addition target not resolved", slog.Int64("element_id", elementID), slog.Int64("target", item.Target))
		}
		item.Target = target
	}

	id, err := l.core.Store().ItemStore().Create(l.ctx, item, t)
	if err != nil {
		return 0, storeFailure("TranscriptionLogic.createItem.ItemStore.Create", err,
			slog.Int64("element_id", elementID), slog.Int("seq", item.Seq), slog.Int("type", int(item.Type)))
	}
	if callerID != 0 {
		ids[callerID] = id
	}
	return id, nil
}

// deleteElement 元素及其条目在 t 失效
func (l *TranscriptionLogic) deleteElement(element types.Element, t time.Time) error {
	for _, item := range element.Items {
		if err := l.core.Store().ItemStore().Delete(l.ctx, item.ID, t); err != nil {
			return storeFailure("TranscriptionLogic.deleteElement.ItemStore.Delete", err, slog.Int64("item_id", item.ID), slog.Int64("element_id", element.ID))
		}
	}
	if err := l.core.Store().ElementStore().Delete(l.ctx, element.ID, t); err != nil {
		return storeFailure("TranscriptionLogic.deleteElement.ElementStore.Delete", err, slog.Int64("element_id", element.ID))
	}
	return nil
}

// UpdateColumnElements 使栏中的元素与 newElements 一致，返回调用方条目 id 到最终 id 的映射
// 各步骤按编辑脚本顺序执行，不在事务中，失败时栏可能处于部分更新的状态
func (l *TranscriptionLogic) UpdateColumnElements(pageID int64, column int, newElements []types.Element, t time.Time) (IDMap, error) {
	t = bitemporal.Normalize(t)
	for i := range newElements {
		newElements[i].PageID = pageID
		newElements[i].ColumnNumber = column
	}

	oldElements, err := l.GetColumnElements(pageID, column, t)
	if err != nil {
		return nil, errors.Trace("TranscriptionLogic.UpdateColumnElements", err)
	}

	steps := myers.Calculate(oldElements, newElements, types.ElementDiffEqual)
	l.core.Metrics().EditScriptOps(steps)

	ids := make(IDMap)
	for _, step := range steps {
		switch step.Op {
		case myers.Keep:
			oldElement := oldElements[step.Index]
			newElement := newElements[step.NewSeq]
			newElement.ID = oldElement.ID
			newElement.Seq = step.NewSeq
			if oldElement.Type.HasItemReference() {
				newElement.Reference, _ = ids.Resolve(oldElement.Reference)
			}
			if err = l.UpdateElement(newElement, oldElement, ids, t); err != nil {
				return nil, errors.Trace("TranscriptionLogic.UpdateColumnElements.keep", err)
			}
		case myers.Delete:
			if err = l.deleteElement(oldElements[step.Index], t); err != nil {
				return nil, errors.Trace("TranscriptionLogic.UpdateColumnElements.delete", err)
			}
		case myers.Insert:
			newElement := newElements[step.Index]
			newElement.Seq = step.NewSeq
			if newElement.Type.HasItemReference() && newElement.Reference != 0 {
				ref, ok := ids.Resolve(newElement.Reference)
				if !ok && newElement.Reference < 0 {
					slog.Warn("element reference not resolved", slog.Int64("page_id", pageID), slog.Int("column", column), slog.Int64("reference", newElement.Reference))
				}
				newElement.Reference = ref
			}
			if err = l.checkNewElement("TranscriptionLogic.UpdateColumnElements.insert", newElement); err != nil {
				return nil, err
			}
			if _, err = l.createElement(newElement, ids, t); err != nil {
				return nil, errors.Trace("TranscriptionLogic.UpdateColumnElements.insert", err)
			}
		}
	}
	return ids, nil
}

// UpdateElement 条目级别的差异更新；只有确实插入或删除了条目时才采用新的编辑者
func (l *TranscriptionLogic) UpdateElement(newElement, oldElement types.Element, ids IDMap, t time.Time) error {
	t = bitemporal.Normalize(t)
	newElement.Items = withItemDefaults(newElement)
	steps := myers.Calculate(oldElement.Items, newElement.Items, types.ItemDiffEqual)
	l.core.Metrics().EditScriptOps(steps)

	ignoreNewEditor := true
	for _, step := range steps {
		switch step.Op {
		case myers.Keep:
			oldItem := oldElement.Items[step.Index]
			if callerID := newElement.Items[step.NewSeq].ID; callerID != 0 {
				ids[callerID] = oldItem.ID
			}

			updated := oldItem
			updated.Seq = step.NewSeq
			// 目标条目在本次保存中被重新创建时改写 target
			if updated.Type == types.ITEM_ADDITION && updated.Target != 0 {
				updated.Target, _ = ids.Resolve(updated.Target)
			}
			if types.ItemRowEqual(updated, oldItem) {
				continue
			}
			if err := l.core.Store().ItemStore().Update(l.ctx, updated, t); err != nil {
				return storeFailure("TranscriptionLogic.UpdateElement.ItemStore.Update", err, slog.Int64("item_id", oldItem.ID), slog.Int64("element_id", oldElement.ID))
			}
		case myers.Delete:
			oldItem := oldElement.Items[step.Index]
			if err := l.core.Store().ItemStore().Delete(l.ctx, oldItem.ID, t); err != nil {
				return storeFailure("TranscriptionLogic.UpdateElement.ItemStore.Delete", err, slog.Int64("item_id", oldItem.ID), slog.Int64("element_id", oldElement.ID))
			}
			ignoreNewEditor = false
		case myers.Insert:
			item := newElement.Items[step.Index]
			item.Seq = step.NewSeq
			if _, err := l.createItem(item, newElement, oldElement.ID, ids, t); err != nil {
				return errors.Trace("TranscriptionLogic.UpdateElement.insert", err)
			}
			ignoreNewEditor = false
		}
	}

	row := newElement
	row.ID = oldElement.ID
	row.Items = nil
	if ignoreNewEditor || row.EditorTid == 0 {
		row.EditorTid = oldElement.EditorTid
	}
	if types.ElementRowEqual(row, oldElement) {
		return nil
	}
	if err := l.core.Store().ElementStore().Update(l.ctx, row, t); err != nil {
		return storeFailure("TranscriptionLogic.UpdateElement.ElementStore.Update", err, slog.Int64("element_id", oldElement.ID))
	}
	return nil
}

// withItemDefaults 比较之前先补齐条目的默认值，避免未改动的条目被当作新条目
// Addition 的 target 保持调用方提交的值，由 KEEP 分支或 createItem 解析
func withItemDefaults(element types.Element) []types.Item {
	items := make([]types.Item, len(element.Items))
	for i, item := range element.Items {
		items[i] = element.ItemWithDefaults(item)
	}
	return items
}

// DeleteElement 删除元素，同一栏中后面的元素 seq 前移
func (l *TranscriptionLogic) DeleteElement(elementID int64, t time.Time) error {
	t = bitemporal.Normalize(t)
	element, err := l.core.Store().ElementStore().Get(l.ctx, elementID, t)
	if err != nil {
		if errors.Is(err, store.ErrRowDoesNotExist) {
			return notFound("TranscriptionLogic.DeleteElement.ElementStore.Get", i18n.ERROR_ELEMENT_NOT_FOUND, err)
		}
		return storeFailure("TranscriptionLogic.DeleteElement.ElementStore.Get", err)
	}

	columnElements, err := l.GetColumnElements(element.PageID, element.ColumnNumber, t)
	if err != nil {
		return errors.Trace("TranscriptionLogic.DeleteElement", err)
	}
	for _, e := range columnElements {
		if e.ID == element.ID {
			if err = l.deleteElement(e, t); err != nil {
				return errors.Trace("TranscriptionLogic.DeleteElement", err)
			}
			continue
		}
		if e.Seq < element.Seq {
			continue
		}
		e.Seq--
		e.Items = nil
		if err = l.core.Store().ElementStore().Update(l.ctx, e, t); err != nil {
			return storeFailure("TranscriptionLogic.DeleteElement.ElementStore.Update", err, slog.Int64("element_id", e.ID))
		}
	}
	return nil
}

// SaveColumn 在一个事务中完成栏的差异更新、编辑注释写入和版本登记
func (l *TranscriptionLogic) SaveColumn(pageID int64, column int, elements []types.Element, notes []types.EdNote, version types.ColumnVersionInfo) (IDMap, types.ColumnVersionInfo, error) {
	timer := l.core.Metrics().ColumnUpdateTimer()
	defer timer.ObserveDuration()

	t := bitemporal.Now()
	if !bitemporal.IsZero(version.TimeFrom) {
		t = bitemporal.Normalize(version.TimeFrom)
	}
	version.PageID = pageID
	version.Column = column
	version.TimeFrom = t

	var ids IDMap
	err := l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		var err error
		if ids, err = NewTranscriptionLogic(ctx, l.core).UpdateColumnElements(pageID, column, elements, t); err != nil {
			return err
		}
		if err = NewEdNoteLogic(ctx, l.core).UpdateNotesFromArray(notes, ids, t); err != nil {
			return err
		}
		version, err = NewColumnVersionLogic(ctx, l.core).RegisterNewColumnVersion(pageID, column, version)
		return err
	})
	if err != nil {
		return nil, version, errors.Trace("TranscriptionLogic.SaveColumn", err)
	}
	return ids, version, nil
}

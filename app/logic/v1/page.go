package v1

import (
	"context"
	"log/slog"

	"github.com/manuscripta/apm/app/core"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/errors"
	"github.com/manuscripta/apm/pkg/i18n"
	"github.com/manuscripta/apm/pkg/types"
	"github.com/manuscripta/apm/pkg/utils"
)

func (l *TranscriptionLogic) GetTranscribedPages(docID int64) ([]types.TranscribedPage, error) {
	list, err := l.core.Store().TranscriptionQueryStore().ListTranscribedPages(l.ctx, docID, bitemporal.Now())
	if err != nil {
		return nil, storeFailure("TranscriptionLogic.GetTranscribedPages.TranscriptionQueryStore.ListTranscribedPages", err, slog.Int64("doc_id", docID))
	}
	return list, nil
}

func (l *TranscriptionLogic) GetPageInfoByDocSeq(docID int64, seq int) (*types.Page, error) {
	page, err := l.core.Store().PageStore().GetByDocSeq(l.ctx, docID, seq)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("TranscriptionLogic.GetPageInfoByDocSeq.PageStore.GetByDocSeq", i18n.ERROR_PAGE_NOT_FOUND, err)
		}
		return nil, storeFailure("TranscriptionLogic.GetPageInfoByDocSeq.PageStore.GetByDocSeq", err)
	}
	return page, nil
}

func (l *TranscriptionLogic) GetPageInfoByDocPage(docID int64, pageNumber int) (*types.Page, error) {
	page, err := l.core.Store().PageStore().GetByDocPage(l.ctx, docID, pageNumber)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("TranscriptionLogic.GetPageInfoByDocPage.PageStore.GetByDocPage", i18n.ERROR_PAGE_NOT_FOUND, err)
		}
		return nil, storeFailure("TranscriptionLogic.GetPageInfoByDocPage.PageStore.GetByDocPage", err)
	}
	return page, nil
}

// PageLogic 文档与页面信息
type PageLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewPageLogic(ctx context.Context, core *core.Core) *PageLogic {
	return &PageLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *PageLogic) GetDocInfo(docID int64) (*types.Doc, error) {
	doc, err := l.core.Store().DocStore().Get(l.ctx, docID)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("PageLogic.GetDocInfo.DocStore.Get", i18n.ERROR_DOCUMENT_NOT_FOUND, err)
		}
		return nil, storeFailure("PageLogic.GetDocInfo.DocStore.Get", err)
	}
	return doc, nil
}

// GetDocByLegacyID 旧系统的文档编号
func (l *PageLogic) GetDocByLegacyID(legacyID string) (*types.Doc, error) {
	doc, err := l.core.Store().DocStore().GetByLegacyID(l.ctx, legacyID)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("PageLogic.GetDocByLegacyID.DocStore.GetByLegacyID", i18n.ERROR_DOCUMENT_NOT_FOUND, err)
		}
		return nil, storeFailure("PageLogic.GetDocByLegacyID.DocStore.GetByLegacyID", err)
	}
	return doc, nil
}

func (l *PageLogic) GetPageInfo(pageID int64) (*types.Page, error) {
	page, err := l.core.Store().PageStore().Get(l.ctx, pageID)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("PageLogic.GetPageInfo.PageStore.Get", i18n.ERROR_PAGE_NOT_FOUND, err)
		}
		return nil, storeFailure("PageLogic.GetPageInfo.PageStore.Get", err)
	}
	return page, nil
}

func (l *PageLogic) ListPages(docID int64) ([]types.Page, error) {
	if _, err := l.GetDocInfo(docID); err != nil {
		return nil, errors.Trace("PageLogic.ListPages", err)
	}
	list, err := l.core.Store().PageStore().ListByDoc(l.ctx, docID)
	if err != nil {
		return nil, storeFailure("PageLogic.ListPages.PageStore.ListByDoc", err)
	}
	return list, nil
}

// UpdatePageSettings 栏数不能小于已经有元素的最大栏号
func (l *PageLogic) UpdatePageSettings(pageID int64, settings types.PageSettings) error {
	if _, err := l.GetPageInfo(pageID); err != nil {
		return errors.Trace("PageLogic.UpdatePageSettings", err)
	}

	if settings.NumCols != nil {
		if *settings.NumCols <= 0 {
			return invalid("PageLogic.UpdatePageSettings.check", i18n.ERROR_INVALID_COLUMN, "column count must be positive",
				slog.Int64("page_id", pageID), slog.Int("num_cols", *settings.NumCols))
		}
		maxCol, err := l.core.Store().ElementStore().MaxColumn(l.ctx, pageID, bitemporal.Now())
		if err != nil {
			return storeFailure("PageLogic.UpdatePageSettings.ElementStore.MaxColumn", err, slog.Int64("page_id", pageID))
		}
		if *settings.NumCols < maxCol {
			return invalid("PageLogic.UpdatePageSettings.check", i18n.ERROR_COLUMN_IN_USE, "column holds elements",
				slog.Int64("page_id", pageID), slog.Int("num_cols", *settings.NumCols), slog.Int("max_column", maxCol)).
				WithTemplate(map[string]interface{}{"MaxColumn": maxCol})
		}
	}
	if settings.Lang != nil && !l.core.Cfg().Transcription.IsValidLang(*settings.Lang) {
		return invalid("PageLogic.UpdatePageSettings.check", i18n.ERROR_INVALID_LANGUAGE, "language not allowed",
			slog.Int64("page_id", pageID), slog.String("lang", *settings.Lang))
	}
	if settings.Foliation != nil {
		foliation := utils.NormalizeWhitespace(*settings.Foliation)
		settings.Foliation = &foliation
	}

	if err := l.core.Store().PageStore().UpdateSettings(l.ctx, pageID, settings); err != nil {
		return storeFailure("PageLogic.UpdatePageSettings.PageStore.UpdateSettings", err, slog.Int64("page_id", pageID))
	}
	return nil
}

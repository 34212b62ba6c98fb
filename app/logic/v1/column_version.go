package v1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/manuscripta/apm/app/core"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/errors"
	"github.com/manuscripta/apm/pkg/i18n"
	"github.com/manuscripta/apm/pkg/types"
	"github.com/manuscripta/apm/pkg/utils"
)

// ColumnVersionLogic 栏版本管理，同一页同一栏的所有版本区间首尾相接、互不重叠，最后一个版本到 END_OF_TIMES
type ColumnVersionLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewColumnVersionLogic(ctx context.Context, core *core.Core) *ColumnVersionLogic {
	return &ColumnVersionLogic{
		ctx:  ctx,
		core: core,
	}
}

// GetColumnVersionInfoByPageCol 按 time_from 升序，numVersions > 0 时只返回最后 numVersions 个
func (l *ColumnVersionLogic) GetColumnVersionInfoByPageCol(pageID int64, column, numVersions int) ([]types.ColumnVersionInfo, error) {
	list, err := l.core.Store().ColumnVersionStore().ListByPageCol(l.ctx, pageID, column)
	if err != nil {
		return nil, storeFailure("ColumnVersionLogic.GetColumnVersionInfoByPageCol.ColumnVersionStore.ListByPageCol", err)
	}
	if numVersions > 0 && len(list) > numVersions {
		list = list[len(list)-numVersions:]
	}
	return list, nil
}

func (l *ColumnVersionLogic) RegisterNewColumnVersion(pageID int64, column int, info types.ColumnVersionInfo) (types.ColumnVersionInfo, error) {
	if info.PageID != pageID || info.Column != column {
		return info, invalid("ColumnVersionLogic.RegisterNewColumnVersion.check", i18n.ERROR_INVALIDARGUMENT, "page or column mismatch",
			slog.Int64("page_id", pageID), slog.Int("column", column), slog.Int64("info_page_id", info.PageID), slog.Int("info_column", info.Column))
	}
	if info.AuthorTid == 0 {
		return info, invalid("ColumnVersionLogic.RegisterNewColumnVersion.check", i18n.ERROR_INVALID_EDITOR, "empty author",
			slog.Int64("page_id", pageID), slog.Int("column", column))
	}
	if bitemporal.IsZero(info.TimeFrom) {
		return info, invalid("ColumnVersionLogic.RegisterNewColumnVersion.check", i18n.ERROR_INVALIDARGUMENT, "time from is zero",
			slog.Int64("page_id", pageID), slog.Int("column", column))
	}
	info.TimeFrom = bitemporal.Normalize(info.TimeFrom)

	versions, err := l.GetColumnVersionInfoByPageCol(pageID, column, 0)
	if err != nil {
		return info, errors.Trace("ColumnVersionLogic.RegisterNewColumnVersion", err)
	}

	for _, v := range versions {
		if v.Interval().IsBoundary(info.TimeFrom) {
			return info, errors.New("ColumnVersionLogic.RegisterNewColumnVersion.boundary", i18n.ERROR_VERSION_TIME_CONFLICT, nil).
				WithTemplate(map[string]interface{}{"Column": column, "Time": bitemporal.FormatTime(info.TimeFrom)}).
				Code(http.StatusConflict)
		}
	}

	info.TimeUntil = bitemporal.EndOfTimes
	for i, v := range versions {
		interval := v.Interval()
		if v.TimeFrom.After(info.TimeFrom) {
			// 插在第一个版本之前
			info.TimeUntil = v.TimeFrom
			break
		}
		if !interval.Contains(info.TimeFrom) {
			continue
		}

		if i+1 < len(versions) {
			info.TimeUntil = versions[i+1].TimeFrom
		}
		truncated, err := interval.Truncate(info.TimeFrom)
		if err != nil {
			return info, errors.New("ColumnVersionLogic.RegisterNewColumnVersion.Truncate", i18n.ERROR_INTERNAL, err)
		}
		v.TimeUntil = truncated.Until
		if err = l.core.Store().ColumnVersionStore().Update(l.ctx, v); err != nil {
			return info, storeFailure("ColumnVersionLogic.RegisterNewColumnVersion.ColumnVersionStore.Update", err, slog.Int64("version_id", v.ID))
		}
		break
	}

	if info.ID == 0 {
		info.ID = utils.GenUniqID()
	}
	if err = l.core.Store().ColumnVersionStore().Create(l.ctx, info); err != nil {
		return info, storeFailure("ColumnVersionLogic.RegisterNewColumnVersion.ColumnVersionStore.Create", err,
			slog.Int64("page_id", pageID), slog.Int("column", column), slog.String("time_from", bitemporal.FormatTime(info.TimeFrom)))
	}
	return info, nil
}

func (l *ColumnVersionLogic) setPublished(trace string, versionID int64, published bool) error {
	version, err := l.core.Store().ColumnVersionStore().Get(l.ctx, versionID)
	if err != nil {
		if isNoRows(err) {
			return notFound(trace+".ColumnVersionStore.Get", i18n.ERROR_VERSION_NOT_FOUND, err)
		}
		return storeFailure(trace+".ColumnVersionStore.Get", err)
	}
	if version.IsPublished == published {
		return nil
	}

	version.IsPublished = published
	if err = l.core.Store().ColumnVersionStore().Update(l.ctx, *version); err != nil {
		return storeFailure(trace+".ColumnVersionStore.Update", err, slog.Int64("version_id", versionID))
	}
	return nil
}

func (l *ColumnVersionLogic) PublishVersion(versionID int64) error {
	return l.setPublished("ColumnVersionLogic.PublishVersion", versionID, true)
}

func (l *ColumnVersionLogic) UnPublishVersion(versionID int64) error {
	return l.setPublished("ColumnVersionLogic.UnPublishVersion", versionID, false)
}

// GetVersionsForSegment 文档中页面顺序在 [fromPageSeq, toPageSeq] 之间的所有栏版本
func (l *ColumnVersionLogic) GetVersionsForSegment(docID int64, fromPageSeq, toPageSeq int) ([]types.ColumnVersionInfo, error) {
	list, err := l.core.Store().ColumnVersionStore().ListByDocPageRange(l.ctx, docID, fromPageSeq, toPageSeq)
	if err != nil {
		return nil, storeFailure("ColumnVersionLogic.GetVersionsForSegment.ColumnVersionStore.ListByDocPageRange", err)
	}
	return list, nil
}

func (l *ColumnVersionLogic) GetRecentVersions(limit uint64) ([]types.ColumnVersionInfo, error) {
	list, err := l.core.Store().ColumnVersionStore().ListRecent(l.ctx, limit)
	if err != nil {
		return nil, storeFailure("ColumnVersionLogic.GetRecentVersions.ColumnVersionStore.ListRecent", err)
	}
	return list, nil
}

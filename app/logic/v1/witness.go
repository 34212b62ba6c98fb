package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/errors"
	"github.com/manuscripta/apm/pkg/i18n"
	"github.com/manuscripta/apm/pkg/itemstream"
	"github.com/manuscripta/apm/pkg/types"
)

// WitnessCacheKey 见证缓存的 key，带有时间戳，数据变化后自然产生新的 key
type WitnessCacheKey struct {
	WorkID         string
	ChunkNumber    int
	DocID          int64
	LocalWitnessID string
	TimeStamp      time.Time
}

func (k WitnessCacheKey) String(prefix string) string {
	return fmt.Sprintf("%switness:%s:%d:%d:%s:%s", prefix, k.WorkID, k.ChunkNumber, k.DocID, k.LocalWitnessID,
		strings.ReplaceAll(bitemporal.FormatTime(k.TimeStamp), " ", "T"))
}

// witnessPayload 写入缓存的内容，命中时由它重新构建条目流
type witnessPayload struct {
	Segments          [][]types.ItemStreamRow `json:"segments"`
	Notes             []types.EdNote          `json:"notes"`
	InitialLineNumber int                     `json:"initial_line_number"`
}

// TranscriptionWitness 某个 chunk 在某个文档中的转写见证
type TranscriptionWitness struct {
	WorkID            string                         `json:"work_id"`
	ChunkNumber       int                            `json:"chunk_number"`
	DocID             int64                          `json:"doc_id"`
	LocalWitnessID    string                         `json:"local_witness_id"`
	TimeStamp         string                         `json:"timestamp"`
	Lang              string                         `json:"lang"`
	InitialLineNumber int                            `json:"initial_line_number"`
	PlainText         string                         `json:"plain_text"`
	Stream            *itemstream.DatabaseItemStream `json:"-"`
}

// GetChunkLocationMap workId -> chunk -> docId -> 本地见证 -> 段号 -> 段位置
func (l *TranscriptionLogic) GetChunkLocationMap(filter types.ChunkMarkFilter, t time.Time) (types.ChunkLocationMap, error) {
	rows, err := l.core.Store().TranscriptionQueryStore().ListChunkMarks(l.ctx, filter, t)
	if err != nil {
		return nil, storeFailure("TranscriptionLogic.GetChunkLocationMap.TranscriptionQueryStore.ListChunkMarks", err)
	}

	res := make(types.ChunkLocationMap)
	for _, row := range rows {
		res.Add(row.Mark())
	}
	return res, nil
}

func (l *TranscriptionLogic) GetChunkLocationMapForChunk(workID string, chunk int, t time.Time) (types.ChunkLocationMap, error) {
	return l.GetChunkLocationMap(types.ChunkMarkFilter{WorkID: workID, ChunkNumber: chunk}, t)
}

func (l *TranscriptionLogic) GetChunkLocationMapForDoc(docID int64, t time.Time) (types.ChunkLocationMap, error) {
	return l.GetChunkLocationMap(types.ChunkMarkFilter{DocID: docID}, t)
}

// GetSegmentLocationsForWitness 按段号升序
func (l *TranscriptionLogic) GetSegmentLocationsForWitness(workID string, chunk int, docID int64, localWitnessID string, t time.Time) ([]*types.ChunkSegmentLocation, error) {
	m, err := l.GetChunkLocationMap(types.ChunkMarkFilter{
		WorkID:         workID,
		ChunkNumber:    chunk,
		DocID:          docID,
		WitnessLocalID: localWitnessID,
	}, t)
	if err != nil {
		return nil, errors.Trace("TranscriptionLogic.GetSegmentLocationsForWitness", err)
	}
	return m.Segments(workID, chunk, docID, localWitnessID), nil
}

// GetWitnessesForChunk 每个文档的每个本地见证一条，按文档 id、本地见证编号排序
func (l *TranscriptionLogic) GetWitnessesForChunk(workID string, chunk int, t time.Time) ([]types.WitnessInfo, error) {
	m, err := l.GetChunkLocationMapForChunk(workID, chunk, t)
	if err != nil {
		return nil, errors.Trace("TranscriptionLogic.GetWitnessesForChunk", err)
	}

	var res []types.WitnessInfo
	for docID, witnesses := range m[workID][chunk] {
		doc, err := l.core.Store().DocStore().Get(l.ctx, docID)
		if err != nil && !isNoRows(err) {
			return nil, storeFailure("TranscriptionLogic.GetWitnessesForChunk.DocStore.Get", err, slog.Int64("doc_id", docID))
		}
		for lwid, segments := range witnesses {
			info := types.NewWitnessInfo(workID, chunk, docID, lwid, segments)
			if doc != nil {
				info.Lang = doc.Lang
			}
			if info.LastChangeTime, err = l.lastChangeTime(docID, lo.Values(segments)); err != nil {
				return nil, errors.Trace("TranscriptionLogic.GetWitnessesForChunk", err)
			}
			res = append(res, info)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].DocID != res[j].DocID {
			return res[i].DocID < res[j].DocID
		}
		return res[i].LocalWitnessID < res[j].LocalWitnessID
	})
	return res, nil
}

// lastChangeTime 有效段覆盖的页面中最后一次栏版本的时间，没有时返回 TimeZero
func (l *TranscriptionLogic) lastChangeTime(docID int64, segments []*types.ChunkSegmentLocation) (time.Time, error) {
	last := bitemporal.TimeZero
	for _, segment := range segments {
		if !segment.IsValid() {
			continue
		}
		t, err := l.core.Store().ColumnVersionStore().LastTimeInRange(l.ctx, docID, segment.Start.Location.PageSeq, segment.End.Location.PageSeq)
		if err != nil {
			return last, storeFailure("TranscriptionLogic.lastChangeTime.ColumnVersionStore.LastTimeInRange", err, slog.Int64("doc_id", docID))
		}
		if !t.IsZero() && t.After(last) {
			last = bitemporal.Normalize(t)
		}
	}
	return last, nil
}

func (l *TranscriptionLogic) GetLastChangeTimeForWitness(workID string, chunk int, docID int64, localWitnessID string, t time.Time) (time.Time, error) {
	segments, err := l.GetSegmentLocationsForWitness(workID, chunk, docID, localWitnessID, t)
	if err != nil {
		return bitemporal.TimeZero, errors.Trace("TranscriptionLogic.GetLastChangeTimeForWitness", err)
	}
	return l.lastChangeTime(docID, segments)
}

// GetTranscriptionWitness timeStamp 为空时使用见证的最后修改时间；结果按时间戳缓存
// 见证所在的栏还没有任何版本时以当前时间构建，这种结果不写入缓存
func (l *TranscriptionLogic) GetTranscriptionWitness(workID string, chunk int, docID int64, localWitnessID, timeStamp, defaultLang string) (*TranscriptionWitness, error) {
	if localWitnessID == "" {
		localWitnessID = types.DEFAULT_LOCAL_WITNESS_ID
	}
	if defaultLang == "" {
		defaultLang = l.core.Cfg().Transcription.DefaultLang
	}

	if _, err := l.core.Store().DocStore().Get(l.ctx, docID); err != nil {
		if isNoRows(err) {
			return nil, notFound("TranscriptionLogic.GetTranscriptionWitness.DocStore.Get", i18n.ERROR_DOCUMENT_NOT_FOUND, err)
		}
		return nil, storeFailure("TranscriptionLogic.GetTranscriptionWitness.DocStore.Get", err, slog.Int64("doc_id", docID))
	}

	var t time.Time
	cacheable := true
	if strings.TrimSpace(timeStamp) == "" {
		last, err := l.GetLastChangeTimeForWitness(workID, chunk, docID, localWitnessID, bitemporal.Now())
		if err != nil {
			return nil, errors.Trace("TranscriptionLogic.GetTranscriptionWitness", err)
		}
		t = last
		if bitemporal.IsZero(t) {
			t = bitemporal.Now()
			cacheable = false
		}
	} else {
		parsed, err := bitemporal.ParseTime(timeStamp)
		if err != nil {
			return nil, invalid("TranscriptionLogic.GetTranscriptionWitness.ParseTime", i18n.ERROR_INVALIDARGUMENT, err.Error())
		}
		t = parsed
	}

	var (
		raw string
		err error
	)
	if cacheable {
		key := WitnessCacheKey{
			WorkID:         workID,
			ChunkNumber:    chunk,
			DocID:          docID,
			LocalWitnessID: localWitnessID,
			TimeStamp:      t,
		}.String(l.core.Cfg().Transcription.CacheKeyPrefix)
		if raw, err = l.cachedWitnessPayload(key, workID, chunk, docID, localWitnessID, t); err != nil {
			return nil, errors.Trace("TranscriptionLogic.GetTranscriptionWitness", err)
		}
	} else {
		l.core.Metrics().WitnessCacheInc("bypass")
		if raw, err = l.buildWitnessPayload(workID, chunk, docID, localWitnessID, t); err != nil {
			return nil, errors.Trace("TranscriptionLogic.GetTranscriptionWitness", err)
		}
	}

	var payload witnessPayload
	if err = json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, errors.New("TranscriptionLogic.GetTranscriptionWitness.Unmarshal", i18n.ERROR_CACHE, err).Code(http.StatusInternalServerError)
	}

	stream, err := itemstream.Build(payload.Segments, defaultLang, payload.Notes)
	if err != nil {
		return nil, storeFailure("TranscriptionLogic.GetTranscriptionWitness.itemstream.Build", err,
			slog.String("work_id", workID), slog.Int("chunk", chunk), slog.Int64("doc_id", docID))
	}

	return &TranscriptionWitness{
		WorkID:            workID,
		ChunkNumber:       chunk,
		DocID:             docID,
		LocalWitnessID:    localWitnessID,
		TimeStamp:         bitemporal.FormatTime(t),
		Lang:              stream.Lang(),
		InitialLineNumber: payload.InitialLineNumber,
		PlainText:         stream.PlainText(),
		Stream:            stream,
	}, nil
}

func (l *TranscriptionLogic) cachedWitnessPayload(key, workID string, chunk int, docID int64, localWitnessID string, t time.Time) (string, error) {
	raw, err := l.core.Cache().Get(l.ctx, key)
	if err == nil {
		l.core.Metrics().WitnessCacheInc("hit")
		return raw, nil
	}
	if err != redis.Nil {
		return "", errors.New("TranscriptionLogic.cachedWitnessPayload.Cache.Get", i18n.ERROR_CACHE, err).Code(http.StatusInternalServerError)
	}

	l.core.Metrics().WitnessCacheInc("miss")
	raw, err, _ = l.core.Cache().Do(key, func() (string, error) {
		raw, err := l.buildWitnessPayload(workID, chunk, docID, localWitnessID, t)
		if err != nil {
			return "", err
		}
		if err = l.core.Cache().Set(l.ctx, key, raw, l.core.Cfg().Transcription.WitnessCacheDuration()); err != nil {
			return "", errors.New("TranscriptionLogic.cachedWitnessPayload.Cache.Set", i18n.ERROR_CACHE, err).Code(http.StatusInternalServerError)
		}
		return raw, nil
	})
	return raw, err
}

func (l *TranscriptionLogic) buildWitnessPayload(workID string, chunk int, docID int64, localWitnessID string, t time.Time) (string, error) {
	segments, err := l.GetSegmentLocationsForWitness(workID, chunk, docID, localWitnessID, t)
	if err != nil {
		return "", errors.Trace("TranscriptionLogic.buildWitnessPayload", err)
	}
	if len(segments) == 0 {
		return "", notFound("TranscriptionLogic.buildWitnessPayload.segments", i18n.ERROR_NO_LOCATIONS, nil)
	}

	payload := witnessPayload{InitialLineNumber: 1}
	first := true
	for _, segment := range segments {
		if !segment.IsValid() {
			continue
		}
		rows, err := l.core.Store().TranscriptionQueryStore().ListItemRowsBetween(l.ctx, docID, segment.Start.Location, segment.End.Location, t)
		if err != nil {
			return "", storeFailure("TranscriptionLogic.buildWitnessPayload.TranscriptionQueryStore.ListItemRowsBetween", err, slog.Int64("doc_id", docID))
		}
		if rows, err = l.spliceReplacements(rows, t); err != nil {
			return "", errors.Trace("TranscriptionLogic.buildWitnessPayload", err)
		}
		payload.Segments = append(payload.Segments, rows)

		if first {
			first = false
			if payload.InitialLineNumber, err = l.initialLineNumber(segment.Start.Location, t); err != nil {
				return "", errors.Trace("TranscriptionLogic.buildWitnessPayload", err)
			}
		}
	}

	notes, err := NewEdNoteLogic(l.ctx, l.core).GetEditorialNotesByItemIDs(types.ItemStreamRowIDs(payload.Segments...))
	if err != nil {
		return "", errors.Trace("TranscriptionLogic.buildWitnessPayload", err)
	}
	payload.Notes = notes

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.New("TranscriptionLogic.buildWitnessPayload.Marshal", i18n.ERROR_CACHE, err).Code(http.StatusInternalServerError)
	}
	return string(raw), nil
}

// spliceReplacements 把替换 Deletion/Unclear/MarginalMark 的 Addition 条目以及 Addition/Substitution 元素
// 放到被替换条目之后
func (l *TranscriptionLogic) spliceReplacements(rows []types.ItemStreamRow, t time.Time) ([]types.ItemStreamRow, error) {
	replaceable := lo.FilterMap(rows, func(r types.ItemStreamRow, _ int) (int64, bool) {
		return r.ID, r.Type.CanBeReplaced()
	})
	if len(replaceable) == 0 {
		return rows, nil
	}

	additions, err := l.core.Store().TranscriptionQueryStore().ListAdditionItemRows(l.ctx, replaceable, t)
	if err != nil {
		return nil, storeFailure("TranscriptionLogic.spliceReplacements.TranscriptionQueryStore.ListAdditionItemRows", err)
	}
	elements, err := l.core.Store().TranscriptionQueryStore().ListReplacementElementRows(l.ctx, replaceable, t)
	if err != nil {
		return nil, storeFailure("TranscriptionLogic.spliceReplacements.TranscriptionQueryStore.ListReplacementElementRows", err)
	}

	additionsByTarget := lo.GroupBy(additions, func(r types.ItemStreamRow) int64 { return r.Target })
	elementsByRef := lo.GroupBy(elements, func(r types.ItemStreamRow) int64 { return r.ElementReference })
	spliced := make(map[int64]bool, len(additions))
	for _, r := range additions {
		spliced[r.ID] = true
	}

	res := make([]types.ItemStreamRow, 0, len(rows)+len(additions)+len(elements))
	for _, r := range rows {
		if spliced[r.ID] {
			continue
		}
		res = append(res, r)
		if !r.Type.CanBeReplaced() {
			continue
		}
		res = append(res, additionsByTarget[r.ID]...)
		res = append(res, elementsByRef[r.ID]...)
	}
	return res, nil
}

// initialLineNumber 起始位置之前同一栏中 Line 元素的行数加上文字中的换行
func (l *TranscriptionLogic) initialLineNumber(start types.ItemLocation, t time.Time) (int, error) {
	rows, err := l.core.Store().TranscriptionQueryStore().ListItemRowsBefore(l.ctx, start.PageID, start.ColumnNumber, start, t)
	if err != nil {
		return 0, storeFailure("TranscriptionLogic.initialLineNumber.TranscriptionQueryStore.ListItemRowsBefore", err)
	}

	lines := make(map[int64]bool)
	newlines := 0
	for _, r := range rows {
		if r.ElementSeq < start.ElementSeq {
			lines[r.ColumnElementID] = true
		}
		newlines += strings.Count(r.Text, "\n")
	}
	return len(lines) + newlines + 1, nil
}

package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/types"
)

var _ store.TranscriptionQueryStore = (*TranscriptionQueryStore)(nil)

// TranscriptionQueryStore 条目、元素与页面的连接查询
type TranscriptionQueryStore struct {
	table
}

// rows 在 t 时有效且满足 match 的连接行，调用方需持有读锁
func (s *TranscriptionQueryStore) rows(t time.Time, match func(r types.ItemStreamRow) bool) []types.ItemStreamRow {
	elements := make(map[int64]types.Element)
	for _, e := range s.p.st.elements {
		if contains(e.ValidFrom, e.ValidUntil, t) {
			elements[e.ID] = e
		}
	}

	var res []types.ItemStreamRow
	for _, item := range s.p.st.items {
		if !contains(item.ValidFrom, item.ValidUntil, t) {
			continue
		}
		e, ok := elements[item.ColumnElementID]
		if !ok {
			continue
		}
		page, ok := s.p.st.pages[e.PageID]
		if !ok {
			continue
		}
		row := types.ItemStreamRow{
			ID:               item.ID,
			Type:             item.Type,
			Seq:              item.Seq,
			Lang:             item.Lang,
			HandID:           item.HandID,
			Text:             item.Text,
			AltText:          item.AltText,
			ExtraInfo:        item.ExtraInfo,
			Length:           item.Length,
			Target:           item.Target,
			ColumnElementID:  e.ID,
			ElementType:      e.Type,
			ElementSeq:       e.Seq,
			ElementLang:      e.Lang,
			ElementHandID:    e.HandID,
			ElementReference: e.Reference,
			ElementPlacement: e.Placement,
			ColumnNumber:     e.ColumnNumber,
			PageID:           e.PageID,
			PageSeq:          page.Seq,
			Foliation:        page.Foliation,
			DocID:            page.DocID,
		}
		if match(row) {
			res = append(res, row)
		}
	}
	sortByLocation(res)
	return res
}

func (s *TranscriptionQueryStore) ListChunkMarks(_ context.Context, filter types.ChunkMarkFilter, t time.Time) ([]types.ChunkMarkRow, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	rows := s.rows(t, func(r types.ItemStreamRow) bool {
		if r.Type != types.ITEM_CHUNK_MARK {
			return false
		}
		if filter.WorkID != "" && r.Text != filter.WorkID {
			return false
		}
		if filter.ChunkNumber > 0 && r.Target != int64(filter.ChunkNumber) {
			return false
		}
		if filter.DocID > 0 && r.DocID != filter.DocID {
			return false
		}
		if filter.WitnessLocalID != "" {
			lwid := r.ExtraInfo
			if lwid == "" {
				lwid = types.DEFAULT_LOCAL_WITNESS_ID
			}
			if lwid != filter.WitnessLocalID {
				return false
			}
		}
		return true
	})

	res := make([]types.ChunkMarkRow, 0, len(rows))
	for _, r := range rows {
		res = append(res, types.ChunkMarkRow{ItemStreamRow: r})
	}
	return res, nil
}

func compareLocation(a, b types.ItemLocation) int {
	pairs := [][2]int{
		{a.PageSeq, b.PageSeq},
		{a.ColumnNumber, b.ColumnNumber},
		{a.ElementSeq, b.ElementSeq},
		{a.ItemSeq, b.ItemSeq},
	}
	for _, p := range pairs {
		if p[0] < p[1] {
			return -1
		}
		if p[0] > p[1] {
			return 1
		}
	}
	return 0
}

func (s *TranscriptionQueryStore) ListItemRowsBetween(_ context.Context, docID int64, from, to types.ItemLocation, t time.Time) ([]types.ItemStreamRow, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	return s.rows(t, func(r types.ItemStreamRow) bool {
		if r.DocID != docID || r.ElementType != types.ELEMENT_LINE {
			return false
		}
		loc := r.Location()
		return compareLocation(loc, from) >= 0 && compareLocation(loc, to) <= 0
	}), nil
}

func (s *TranscriptionQueryStore) ListItemRowsBefore(_ context.Context, pageID int64, column int, loc types.ItemLocation, t time.Time) ([]types.ItemStreamRow, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	return s.rows(t, func(r types.ItemStreamRow) bool {
		if r.PageID != pageID || r.ColumnNumber != column || r.ElementType != types.ELEMENT_LINE {
			return false
		}
		return r.ElementSeq < loc.ElementSeq || (r.ElementSeq == loc.ElementSeq && r.Seq < loc.ItemSeq)
	}), nil
}

func idSet(ids []int64) map[int64]bool {
	res := make(map[int64]bool, len(ids))
	for _, id := range ids {
		res[id] = true
	}
	return res
}

func (s *TranscriptionQueryStore) ListAdditionItemRows(_ context.Context, targets []int64, t time.Time) ([]types.ItemStreamRow, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	wanted := idSet(targets)
	return s.rows(t, func(r types.ItemStreamRow) bool {
		return r.Type == types.ITEM_ADDITION && wanted[r.Target]
	}), nil
}

func (s *TranscriptionQueryStore) ListReplacementElementRows(_ context.Context, targets []int64, t time.Time) ([]types.ItemStreamRow, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	wanted := idSet(targets)
	return s.rows(t, func(r types.ItemStreamRow) bool {
		return r.ElementType.HasItemReference() && wanted[r.ElementReference]
	}), nil
}

func (s *TranscriptionQueryStore) ListTranscribedPages(_ context.Context, docID int64, t time.Time) ([]types.TranscribedPage, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	seen := make(map[int64]bool)
	var res []types.TranscribedPage
	for _, e := range s.p.st.elements {
		if seen[e.PageID] || !contains(e.ValidFrom, e.ValidUntil, t) {
			continue
		}
		page, ok := s.p.st.pages[e.PageID]
		if !ok || page.DocID != docID {
			continue
		}
		seen[e.PageID] = true
		res = append(res, types.TranscribedPage{
			PageID:     page.ID,
			Seq:        page.Seq,
			PageNumber: page.PageNumber,
			Foliation:  page.Foliation,
			NumCols:    page.NumCols,
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Seq < res[j].Seq })
	return res, nil
}

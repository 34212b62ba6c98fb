package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/types"
)

var (
	_ store.ColumnVersionStore = (*ColumnVersionStore)(nil)
	_ store.EdNoteStore        = (*EdNoteStore)(nil)
)

type ColumnVersionStore struct {
	table
}

func (s *ColumnVersionStore) Create(_ context.Context, data types.ColumnVersionInfo) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if data.ID == 0 {
		data.ID = int64(len(s.p.st.versions)) + 1
		for {
			if _, exist := s.p.st.versions[data.ID]; !exist {
				break
			}
			data.ID++
		}
	}
	data.TimeFrom = bitemporal.Normalize(data.TimeFrom)
	if _, exist := s.p.st.versions[data.ID]; exist {
		return fmt.Errorf("%w: %s id %d", store.ErrRowAlreadyExists, s.GetTable(), data.ID)
	}
	for _, v := range s.p.st.versions {
		if v.PageID == data.PageID && v.Column == data.Column && v.TimeFrom.Equal(data.TimeFrom) {
			return fmt.Errorf("%w: %s page %d col %d", store.ErrRowAlreadyExists, s.GetTable(), data.PageID, data.Column)
		}
	}
	data.TimeUntil = bitemporal.Normalize(data.TimeUntil)
	s.p.st.versions[data.ID] = data
	return nil
}

func (s *ColumnVersionStore) Update(_ context.Context, data types.ColumnVersionInfo) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if _, exist := s.p.st.versions[data.ID]; !exist {
		return fmt.Errorf("%w: %s id %d", store.ErrRowDoesNotExist, s.GetTable(), data.ID)
	}
	data.TimeFrom = bitemporal.Normalize(data.TimeFrom)
	data.TimeUntil = bitemporal.Normalize(data.TimeUntil)
	s.p.st.versions[data.ID] = data
	return nil
}

func (s *ColumnVersionStore) Get(_ context.Context, id int64) (*types.ColumnVersionInfo, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	v, exist := s.p.st.versions[id]
	if !exist {
		return nil, sql.ErrNoRows
	}
	return &v, nil
}

func (s *ColumnVersionStore) filter(match func(v types.ColumnVersionInfo) bool) []types.ColumnVersionInfo {
	var res []types.ColumnVersionInfo
	for _, v := range s.p.st.versions {
		if match(v) {
			res = append(res, v)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].TimeFrom.Equal(res[j].TimeFrom) {
			return res[i].TimeFrom.Before(res[j].TimeFrom)
		}
		return res[i].ID < res[j].ID
	})
	return res
}

func (s *ColumnVersionStore) ListByPageCol(_ context.Context, pageID int64, column int) ([]types.ColumnVersionInfo, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	return s.filter(func(v types.ColumnVersionInfo) bool {
		return v.PageID == pageID && v.Column == column
	}), nil
}

func (s *ColumnVersionStore) inRange(docID int64, fromSeq, toSeq int) func(v types.ColumnVersionInfo) bool {
	return func(v types.ColumnVersionInfo) bool {
		page, exist := s.p.st.pages[v.PageID]
		return exist && page.DocID == docID && page.Seq >= fromSeq && page.Seq <= toSeq
	}
}

func (s *ColumnVersionStore) ListByDocPageRange(_ context.Context, docID int64, fromSeq, toSeq int) ([]types.ColumnVersionInfo, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	return s.filter(s.inRange(docID, fromSeq, toSeq)), nil
}

func (s *ColumnVersionStore) LastTimeInRange(_ context.Context, docID int64, fromSeq, toSeq int) (time.Time, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	list := s.filter(s.inRange(docID, fromSeq, toSeq))
	if len(list) == 0 {
		return time.Time{}, nil
	}
	return list[len(list)-1].TimeFrom, nil
}

func (s *ColumnVersionStore) ListRecent(_ context.Context, limit uint64) ([]types.ColumnVersionInfo, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	list := s.filter(func(types.ColumnVersionInfo) bool { return true })
	res := make([]types.ColumnVersionInfo, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		if limit > 0 && uint64(len(res)) >= limit {
			break
		}
		res = append(res, list[i])
	}
	return res, nil
}

type EdNoteStore struct {
	table
}

func (s *EdNoteStore) Create(_ context.Context, data types.EdNote) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if _, exist := s.p.st.ednotes[data.ID]; exist {
		return fmt.Errorf("%w: %s id %d", store.ErrRowAlreadyExists, s.GetTable(), data.ID)
	}
	s.p.st.ednotes[data.ID] = data
	return nil
}

func (s *EdNoteStore) Update(_ context.Context, data types.EdNote) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if _, exist := s.p.st.ednotes[data.ID]; !exist {
		return fmt.Errorf("%w: %s id %d", store.ErrRowDoesNotExist, s.GetTable(), data.ID)
	}
	s.p.st.ednotes[data.ID] = data
	return nil
}

func (s *EdNoteStore) Get(_ context.Context, id int64) (*types.EdNote, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	n, exist := s.p.st.ednotes[id]
	if !exist {
		return nil, sql.ErrNoRows
	}
	return &n, nil
}

func (s *EdNoteStore) list(match func(n types.EdNote) bool) []types.EdNote {
	var res []types.EdNote
	for _, n := range s.p.st.ednotes {
		if match(n) {
			res = append(res, n)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Target != res[j].Target {
			return res[i].Target < res[j].Target
		}
		return res[i].ID < res[j].ID
	})
	return res
}

func (s *EdNoteStore) ListByTargets(_ context.Context, targets []int64) ([]types.EdNote, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	wanted := make(map[int64]bool, len(targets))
	for _, t := range targets {
		wanted[t] = true
	}
	return s.list(func(n types.EdNote) bool { return wanted[n.Target] }), nil
}

func (s *EdNoteStore) ListByTypeAndTarget(_ context.Context, noteType types.EdNoteType, target int64) ([]types.EdNote, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	return s.list(func(n types.EdNote) bool { return n.Type == noteType && n.Target == target }), nil
}

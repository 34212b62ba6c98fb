package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/types"
)

var (
	_ store.ElementStore = (*ElementStore)(nil)
	_ store.ItemStore    = (*ItemStore)(nil)
)

func missing(table string, id int64, t time.Time) error {
	return fmt.Errorf("%w: %s id %d at %s", store.ErrRowDoesNotExist, table, id, bitemporal.FormatTime(t))
}

type ElementStore struct {
	table
}

// current 返回 id 在 t 时有效的行下标
func (s *ElementStore) current(id int64, t time.Time) int {
	for i, e := range s.p.st.elements {
		if e.ID == id && contains(e.ValidFrom, e.ValidUntil, t) {
			return i
		}
	}
	return -1
}

func (s *ElementStore) Create(_ context.Context, data types.Element, t time.Time) (int64, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	s.p.st.elementSeq++
	data.ID = s.p.st.elementSeq
	data.ValidFrom = bitemporal.Normalize(t)
	data.ValidUntil = bitemporal.EndOfTimes
	data.Items = nil
	s.p.st.elements = append(s.p.st.elements, data)
	return data.ID, nil
}

func (s *ElementStore) Update(_ context.Context, data types.Element, t time.Time) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	t = bitemporal.Normalize(t)
	idx := s.current(data.ID, t)
	if idx < 0 {
		return missing(s.GetTable(), data.ID, t)
	}
	old := s.p.st.elements[idx]
	data.Items = nil
	if old.ValidFrom.Equal(t) {
		data.ValidFrom, data.ValidUntil = old.ValidFrom, old.ValidUntil
		s.p.st.elements[idx] = data
		return nil
	}
	s.p.st.elements[idx].ValidUntil = t
	data.ValidFrom, data.ValidUntil = t, old.ValidUntil
	s.p.st.elements = append(s.p.st.elements, data)
	return nil
}

func (s *ElementStore) Delete(_ context.Context, id int64, t time.Time) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	t = bitemporal.Normalize(t)
	idx := s.current(id, t)
	if idx < 0 {
		return missing(s.GetTable(), id, t)
	}
	s.p.st.elements[idx].ValidUntil = t
	return nil
}

func (s *ElementStore) Get(_ context.Context, id int64, t time.Time) (*types.Element, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	idx := s.current(id, t)
	if idx < 0 {
		return nil, missing(s.GetTable(), id, t)
	}
	res := s.p.st.elements[idx]
	return &res, nil
}

func (s *ElementStore) ListByPageCol(_ context.Context, pageID int64, column int, t time.Time) ([]types.Element, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	var res []types.Element
	for _, e := range s.p.st.elements {
		if e.PageID == pageID && e.ColumnNumber == column && contains(e.ValidFrom, e.ValidUntil, t) {
			res = append(res, e)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Seq < res[j].Seq })
	return res, nil
}

func (s *ElementStore) MaxSeq(_ context.Context, pageID int64, column int, t time.Time) (int, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	max := -1
	for _, e := range s.p.st.elements {
		if e.PageID == pageID && e.ColumnNumber == column && contains(e.ValidFrom, e.ValidUntil, t) && e.Seq > max {
			max = e.Seq
		}
	}
	return max, nil
}

func (s *ElementStore) MaxColumn(_ context.Context, pageID int64, t time.Time) (int, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	max := 0
	for _, e := range s.p.st.elements {
		if e.PageID == pageID && contains(e.ValidFrom, e.ValidUntil, t) && e.ColumnNumber > max {
			max = e.ColumnNumber
		}
	}
	return max, nil
}

type ItemStore struct {
	table
}

func (s *ItemStore) current(id int64, t time.Time) int {
	for i, item := range s.p.st.items {
		if item.ID == id && contains(item.ValidFrom, item.ValidUntil, t) {
			return i
		}
	}
	return -1
}

func (s *ItemStore) Create(_ context.Context, data types.Item, t time.Time) (int64, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	s.p.st.itemSeq++
	data.ID = s.p.st.itemSeq
	data.ValidFrom = bitemporal.Normalize(t)
	data.ValidUntil = bitemporal.EndOfTimes
	s.p.st.items = append(s.p.st.items, data)
	return data.ID, nil
}

func (s *ItemStore) Update(_ context.Context, data types.Item, t time.Time) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	t = bitemporal.Normalize(t)
	idx := s.current(data.ID, t)
	if idx < 0 {
		return missing(s.GetTable(), data.ID, t)
	}
	old := s.p.st.items[idx]
	if old.ValidFrom.Equal(t) {
		data.ValidFrom, data.ValidUntil = old.ValidFrom, old.ValidUntil
		s.p.st.items[idx] = data
		return nil
	}
	s.p.st.items[idx].ValidUntil = t
	data.ValidFrom, data.ValidUntil = t, old.ValidUntil
	s.p.st.items = append(s.p.st.items, data)
	return nil
}

func (s *ItemStore) Delete(_ context.Context, id int64, t time.Time) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	t = bitemporal.Normalize(t)
	idx := s.current(id, t)
	if idx < 0 {
		return missing(s.GetTable(), id, t)
	}
	s.p.st.items[idx].ValidUntil = t
	return nil
}

func (s *ItemStore) Get(_ context.Context, id int64, t time.Time) (*types.Item, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	idx := s.current(id, t)
	if idx < 0 {
		return nil, missing(s.GetTable(), id, t)
	}
	res := s.p.st.items[idx]
	return &res, nil
}

func (s *ItemStore) ListByElements(_ context.Context, elementIDs []int64, t time.Time) ([]types.Item, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	wanted := make(map[int64]bool, len(elementIDs))
	for _, id := range elementIDs {
		wanted[id] = true
	}
	var res []types.Item
	for _, item := range s.p.st.items {
		if wanted[item.ColumnElementID] && contains(item.ValidFrom, item.ValidUntil, t) {
			res = append(res, item)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].ColumnElementID != res[j].ColumnElementID {
			return res[i].ColumnElementID < res[j].ColumnElementID
		}
		return res[i].Seq < res[j].Seq
	})
	return res, nil
}

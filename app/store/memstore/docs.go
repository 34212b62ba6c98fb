package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/types"
)

var (
	_ store.DocStore    = (*DocStore)(nil)
	_ store.PageStore   = (*PageStore)(nil)
	_ store.PersonStore = (*PersonStore)(nil)
)

type DocStore struct {
	table
}

func (s *DocStore) Create(_ context.Context, data types.Doc) (int64, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	s.p.st.docSeq++
	data.ID = s.p.st.docSeq
	s.p.st.docs[data.ID] = data
	return data.ID, nil
}

func (s *DocStore) Get(_ context.Context, id int64) (*types.Doc, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	d, exist := s.p.st.docs[id]
	if !exist {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (s *DocStore) GetByLegacyID(_ context.Context, legacyID string) (*types.Doc, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	for _, d := range s.p.st.docs {
		if d.LegacyID == legacyID {
			return &d, nil
		}
	}
	return nil, sql.ErrNoRows
}

type PageStore struct {
	table
}

func (s *PageStore) Create(_ context.Context, data types.Page) (int64, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	for _, p := range s.p.st.pages {
		if p.DocID == data.DocID && p.Seq == data.Seq {
			return 0, fmt.Errorf("%w: %s doc %d seq %d", store.ErrRowAlreadyExists, s.GetTable(), data.DocID, data.Seq)
		}
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = time.Now().Unix()
	}
	s.p.st.pageSeq++
	data.ID = s.p.st.pageSeq
	s.p.st.pages[data.ID] = data
	return data.ID, nil
}

func (s *PageStore) find(match func(p types.Page) bool) (*types.Page, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	for _, p := range s.p.st.pages {
		if match(p) {
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *PageStore) Get(_ context.Context, id int64) (*types.Page, error) {
	return s.find(func(p types.Page) bool { return p.ID == id })
}

func (s *PageStore) GetByDocPage(_ context.Context, docID int64, pageNumber int) (*types.Page, error) {
	return s.find(func(p types.Page) bool { return p.DocID == docID && p.PageNumber == pageNumber })
}

func (s *PageStore) GetByDocSeq(_ context.Context, docID int64, seq int) (*types.Page, error) {
	return s.find(func(p types.Page) bool { return p.DocID == docID && p.Seq == seq })
}

func (s *PageStore) ListByDoc(_ context.Context, docID int64) ([]types.Page, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	var res []types.Page
	for _, p := range s.p.st.pages {
		if p.DocID == docID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Seq < res[j].Seq })
	return res, nil
}

func (s *PageStore) UpdateSettings(_ context.Context, id int64, settings types.PageSettings) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	p, exist := s.p.st.pages[id]
	if !exist {
		return nil
	}
	if settings.Foliation != nil {
		p.Foliation = *settings.Foliation
	}
	if settings.NumCols != nil {
		p.NumCols = *settings.NumCols
	}
	if settings.Lang != nil {
		p.Lang = *settings.Lang
	}
	if settings.Type != nil {
		p.Type = *settings.Type
	}
	p.UpdatedAt = time.Now().Unix()
	s.p.st.pages[id] = p
	return nil
}

type PersonStore struct {
	table
}

func (s *PersonStore) Create(_ context.Context, data types.Person) (int64, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	s.p.st.personSeq++
	data.Tid = s.p.st.personSeq
	s.p.st.people[data.Tid] = data
	return data.Tid, nil
}

func (s *PersonStore) Get(_ context.Context, tid int64) (*types.Person, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	p, exist := s.p.st.people[tid]
	if !exist {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

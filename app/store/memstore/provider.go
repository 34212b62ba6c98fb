// Package memstore 内存实现的数据访问层，语义与 sqlstore 一致，用于测试与本地开发
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/types"
)

type state struct {
	elements []types.Element
	items    []types.Item
	versions map[int64]types.ColumnVersionInfo
	ednotes  map[int64]types.EdNote
	docs     map[int64]types.Doc
	pages    map[int64]types.Page
	people   map[int64]types.Person

	elementSeq int64
	itemSeq    int64
	docSeq     int64
	pageSeq    int64
	personSeq  int64
}

func newState() *state {
	return &state{
		versions: make(map[int64]types.ColumnVersionInfo),
		ednotes:  make(map[int64]types.EdNote),
		docs:     make(map[int64]types.Doc),
		pages:    make(map[int64]types.Page),
		people:   make(map[int64]types.Person),
	}
}

// clone 事务开始时的快照，元素的 Items 字段不在存储中使用
func (s *state) clone() *state {
	c := *s
	c.elements = append([]types.Element(nil), s.elements...)
	c.items = append([]types.Item(nil), s.items...)
	c.versions = lo.Assign(s.versions)
	c.ednotes = lo.Assign(s.ednotes)
	c.docs = lo.Assign(s.docs)
	c.pages = lo.Assign(s.pages)
	c.people = lo.Assign(s.people)
	return &c
}

type txKey struct{}

// Provider 所有表共享同一份状态
type Provider struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	st   *state

	elements *ElementStore
	items    *ItemStore
	versions *ColumnVersionStore
	ednotes  *EdNoteStore
	docs     *DocStore
	pages    *PageStore
	people   *PersonStore
	query    *TranscriptionQueryStore
}

var _ store.Provider = (*Provider)(nil)

func New() *Provider {
	p := &Provider{st: newState()}
	p.elements = &ElementStore{table{p, types.TABLE_ELEMENTS}}
	p.items = &ItemStore{table{p, types.TABLE_ITEMS}}
	p.versions = &ColumnVersionStore{table{p, types.TABLE_VERSIONS_TX}}
	p.ednotes = &EdNoteStore{table{p, types.TABLE_EDNOTES}}
	p.docs = &DocStore{table{p, types.TABLE_DOCS}}
	p.pages = &PageStore{table{p, types.TABLE_PAGES}}
	p.people = &PersonStore{table{p, types.TABLE_PEOPLE}}
	p.query = &TranscriptionQueryStore{table{p, types.TABLE_ITEMS}}
	return p
}

// Transaction 出错或 panic 时恢复到事务开始时的快照；事务之间串行执行
func (p *Provider) Transaction(ctx context.Context, next func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return next(ctx)
	}

	p.txMu.Lock()
	defer p.txMu.Unlock()

	p.mu.RLock()
	snapshot := p.st.clone()
	p.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			p.restore(snapshot)
			panic(r)
		}
		if err != nil {
			p.restore(snapshot)
		}
	}()

	return next(context.WithValue(ctx, txKey{}, true))
}

func (p *Provider) restore(snapshot *state) {
	p.mu.Lock()
	p.st = snapshot
	p.mu.Unlock()
}

func (p *Provider) ElementStore() store.ElementStore                       { return p.elements }
func (p *Provider) ItemStore() store.ItemStore                             { return p.items }
func (p *Provider) ColumnVersionStore() store.ColumnVersionStore           { return p.versions }
func (p *Provider) EdNoteStore() store.EdNoteStore                         { return p.ednotes }
func (p *Provider) DocStore() store.DocStore                               { return p.docs }
func (p *Provider) PageStore() store.PageStore                             { return p.pages }
func (p *Provider) PersonStore() store.PersonStore                         { return p.people }
func (p *Provider) TranscriptionQueryStore() store.TranscriptionQueryStore { return p.query }

type table struct {
	p    *Provider
	name types.TableName
}

func (t table) GetTable(...interface{}) string {
	return t.name.Name()
}

func contains(from, until, t time.Time) bool {
	return bitemporal.NewInterval(from, until).Contains(t)
}

func sortByLocation(rows []types.ItemStreamRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.DocID != b.DocID {
			return a.DocID < b.DocID
		}
		return compareLocation(a.Location(), b.Location()) < 0
	})
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/sqlstore"
	"github.com/manuscripta/apm/pkg/types"
)

// 版本化数据表的完整性错误，出现即意味着数据已损坏
var (
	ErrRowDoesNotExist   = errors.New("row does not exist")
	ErrRowAlreadyExists  = errors.New("row already exists")
	ErrInvalidTimeString = bitemporal.ErrInvalidTimeString
)

// Provider 转写引擎依赖的全部数据访问
type Provider interface {
	Transaction(ctx context.Context, next func(ctx context.Context) error) error
	ElementStore() ElementStore
	ItemStore() ItemStore
	ColumnVersionStore() ColumnVersionStore
	EdNoteStore() EdNoteStore
	DocStore() DocStore
	PageStore() PageStore
	PersonStore() PersonStore
	TranscriptionQueryStore() TranscriptionQueryStore
}

// ElementStore 版本化的元素表，所有读取都以时间 t 为准：valid_from <= t < valid_until
type ElementStore interface {
	sqlstore.SqlCommons
	// Create 写入新元素（不含条目），返回分配的 id
	Create(ctx context.Context, data types.Element, t time.Time) (int64, error)
	// Update 在 t 关闭当前行并写入新行；当前行恰好从 t 开始时原地更新
	Update(ctx context.Context, data types.Element, t time.Time) error
	Delete(ctx context.Context, id int64, t time.Time) error
	Get(ctx context.Context, id int64, t time.Time) (*types.Element, error)
	// ListByPageCol 按 seq 升序
	ListByPageCol(ctx context.Context, pageID int64, column int, t time.Time) ([]types.Element, error)
	// MaxSeq 栏中没有元素时返回 -1
	MaxSeq(ctx context.Context, pageID int64, column int, t time.Time) (int, error)
	// MaxColumn 页面中含有元素的最大栏号，没有元素时返回 0
	MaxColumn(ctx context.Context, pageID int64, t time.Time) (int, error)
}

type ItemStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Item, t time.Time) (int64, error)
	Update(ctx context.Context, data types.Item, t time.Time) error
	Delete(ctx context.Context, id int64, t time.Time) error
	Get(ctx context.Context, id int64, t time.Time) (*types.Item, error)
	// ListByElements 按 ce_id, seq 升序
	ListByElements(ctx context.Context, elementIDs []int64, t time.Time) ([]types.Item, error)
}

// ColumnVersionStore 栏版本表，不做版本化，直接修改
type ColumnVersionStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ColumnVersionInfo) error
	Update(ctx context.Context, data types.ColumnVersionInfo) error
	Get(ctx context.Context, id int64) (*types.ColumnVersionInfo, error)
	// ListByPageCol 按 time_from 升序
	ListByPageCol(ctx context.Context, pageID int64, column int) ([]types.ColumnVersionInfo, error)
	// ListByDocPageRange 文档中页面顺序在 [fromSeq, toSeq] 内的所有版本，按 time_from 升序
	ListByDocPageRange(ctx context.Context, docID int64, fromSeq, toSeq int) ([]types.ColumnVersionInfo, error)
	// LastTimeInRange 同上范围内最晚的 time_from，没有版本时返回零值
	LastTimeInRange(ctx context.Context, docID int64, fromSeq, toSeq int) (time.Time, error)
	// ListRecent 按 time_from 降序
	ListRecent(ctx context.Context, limit uint64) ([]types.ColumnVersionInfo, error)
}

type EdNoteStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.EdNote) error
	Update(ctx context.Context, data types.EdNote) error
	Get(ctx context.Context, id int64) (*types.EdNote, error)
	ListByTargets(ctx context.Context, targets []int64) ([]types.EdNote, error)
	ListByTypeAndTarget(ctx context.Context, noteType types.EdNoteType, target int64) ([]types.EdNote, error)
}

type DocStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Doc) (int64, error)
	Get(ctx context.Context, id int64) (*types.Doc, error)
	GetByLegacyID(ctx context.Context, legacyID string) (*types.Doc, error)
}

type PageStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Page) (int64, error)
	Get(ctx context.Context, id int64) (*types.Page, error)
	GetByDocPage(ctx context.Context, docID int64, pageNumber int) (*types.Page, error)
	GetByDocSeq(ctx context.Context, docID int64, seq int) (*types.Page, error)
	// ListByDoc 按 seq 升序
	ListByDoc(ctx context.Context, docID int64) ([]types.Page, error)
	UpdateSettings(ctx context.Context, id int64, settings types.PageSettings) error
}

type PersonStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Person) (int64, error)
	Get(ctx context.Context, tid int64) (*types.Person, error)
}

// TranscriptionQueryStore 跨表的连接查询，条目行按 (页面顺序, 栏, 元素顺序, 条目顺序) 排序
type TranscriptionQueryStore interface {
	ListChunkMarks(ctx context.Context, filter types.ChunkMarkFilter, t time.Time) ([]types.ChunkMarkRow, error)
	// ListItemRowsBetween Line 元素中位于 [from, to] 的条目行
	ListItemRowsBetween(ctx context.Context, docID int64, from, to types.ItemLocation, t time.Time) ([]types.ItemStreamRow, error)
	// ListItemRowsBefore 同一页同一栏中位于 loc 之前的 Line 条目行
	ListItemRowsBefore(ctx context.Context, pageID int64, column int, loc types.ItemLocation, t time.Time) ([]types.ItemStreamRow, error)
	// ListAdditionItemRows target 在 targets 中的 Addition 条目行
	ListAdditionItemRows(ctx context.Context, targets []int64, t time.Time) ([]types.ItemStreamRow, error)
	// ListReplacementElementRows reference 在 targets 中的 Addition/Substitution 元素的条目行
	ListReplacementElementRows(ctx context.Context, targets []int64, t time.Time) ([]types.ItemStreamRow, error)
	ListTranscribedPages(ctx context.Context, docID int64, t time.Time) ([]types.TranscribedPage, error)
}

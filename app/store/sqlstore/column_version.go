package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/register"
	"github.com/manuscripta/apm/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ColumnVersionStore = NewColumnVersionStore(provider)
	})
}

type ColumnVersionStore struct {
	CommonFields
}

// NewColumnVersionStore 栏版本表
func NewColumnVersionStore(provider SqlProviderAchieve) *ColumnVersionStore {
	repo := &ColumnVersionStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_VERSIONS_TX)
	repo.SetAllColumns("id", "page_id", "col", "time_from", "time_until", "author_tid", "descr", "is_minor", "is_review", "is_published")
	return repo
}

// Create
func (s *ColumnVersionStore) Create(ctx context.Context, data types.ColumnVersionInfo) error {
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.PageID, data.Column, bitemporal.Normalize(data.TimeFrom), bitemporal.Normalize(data.TimeUntil),
			data.AuthorTid, data.Description, data.IsMinor, data.IsReview, data.IsPublished)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	if _, err = s.GetMaster(ctx).Exec(queryString, args...); err != nil {
		return wrapWriteError(err)
	}
	return nil
}

// Update
func (s *ColumnVersionStore) Update(ctx context.Context, data types.ColumnVersionInfo) error {
	query := sq.Update(s.GetTable()).SetMap(map[string]interface{}{
		"time_from":    bitemporal.Normalize(data.TimeFrom),
		"time_until":   bitemporal.Normalize(data.TimeUntil),
		"author_tid":   data.AuthorTid,
		"descr":        data.Description,
		"is_minor":     data.IsMinor,
		"is_review":    data.IsReview,
		"is_published": data.IsPublished,
	}).Where(sq.Eq{"id": data.ID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	if _, err = s.GetMaster(ctx).Exec(queryString, args...); err != nil {
		return err
	}
	return nil
}

// Get
func (s *ColumnVersionStore) Get(ctx context.Context, id int64) (*types.ColumnVersionInfo, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.ColumnVersionInfo
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	normalizeVersion(&res)
	return &res, nil
}

func (s *ColumnVersionStore) ListByPageCol(ctx context.Context, pageID int64, column int) ([]types.ColumnVersionInfo, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"page_id": pageID, "col": column}).
		OrderBy("time_from ASC")

	return s.list(ctx, query)
}

func (s *ColumnVersionStore) pageRange(docID int64, fromSeq, toSeq int) sq.Sqlizer {
	pages := types.TABLE_PAGES.Name()
	return sq.Expr("page_id IN (SELECT id FROM "+pages+" WHERE doc_id = ? AND seq >= ? AND seq <= ?)", docID, fromSeq, toSeq)
}

func (s *ColumnVersionStore) ListByDocPageRange(ctx context.Context, docID int64, fromSeq, toSeq int) ([]types.ColumnVersionInfo, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(s.pageRange(docID, fromSeq, toSeq)).
		OrderBy("time_from ASC")

	return s.list(ctx, query)
}

func (s *ColumnVersionStore) LastTimeInRange(ctx context.Context, docID int64, fromSeq, toSeq int) (time.Time, error) {
	query := sq.Select("MAX(time_from)").From(s.GetTable()).Where(s.pageRange(docID, fromSeq, toSeq))

	queryString, args, err := query.ToSql()
	if err != nil {
		return time.Time{}, ErrorSqlBuild(err)
	}

	var res sql.NullTime
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return time.Time{}, err
	}
	if !res.Valid {
		return time.Time{}, nil
	}
	return bitemporal.Normalize(res.Time), nil
}

func (s *ColumnVersionStore) ListRecent(ctx context.Context, limit uint64) ([]types.ColumnVersionInfo, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("time_from DESC")
	if limit != types.NO_PAGINATION {
		query = query.Limit(limit)
	}
	return s.list(ctx, query)
}

func (s *ColumnVersionStore) list(ctx context.Context, query sq.SelectBuilder) ([]types.ColumnVersionInfo, error) {
	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.ColumnVersionInfo
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	for i := range res {
		normalizeVersion(&res[i])
	}
	return res, nil
}

func normalizeVersion(v *types.ColumnVersionInfo) {
	v.TimeFrom = bitemporal.Normalize(v.TimeFrom)
	v.TimeUntil = bitemporal.Normalize(v.TimeUntil)
}

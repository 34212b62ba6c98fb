package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/manuscripta/apm/pkg/register"
	"github.com/manuscripta/apm/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.EdNoteStore = NewEdNoteStore(provider)
	})
}

type EdNoteStore struct {
	CommonFields
}

// NewEdNoteStore 编辑注释表
func NewEdNoteStore(provider SqlProviderAchieve) *EdNoteStore {
	repo := &EdNoteStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_EDNOTES)
	repo.SetAllColumns("id", "type", "target", "author_tid", "lang", "text", "time")
	return repo
}

// Create
func (s *EdNoteStore) Create(ctx context.Context, data types.EdNote) error {
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Type, data.Target, data.AuthorTid, data.Lang, data.Text, data.Time)

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
func (s *EdNoteStore) Update(ctx context.Context, data types.EdNote) error {
	query := sq.Update(s.GetTable()).SetMap(map[string]interface{}{
		"type":       data.Type,
		"target":     data.Target,
		"author_tid": data.AuthorTid,
		"lang":       data.Lang,
		"text":       data.Text,
		"time":       data.Time,
	}).Where(sq.Eq{"id": data.ID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Get
func (s *EdNoteStore) Get(ctx context.Context, id int64) (*types.EdNote, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.EdNote
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListByTargets 一个见证可能涉及上千个条目，使用数组参数避免展开占位符
func (s *EdNoteStore) ListByTargets(ctx context.Context, targets []int64) ([]types.EdNote, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Expr("target = ANY(?)", pq.Array(targets))).
		OrderBy("target ASC", "time ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.EdNote
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *EdNoteStore) ListByTypeAndTarget(ctx context.Context, noteType types.EdNoteType, target int64) ([]types.EdNote, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"type": noteType, "target": target}).
		OrderBy("time ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.EdNote
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

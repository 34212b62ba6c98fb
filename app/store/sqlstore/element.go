package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/register"
	"github.com/manuscripta/apm/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ElementStore = NewElementStore(provider)
	})
}

type ElementStore struct {
	CommonFields
}

// NewElementStore 版本化的元素表
func NewElementStore(provider SqlProviderAchieve) *ElementStore {
	repo := &ElementStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_ELEMENTS)
	repo.SetAllColumns("id", "type", "page_id", "column_number", "seq", "lang", "editor_tid", "hand_id", "reference", "placement", "valid_from", "valid_until")
	return repo
}

func (s *ElementStore) insert(exec Master, data types.Element, from, until time.Time) error {
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Type, data.PageID, data.ColumnNumber, data.Seq, data.Lang, data.EditorTid, data.HandID, data.Reference, data.Placement, from, until)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	if _, err = exec.Exec(queryString, args...); err != nil {
		return wrapWriteError(err)
	}
	return nil
}

// Create
func (s *ElementStore) Create(ctx context.Context, data types.Element, t time.Time) (int64, error) {
	exec := s.GetMaster(ctx)
	id, err := s.nextID(exec, types.TABLE_ELEMENTS.SequenceName())
	if err != nil {
		return 0, err
	}
	data.ID = id
	if err = s.insert(exec, data, bitemporal.Normalize(t), bitemporal.EndOfTimes); err != nil {
		return 0, err
	}
	return id, nil
}

// Update
func (s *ElementStore) Update(ctx context.Context, data types.Element, t time.Time) error {
	t = bitemporal.Normalize(t)
	current, err := s.Get(ctx, data.ID, t)
	if err != nil {
		return err
	}

	exec := s.GetMaster(ctx)
	if current.ValidFrom.Equal(t) {
		query := sq.Update(s.GetTable()).SetMap(map[string]interface{}{
			"type":          data.Type,
			"page_id":       data.PageID,
			"column_number": data.ColumnNumber,
			"seq":           data.Seq,
			"lang":          data.Lang,
			"editor_tid":    data.EditorTid,
			"hand_id":       data.HandID,
			"reference":     data.Reference,
			"placement":     data.Placement,
		}).Where(sq.Eq{"id": data.ID, "valid_from": current.ValidFrom})

		queryString, args, err := query.ToSql()
		if err != nil {
			return ErrorSqlBuild(err)
		}
		_, err = exec.Exec(queryString, args...)
		return err
	}

	if err = s.closeRow(exec, data.ID, current.ValidFrom, t); err != nil {
		return err
	}
	return s.insert(exec, data, t, current.ValidUntil)
}

// Delete
func (s *ElementStore) Delete(ctx context.Context, id int64, t time.Time) error {
	current, err := s.Get(ctx, id, t)
	if err != nil {
		return err
	}
	return s.closeRow(s.GetMaster(ctx), id, current.ValidFrom, t)
}

// Get
func (s *ElementStore) Get(ctx context.Context, id int64, t time.Time) (*types.Element, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.And{sq.Eq{"id": id}, validAt("", t)})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Element
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, wrapMissing(err, s.GetTable(), id, t)
	}
	normalizeElement(&res)
	return &res, nil
}

func (s *ElementStore) ListByPageCol(ctx context.Context, pageID int64, column int, t time.Time) ([]types.Element, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.And{sq.Eq{"page_id": pageID, "column_number": column}, validAt("", t)}).
		OrderBy("seq ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Element
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	for i := range res {
		normalizeElement(&res[i])
	}
	return res, nil
}

func (s *ElementStore) MaxSeq(ctx context.Context, pageID int64, column int, t time.Time) (int, error) {
	query := sq.Select("COALESCE(MAX(seq), -1)").From(s.GetTable()).
		Where(sq.And{sq.Eq{"page_id": pageID, "column_number": column}, validAt("", t)})

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var res int
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return 0, err
	}
	return res, nil
}

func (s *ElementStore) MaxColumn(ctx context.Context, pageID int64, t time.Time) (int, error) {
	query := sq.Select("COALESCE(MAX(column_number), 0)").From(s.GetTable()).
		Where(sq.And{sq.Eq{"page_id": pageID}, validAt("", t)})

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var res int
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return 0, err
	}
	return res, nil
}

func normalizeElement(e *types.Element) {
	e.ValidFrom = bitemporal.Normalize(e.ValidFrom)
	e.ValidUntil = bitemporal.Normalize(e.ValidUntil)
}

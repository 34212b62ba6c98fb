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
		provider.stores.ItemStore = NewItemStore(provider)
	})
}

type ItemStore struct {
	CommonFields
}

// NewItemStore 版本化的条目表
func NewItemStore(provider SqlProviderAchieve) *ItemStore {
	repo := &ItemStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_ITEMS)
	repo.SetAllColumns("id", "type", "ce_id", "seq", "lang", "hand_id", "text", "alt_text", "extra_info", "length", "target", "valid_from", "valid_until")
	return repo
}

func (s *ItemStore) insert(exec Master, data types.Item, from, until time.Time) error {
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Type, data.ColumnElementID, data.Seq, data.Lang, data.HandID, data.Text, data.AltText, data.ExtraInfo, data.Length, data.Target, from, until)

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
func (s *ItemStore) Create(ctx context.Context, data types.Item, t time.Time) (int64, error) {
	exec := s.GetMaster(ctx)
	id, err := s.nextID(exec, types.TABLE_ITEMS.SequenceName())
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
func (s *ItemStore) Update(ctx context.Context, data types.Item, t time.Time) error {
	t = bitemporal.Normalize(t)
	current, err := s.Get(ctx, data.ID, t)
	if err != nil {
		return err
	}

	exec := s.GetMaster(ctx)
	if current.ValidFrom.Equal(t) {
		query := sq.Update(s.GetTable()).SetMap(map[string]interface{}{
			"type":       data.Type,
			"ce_id":      data.ColumnElementID,
			"seq":        data.Seq,
			"lang":       data.Lang,
			"hand_id":    data.HandID,
			"text":       data.Text,
			"alt_text":   data.AltText,
			"extra_info": data.ExtraInfo,
			"length":     data.Length,
			"target":     data.Target,
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
func (s *ItemStore) Delete(ctx context.Context, id int64, t time.Time) error {
	current, err := s.Get(ctx, id, t)
	if err != nil {
		return err
	}
	return s.closeRow(s.GetMaster(ctx), id, current.ValidFrom, t)
}

// Get
func (s *ItemStore) Get(ctx context.Context, id int64, t time.Time) (*types.Item, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.And{sq.Eq{"id": id}, validAt("", t)})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Item
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, wrapMissing(err, s.GetTable(), id, t)
	}
	normalizeItem(&res)
	return &res, nil
}

func (s *ItemStore) ListByElements(ctx context.Context, elementIDs []int64, t time.Time) ([]types.Item, error) {
	if len(elementIDs) == 0 {
		return nil, nil
	}
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.And{sq.Eq{"ce_id": elementIDs}, validAt("", t)}).
		OrderBy("ce_id ASC", "seq ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Item
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	for i := range res {
		normalizeItem(&res[i])
	}
	return res, nil
}

func normalizeItem(i *types.Item) {
	i.ValidFrom = bitemporal.Normalize(i.ValidFrom)
	i.ValidUntil = bitemporal.Normalize(i.ValidUntil)
}

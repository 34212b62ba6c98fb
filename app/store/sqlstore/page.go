package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/manuscripta/apm/pkg/register"
	"github.com/manuscripta/apm/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.PageStore = NewPageStore(provider)
	})
}

type PageStore struct {
	CommonFields
}

// NewPageStore
func NewPageStore(provider SqlProviderAchieve) *PageStore {
	repo := &PageStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PAGES)
	repo.SetAllColumns("id", "doc_id", "seq", "page_number", "foliation", "num_cols", "lang", "type", "updated_at")
	return repo
}

// Create
func (s *PageStore) Create(ctx context.Context, data types.Page) (int64, error) {
	if data.UpdatedAt == 0 {
		data.UpdatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns("doc_id", "seq", "page_number", "foliation", "num_cols", "lang", "type", "updated_at").
		Values(data.DocID, data.Seq, data.PageNumber, data.Foliation, data.NumCols, data.Lang, data.Type, data.UpdatedAt).
		Suffix("RETURNING id")

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var id int64
	if err = s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&id); err != nil {
		return 0, wrapWriteError(err)
	}
	return id, nil
}

// Get
func (s *PageStore) Get(ctx context.Context, id int64) (*types.Page, error) {
	return s.get(ctx, sq.Eq{"id": id})
}

func (s *PageStore) GetByDocPage(ctx context.Context, docID int64, pageNumber int) (*types.Page, error) {
	return s.get(ctx, sq.Eq{"doc_id": docID, "page_number": pageNumber})
}

func (s *PageStore) GetByDocSeq(ctx context.Context, docID int64, seq int) (*types.Page, error) {
	return s.get(ctx, sq.Eq{"doc_id": docID, "seq": seq})
}

func (s *PageStore) get(ctx context.Context, where sq.Eq) (*types.Page, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(where)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Page
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListByDoc
func (s *PageStore) ListByDoc(ctx context.Context, docID int64) ([]types.Page, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"doc_id": docID}).OrderBy("seq ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Page
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *PageStore) UpdateSettings(ctx context.Context, id int64, settings types.PageSettings) error {
	values := map[string]interface{}{
		"updated_at": time.Now().Unix(),
	}
	if settings.Foliation != nil {
		values["foliation"] = *settings.Foliation
	}
	if settings.NumCols != nil {
		values["num_cols"] = *settings.NumCols
	}
	if settings.Lang != nil {
		values["lang"] = *settings.Lang
	}
	if settings.Type != nil {
		values["type"] = *settings.Type
	}

	query := sq.Update(s.GetTable()).SetMap(values).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

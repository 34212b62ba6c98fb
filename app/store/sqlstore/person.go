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
		provider.stores.PersonStore = NewPersonStore(provider)
	})
}

type PersonStore struct {
	CommonFields
}

// NewPersonStore
func NewPersonStore(provider SqlProviderAchieve) *PersonStore {
	repo := &PersonStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PEOPLE)
	repo.SetAllColumns("tid", "name", "email", "is_user", "created_at")
	return repo
}

// Create
func (s *PersonStore) Create(ctx context.Context, data types.Person) (int64, error) {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns("name", "email", "is_user", "created_at").
		Values(data.Name, data.Email, data.IsUser, data.CreatedAt).
		Suffix("RETURNING tid")

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var tid int64
	if err = s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&tid); err != nil {
		return 0, wrapWriteError(err)
	}
	return tid, nil
}

// Get
func (s *PersonStore) Get(ctx context.Context, tid int64) (*types.Person, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"tid": tid})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Person
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

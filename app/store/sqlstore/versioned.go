package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/bitemporal"
)

// validAt 版本化行在 t 时有效：valid_from <= t AND valid_until > t
func validAt(table string, t time.Time) sq.And {
	prefix := ""
	if table != "" {
		prefix = table + "."
	}
	t = bitemporal.Normalize(t)
	return sq.And{
		sq.LtOrEq{prefix + "valid_from": t},
		sq.Gt{prefix + "valid_until": t},
	}
}

// wrapMissing 把找不到当前行转换为 store.ErrRowDoesNotExist
func wrapMissing(err error, table string, id int64, t time.Time) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s id %d at %s", store.ErrRowDoesNotExist, table, id, bitemporal.FormatTime(t))
	}
	return err
}

// closeRow 在 t 关闭 (id, validFrom) 这一行
func (c *CommonFields) closeRow(exec Master, id int64, validFrom, t time.Time) error {
	query := sq.Update(c.GetTable()).
		Set("valid_until", bitemporal.Normalize(t)).
		Where(sq.Eq{"id": id, "valid_from": validFrom})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}
	res, err := exec.Exec(queryString, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s id %d", store.ErrRowDoesNotExist, c.GetTable(), id)
	}
	return nil
}

// nextID 从数据表对应的序列取下一个 id
func (c *CommonFields) nextID(exec Master, sequence string) (int64, error) {
	var id int64
	if err := exec.Get(&id, "SELECT nextval('"+sequence+"')"); err != nil {
		return 0, err
	}
	return id, nil
}

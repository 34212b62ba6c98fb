package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "apm_"

const (
	TABLE_ELEMENTS    = TableName("ctelements")
	TABLE_ITEMS       = TableName("items")
	TABLE_VERSIONS_TX = TableName("versions_tx")
	TABLE_EDNOTES     = TableName("ednotes")
	TABLE_DOCS        = TableName("docs")
	TABLE_PAGES       = TableName("pages")
	TABLE_PEOPLE      = TableName("people")
)

// SequenceName 版本化数据表的 id 序列
func (s TableName) SequenceName() string {
	return s.Name() + "_id_seq"
}

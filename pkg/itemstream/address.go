package itemstream

import "github.com/manuscripta/apm/pkg/types"

// Address 条目在数据库条目流中的地址
type Address struct {
	DocID        int64             `json:"doc_id"`
	PageID       int64             `json:"page_id"`
	PageSeq      int               `json:"page_seq"`
	Foliation    string            `json:"foliation"`
	ColumnNumber int               `json:"column_number"`
	ElementID    int64             `json:"element_id"`
	ElementType  types.ElementType `json:"element_type"`
	ElementSeq   int               `json:"element_seq"`
	ItemID       int64             `json:"item_id"`
	ItemSeq      int               `json:"item_seq"`
	// TbIndex 文本框编号：Line 元素为栏号，其他元素为元素 id
	TbIndex int64 `json:"tb_index"`
}

func NewAddress(row types.ItemStreamRow, element Element) Address {
	return Address{
		DocID:        row.DocID,
		PageID:       row.PageID,
		PageSeq:      row.PageSeq,
		Foliation:    row.Foliation,
		ColumnNumber: row.ColumnNumber,
		ElementID:    row.ColumnElementID,
		ElementType:  row.ElementType,
		ElementSeq:   row.ElementSeq,
		ItemID:       row.ID,
		ItemSeq:      row.Seq,
		TbIndex:      element.TextBoxIndex(),
	}
}

func (a Address) Location() types.ItemLocation {
	return types.ItemLocation{
		DocID:        a.DocID,
		PageSeq:      a.PageSeq,
		PageID:       a.PageID,
		ColumnNumber: a.ColumnNumber,
		ElementSeq:   a.ElementSeq,
		ItemSeq:      a.ItemSeq,
	}
}

func elementFromRow(row types.ItemStreamRow) (Element, error) {
	return NewElementFromRow(types.Element{
		ID:           row.ColumnElementID,
		Type:         row.ElementType,
		PageID:       row.PageID,
		ColumnNumber: row.ColumnNumber,
		Seq:          row.ElementSeq,
		Lang:         row.ElementLang,
		HandID:       row.ElementHandID,
		Reference:    row.ElementReference,
		Placement:    row.ElementPlacement,
	})
}

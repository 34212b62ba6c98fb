package types

import (
	"fmt"
	"time"
)

// ElementType 结构元素类型，数值会持久化，不可修改
type ElementType int

const (
	ELEMENT_LINE         ElementType = 1
	ELEMENT_HEAD         ElementType = 2
	ELEMENT_GLOSS        ElementType = 3
	ELEMENT_PAGE_NUMBER  ElementType = 4
	ELEMENT_CUSTODES     ElementType = 5
	ELEMENT_NOTE_MARK    ElementType = 6
	ELEMENT_ADDITION     ElementType = 7
	ELEMENT_LINE_GAP     ElementType = 8
	ELEMENT_SUBSTITUTION ElementType = 9
)

var elementTypeNames = map[ElementType]string{
	ELEMENT_LINE:         "line",
	ELEMENT_HEAD:         "head",
	ELEMENT_GLOSS:        "gloss",
	ELEMENT_PAGE_NUMBER:  "pagenumber",
	ELEMENT_CUSTODES:     "custodes",
	ELEMENT_NOTE_MARK:    "notemark",
	ELEMENT_ADDITION:     "addition",
	ELEMENT_LINE_GAP:     "linegap",
	ELEMENT_SUBSTITUTION: "substitution",
}

func (t ElementType) String() string {
	if name, ok := elementTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("element(%d)", int(t))
}

func (t ElementType) IsValid() bool {
	_, ok := elementTypeNames[t]
	return ok
}

// HasItemReference Addition 与 Substitution 元素的 reference 指向被替换的条目 id
func (t ElementType) HasItemReference() bool {
	return t == ELEMENT_ADDITION || t == ELEMENT_SUBSTITUTION
}

// Element 页面某一栏中的结构单元，独占其下的条目
type Element struct {
	ID           int64       `json:"id" db:"id"`
	Type         ElementType `json:"type" db:"type"`
	PageID       int64       `json:"page_id" db:"page_id"`
	ColumnNumber int         `json:"column_number" db:"column_number"`
	Seq          int         `json:"seq" db:"seq"`
	Lang         string      `json:"lang" db:"lang"`
	EditorTid    int64       `json:"editor_tid" db:"editor_tid"`
	HandID       int         `json:"hand_id" db:"hand_id"`
	Reference    int64       `json:"reference" db:"reference"`
	Placement    string      `json:"placement" db:"placement"`
	ValidFrom    time.Time   `json:"valid_from" db:"valid_from"`
	ValidUntil   time.Time   `json:"valid_until" db:"valid_until"`

	Items []Item `json:"items" db:"-"`
}

// ElementContentEqual 编辑脚本使用的相等性：忽略 id、seq、编辑者、条目和时间戳
func ElementContentEqual(a, b Element) bool {
	return a.Type == b.Type &&
		a.PageID == b.PageID &&
		a.ColumnNumber == b.ColumnNumber &&
		a.Lang == b.Lang &&
		a.HandID == b.HandID &&
		a.Reference == b.Reference &&
		a.Placement == b.Placement
}

// ElementDiffEqual 栏级编辑脚本使用的相等性
// 已保存的元素只与同 id 的元素相等，新元素（id <= 0）之间按结构比较
func ElementDiffEqual(a, b Element) bool {
	if (a.ID > 0 || b.ID > 0) && a.ID != b.ID {
		return false
	}
	return ElementContentEqual(a, b)
}

// ItemWithDefaults 条目没有指定手迹与语言时沿用元素的设置
func (e Element) ItemWithDefaults(item Item) Item {
	if item.HandID == 0 {
		item.HandID = e.HandID
	}
	if item.Lang == "" {
		item.Lang = e.Lang
	}
	return item
}

// ElementRowEqual 比较元素行本身的全部字段（条目与时间戳除外）
func ElementRowEqual(a, b Element) bool {
	return ElementContentEqual(a, b) &&
		a.ID == b.ID &&
		a.Seq == b.Seq &&
		a.EditorTid == b.EditorTid
}

// ItemIDs 返回元素下所有条目的 id
func (e Element) ItemIDs() []int64 {
	ids := make([]int64, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

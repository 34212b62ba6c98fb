package types

import (
	"fmt"
	"time"
)

// ItemType 转写条目类型，数值会持久化，不可修改
type ItemType int

const (
	ITEM_TEXT           ItemType = 1
	ITEM_RUBRIC         ItemType = 2
	ITEM_SIC            ItemType = 3
	ITEM_UNCLEAR        ItemType = 4
	ITEM_ILLEGIBLE      ItemType = 5
	ITEM_GLIPH          ItemType = 6
	ITEM_ADDITION       ItemType = 7
	ITEM_DELETION       ItemType = 8
	ITEM_MARK           ItemType = 9
	ITEM_NO_WORD_BREAK  ItemType = 10
	ITEM_ABBREVIATION   ItemType = 11
	ITEM_INITIAL        ItemType = 13
	ITEM_CHUNK_MARK     ItemType = 14
	ITEM_CHARACTER_GAP  ItemType = 15
	ITEM_PARAGRAPH_MARK ItemType = 16
	ITEM_MATH_TEXT      ItemType = 17
	ITEM_MARGINAL_MARK  ItemType = 18
	ITEM_CHAPTER_MARK   ItemType = 19
	ITEM_BOLD_TEXT      ItemType = 20
	ITEM_ITALIC_TEXT    ItemType = 21
	ITEM_HEADING        ItemType = 22
)

var itemTypeNames = map[ItemType]string{
	ITEM_TEXT:           "text",
	ITEM_RUBRIC:         "rubric",
	ITEM_SIC:            "sic",
	ITEM_UNCLEAR:        "unclear",
	ITEM_ILLEGIBLE:      "illegible",
	ITEM_GLIPH:          "gliph",
	ITEM_ADDITION:       "addition",
	ITEM_DELETION:       "deletion",
	ITEM_MARK:           "mark",
	ITEM_NO_WORD_BREAK:  "nowb",
	ITEM_ABBREVIATION:   "abbreviation",
	ITEM_INITIAL:        "initial",
	ITEM_CHUNK_MARK:     "chunkmark",
	ITEM_CHARACTER_GAP:  "chgap",
	ITEM_PARAGRAPH_MARK: "paragraphmark",
	ITEM_MATH_TEXT:      "mathtext",
	ITEM_MARGINAL_MARK:  "marginalmark",
	ITEM_CHAPTER_MARK:   "chaptermark",
	ITEM_BOLD_TEXT:      "boldtext",
	ITEM_ITALIC_TEXT:    "italictext",
	ITEM_HEADING:        "heading",
}

func (t ItemType) String() string {
	if name, ok := itemTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("item(%d)", int(t))
}

func (t ItemType) IsValid() bool {
	_, ok := itemTypeNames[t]
	return ok
}

// CanBeReplaced 可以被 Addition 条目或 Addition/Substitution 元素替换的条目类型
func (t ItemType) CanBeReplaced() bool {
	return t == ITEM_DELETION || t == ITEM_UNCLEAR || t == ITEM_MARGINAL_MARK
}

// Item 转写的最小单位，隶属于某个 Element
type Item struct {
	ID              int64     `json:"id" db:"id"`
	Type            ItemType  `json:"type" db:"type"`
	ColumnElementID int64     `json:"ce_id" db:"ce_id"`
	Seq             int       `json:"seq" db:"seq"`
	Lang            string    `json:"lang" db:"lang"`
	HandID          int       `json:"hand_id" db:"hand_id"`
	Text            string    `json:"text" db:"text"`
	AltText         string    `json:"alt_text" db:"alt_text"`
	ExtraInfo       string    `json:"extra_info" db:"extra_info"`
	Length          int       `json:"length" db:"length"`
	Target          int64     `json:"target" db:"target"`
	ValidFrom       time.Time `json:"valid_from" db:"valid_from"`
	ValidUntil      time.Time `json:"valid_until" db:"valid_until"`
}

// ItemContentEqual 比较条目内容，忽略 id、seq、所属元素及时间戳
func ItemContentEqual(a, b Item) bool {
	return a.Type == b.Type &&
		a.Lang == b.Lang &&
		a.HandID == b.HandID &&
		a.Text == b.Text &&
		a.AltText == b.AltText &&
		a.ExtraInfo == b.ExtraInfo &&
		a.Length == b.Length &&
		a.Target == b.Target
}

// ItemDiffEqual 条目级编辑脚本使用的相等性，两边都是已保存的条目时还要求 id 相同
func ItemDiffEqual(a, b Item) bool {
	if a.ID > 0 && b.ID > 0 && a.ID != b.ID {
		return false
	}
	return ItemContentEqual(a, b)
}

// ItemRowEqual 比较将要写入数据库的全部字段（时间戳除外）
func ItemRowEqual(a, b Item) bool {
	return ItemContentEqual(a, b) &&
		a.ID == b.ID &&
		a.Seq == b.Seq &&
		a.ColumnElementID == b.ColumnElementID
}

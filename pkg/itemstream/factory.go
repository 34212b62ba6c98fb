// Package itemstream 把数据库中的条目行转换为带地址的条目流，用于重建见证文本。
package itemstream

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manuscripta/apm/pkg/types"
)

var (
	ErrUnknownItemType    = errors.New("unknown item type")
	ErrUnknownElementType = errors.New("unknown element type")
)

// Item 条目流中的一个条目，真实条目来自数据库，幽灵条目由构建器合成
type Item interface {
	ItemID() int64
	Kind() string
	Language() string
	PlainText() string
	EditorialNotes() []types.EdNote
	attachNotes(notes []types.EdNote)
}

type Base struct {
	ID     int64          `json:"id"`
	Lang   string         `json:"lang"`
	HandID int            `json:"hand_id"`
	Notes  []types.EdNote `json:"notes,omitempty"`
}

func (b *Base) ItemID() int64                    { return b.ID }
func (b *Base) Language() string                 { return b.Lang }
func (b *Base) EditorialNotes() []types.EdNote   { return b.Notes }
func (b *Base) attachNotes(notes []types.EdNote) { b.Notes = append(b.Notes, notes...) }
func (b *Base) PlainText() string                { return "" }

// Textual 以文本为主体的条目
type Textual struct {
	Base
	Text string `json:"text"`
}

func (t *Textual) PlainText() string { return t.Text }

type (
	Text       struct{ Textual }
	Rubric     struct{ Textual }
	Initial    struct{ Textual }
	Gliph      struct{ Textual }
	MathText   struct{ Textual }
	BoldText   struct{ Textual }
	ItalicText struct{ Textual }
	Heading    struct{ Textual }
)

func (*Text) Kind() string       { return "text" }
func (*Rubric) Kind() string     { return "rubric" }
func (*Initial) Kind() string    { return "initial" }
func (*Gliph) Kind() string      { return "gliph" }
func (*MathText) Kind() string   { return "mathtext" }
func (*BoldText) Kind() string   { return "boldtext" }
func (*ItalicText) Kind() string { return "italictext" }
func (*Heading) Kind() string    { return "heading" }

type Sic struct {
	Textual
	Correction string `json:"correction"`
}

func (*Sic) Kind() string { return "sic" }

type Unclear struct {
	Textual
	Reading2 string `json:"reading2"`
	Reason   string `json:"reason"`
}

func (*Unclear) Kind() string { return "unclear" }

type Abbreviation struct {
	Textual
	Expansion string `json:"expansion"`
}

func (*Abbreviation) Kind() string { return "abbreviation" }

type Deletion struct {
	Base
	Text      string `json:"text"`
	Technique string `json:"technique"`
}

func (*Deletion) Kind() string { return "deletion" }

type Addition struct {
	Textual
	Place  string `json:"place"`
	Target int64  `json:"target"`
}

func (*Addition) Kind() string { return "addition" }

type MarginalMark struct {
	Base
	Text string `json:"text"`
}

func (*MarginalMark) Kind() string { return "marginalmark" }

type Illegible struct {
	Base
	Length int    `json:"length"`
	Reason string `json:"reason"`
}

func (*Illegible) Kind() string { return "illegible" }

type CharacterGap struct {
	Base
	Length int `json:"length"`
}

func (*CharacterGap) Kind() string { return "chgap" }

type Mark struct{ Base }

func (*Mark) Kind() string { return "mark" }

type NoWordBreak struct{ Base }

func (*NoWordBreak) Kind() string { return "nowb" }

type ParagraphMark struct{ Base }

func (*ParagraphMark) Kind() string      { return "paragraphmark" }
func (*ParagraphMark) PlainText() string { return "\n" }

// ChunkMark text 为作品 id，target 为 chunk 编号，alt_text 为 start/end，
// extra_info 为本地见证编号，length 为段号
type ChunkMark struct {
	Base
	WorkID         string `json:"work_id"`
	ChunkNumber    int    `json:"chunk_number"`
	Type           string `json:"type"`
	WitnessLocalID string `json:"witness_local_id"`
	SegmentNumber  int    `json:"segment_number"`
}

func (*ChunkMark) Kind() string { return "chunkmark" }

// ChapterMark text 为 appellation 与 title 以私有分隔符连接，extra_info 为作品 id，
// target 为章节编号，alt_text 为 start/end，length 为层级
type ChapterMark struct {
	Base
	WorkID        string `json:"work_id"`
	ChapterNumber int    `json:"chapter_number"`
	Type          string `json:"type"`
	Level         int    `json:"level"`
	Appellation   string `json:"appellation"`
	Title         string `json:"title"`
}

func (*ChapterMark) Kind() string { return "chaptermark" }

// 幽灵条目
type (
	Newline      struct{ Base }
	TextBoxBreak struct{ Base }
	ItemBreak    struct{ Base }
)

func (*Newline) Kind() string           { return "newline" }
func (*Newline) PlainText() string      { return "\n" }
func (*TextBoxBreak) Kind() string      { return "textboxbreak" }
func (*TextBoxBreak) PlainText() string { return "\n" }
func (*ItemBreak) Kind() string         { return "itembreak" }

// SplitChapterText 拆分章节标记的 text 字段
func SplitChapterText(text string) (appellation, title string) {
	appellation, title, _ = strings.Cut(text, types.CHAPTER_MARK_SEPARATOR)
	return appellation, title
}

func JoinChapterText(appellation, title string) string {
	return appellation + types.CHAPTER_MARK_SEPARATOR + title
}

// NewItemFromRow 按类型把数据库行转换为条目，未知类型意味着数据已损坏
func NewItemFromRow(row types.Item) (Item, error) {
	base := Base{ID: row.ID, Lang: row.Lang, HandID: row.HandID}
	textual := Textual{Base: base, Text: row.Text}

	switch row.Type {
	case types.ITEM_TEXT:
		return &Text{textual}, nil
	case types.ITEM_RUBRIC:
		return &Rubric{textual}, nil
	case types.ITEM_INITIAL:
		return &Initial{textual}, nil
	case types.ITEM_GLIPH:
		return &Gliph{textual}, nil
	case types.ITEM_MATH_TEXT:
		return &MathText{textual}, nil
	case types.ITEM_BOLD_TEXT:
		return &BoldText{textual}, nil
	case types.ITEM_ITALIC_TEXT:
		return &ItalicText{textual}, nil
	case types.ITEM_HEADING:
		return &Heading{textual}, nil
	case types.ITEM_SIC:
		return &Sic{Textual: textual, Correction: row.AltText}, nil
	case types.ITEM_UNCLEAR:
		return &Unclear{Textual: textual, Reading2: row.AltText, Reason: row.ExtraInfo}, nil
	case types.ITEM_ABBREVIATION:
		return &Abbreviation{Textual: textual, Expansion: row.AltText}, nil
	case types.ITEM_DELETION:
		return &Deletion{Base: base, Text: row.Text, Technique: row.ExtraInfo}, nil
	case types.ITEM_ADDITION:
		return &Addition{Textual: textual, Place: row.ExtraInfo, Target: row.Target}, nil
	case types.ITEM_MARGINAL_MARK:
		return &MarginalMark{Base: base, Text: row.Text}, nil
	case types.ITEM_ILLEGIBLE:
		return &Illegible{Base: base, Length: row.Length, Reason: row.ExtraInfo}, nil
	case types.ITEM_CHARACTER_GAP:
		return &CharacterGap{Base: base, Length: row.Length}, nil
	case types.ITEM_MARK:
		return &Mark{base}, nil
	case types.ITEM_NO_WORD_BREAK:
		return &NoWordBreak{base}, nil
	case types.ITEM_PARAGRAPH_MARK:
		return &ParagraphMark{base}, nil
	case types.ITEM_CHUNK_MARK:
		lwid := row.ExtraInfo
		if lwid == "" {
			lwid = types.DEFAULT_LOCAL_WITNESS_ID
		}
		segment := row.Length
		if segment <= 0 {
			// 旧数据没有段号
			segment = 1
		}
		return &ChunkMark{
			Base:           base,
			WorkID:         row.Text,
			ChunkNumber:    int(row.Target),
			Type:           row.AltText,
			WitnessLocalID: lwid,
			SegmentNumber:  segment,
		}, nil
	case types.ITEM_CHAPTER_MARK:
		appellation, title := SplitChapterText(row.Text)
		return &ChapterMark{
			Base:          base,
			WorkID:        row.ExtraInfo,
			ChapterNumber: int(row.Target),
			Type:          row.AltText,
			Level:         row.Length,
			Appellation:   appellation,
			Title:         title,
		}, nil
	}
	return nil, fmt.Errorf("%w: %d (item %d)", ErrUnknownItemType, row.Type, row.ID)
}

// Element 条目流中使用的结构元素
type Element interface {
	ElementID() int64
	ElementType() types.ElementType
	// TextBoxIndex 主栏的行共享栏号，其他元素各自成为独立的文本框
	TextBoxIndex() int64
}

type ElementBase struct {
	ID           int64  `json:"id"`
	ColumnNumber int    `json:"column_number"`
	Lang         string `json:"lang"`
	HandID       int    `json:"hand_id"`
	Placement    string `json:"placement"`
}

func (e *ElementBase) ElementID() int64    { return e.ID }
func (e *ElementBase) TextBoxIndex() int64 { return e.ID }

type Line struct{ ElementBase }

func (*Line) ElementType() types.ElementType { return types.ELEMENT_LINE }
func (l *Line) TextBoxIndex() int64          { return int64(l.ColumnNumber) }

type (
	Head       struct{ ElementBase }
	Gloss      struct{ ElementBase }
	PageNumber struct{ ElementBase }
	Custodes   struct{ ElementBase }
	NoteMark   struct{ ElementBase }
)

func (*Head) ElementType() types.ElementType       { return types.ELEMENT_HEAD }
func (*Gloss) ElementType() types.ElementType      { return types.ELEMENT_GLOSS }
func (*PageNumber) ElementType() types.ElementType { return types.ELEMENT_PAGE_NUMBER }
func (*Custodes) ElementType() types.ElementType   { return types.ELEMENT_CUSTODES }
func (*NoteMark) ElementType() types.ElementType   { return types.ELEMENT_NOTE_MARK }

// AdditionElement reference 为被替换的条目 id
type AdditionElement struct {
	ElementBase
	Target int64 `json:"target"`
}

func (*AdditionElement) ElementType() types.ElementType { return types.ELEMENT_ADDITION }

type Substitution struct {
	ElementBase
	Target int64 `json:"target"`
}

func (*Substitution) ElementType() types.ElementType { return types.ELEMENT_SUBSTITUTION }

// LineGap reference 为缺失的行数
type LineGap struct {
	ElementBase
	LineCount int `json:"line_count"`
}

func (*LineGap) ElementType() types.ElementType { return types.ELEMENT_LINE_GAP }

func NewElementFromRow(row types.Element) (Element, error) {
	base := ElementBase{
		ID:           row.ID,
		ColumnNumber: row.ColumnNumber,
		Lang:         row.Lang,
		HandID:       row.HandID,
		Placement:    row.Placement,
	}
	switch row.Type {
	case types.ELEMENT_LINE:
		return &Line{base}, nil
	case types.ELEMENT_HEAD:
		return &Head{base}, nil
	case types.ELEMENT_GLOSS:
		return &Gloss{base}, nil
	case types.ELEMENT_PAGE_NUMBER:
		return &PageNumber{base}, nil
	case types.ELEMENT_CUSTODES:
		return &Custodes{base}, nil
	case types.ELEMENT_NOTE_MARK:
		return &NoteMark{base}, nil
	case types.ELEMENT_ADDITION:
		return &AdditionElement{ElementBase: base, Target: row.Reference}, nil
	case types.ELEMENT_SUBSTITUTION:
		return &Substitution{ElementBase: base, Target: row.Reference}, nil
	case types.ELEMENT_LINE_GAP:
		return &LineGap{ElementBase: base, LineCount: int(row.Reference)}, nil
	}
	return nil, fmt.Errorf("%w: %d (element %d)", ErrUnknownElementType, row.Type, row.ID)
}

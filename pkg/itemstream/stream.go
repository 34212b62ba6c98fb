package itemstream

import (
	"strings"

	"github.com/manuscripta/apm/pkg/types"
)

// GHOST_ID_START 幽灵条目的 id 从这里开始递增，不会与数据库序列产生的 id 冲突
const GHOST_ID_START int64 = 999_000_000_000

type Entry struct {
	Address Address `json:"address"`
	Kind    string  `json:"kind"`
	Item    Item    `json:"item"`
}

// DatabaseItemStream 由一个或多个段的数据库行构建的条目流
type DatabaseItemStream struct {
	entries     []Entry
	lang        string
	nextGhostID int64
}

type tracker struct {
	started     bool
	elementID   int64
	tbIndex     int64
	elementType types.ElementType
}

// Build 依次处理每个段的行，在行与行、文本框之间以及被替换条目之前插入幽灵条目
func Build(segments [][]types.ItemStreamRow, defaultLang string, notes []types.EdNote) (*DatabaseItemStream, error) {
	s := &DatabaseItemStream{nextGhostID: GHOST_ID_START}
	notesByTarget := types.EdNotesByTarget(notes)

	var (
		prev       tracker
		langCounts = make(map[string]int)
		langOrder  []string
	)

	for _, rows := range segments {
		for _, row := range rows {
			element, err := elementFromRow(row)
			if err != nil {
				return nil, err
			}
			address := NewAddress(row, element)

			if prev.started {
				if row.ColumnElementID != prev.elementID && address.TbIndex == prev.tbIndex {
					if prev.elementType == row.ElementType && continuesLines(row.ElementType) {
						s.appendGhost(address, &Newline{})
					} else {
						s.appendGhost(address, &TextBoxBreak{})
					}
				} else if address.TbIndex != prev.tbIndex {
					s.appendGhost(address, &TextBoxBreak{})
				}
			}

			if row.Type == types.ITEM_ADDITION && row.Target != 0 {
				s.appendGhost(address, &ItemBreak{})
			}

			item, err := NewItemFromRow(row.Item())
			if err != nil {
				return nil, err
			}
			if n, ok := notesByTarget[row.ID]; ok {
				item.attachNotes(n)
			}
			s.entries = append(s.entries, Entry{Address: address, Kind: item.Kind(), Item: item})

			lang := row.Lang
			if lang == "" {
				lang = defaultLang
			}
			if _, seen := langCounts[lang]; !seen {
				langOrder = append(langOrder, lang)
			}
			langCounts[lang]++

			prev = tracker{
				started:     true,
				elementID:   row.ColumnElementID,
				tbIndex:     address.TbIndex,
				elementType: row.ElementType,
			}
		}
	}

	s.lang = defaultLang
	best := 0
	for _, lang := range langOrder {
		if langCounts[lang] > best {
			best = langCounts[lang]
			s.lang = lang
		}
	}
	return s, nil
}

func continuesLines(t types.ElementType) bool {
	return t == types.ELEMENT_LINE || t == types.ELEMENT_GLOSS || t == types.ELEMENT_ADDITION
}

func (s *DatabaseItemStream) appendGhost(address Address, ghost Item) {
	id := s.nextGhostID
	s.nextGhostID++
	switch g := ghost.(type) {
	case *Newline:
		g.ID = id
	case *TextBoxBreak:
		g.ID = id
	case *ItemBreak:
		g.ID = id
	}
	address.ItemID = id
	address.ItemSeq = -1
	s.entries = append(s.entries, Entry{Address: address, Kind: ghost.Kind(), Item: ghost})
}

func (s *DatabaseItemStream) Items() []Entry {
	return s.entries
}

// Lang 出现次数最多的语言，次数相同时取最先出现的
func (s *DatabaseItemStream) Lang() string {
	return s.lang
}

func (s *DatabaseItemStream) PlainText() string {
	var sb strings.Builder
	for _, e := range s.entries {
		sb.WriteString(e.Item.PlainText())
	}
	return sb.String()
}

// ItemIDs 流中所有真实条目的 id
func (s *DatabaseItemStream) ItemIDs() []int64 {
	var ids []int64
	for _, e := range s.entries {
		if IsGhost(e.Item) {
			continue
		}
		ids = append(ids, e.Item.ItemID())
	}
	return ids
}

func IsGhost(item Item) bool {
	switch item.(type) {
	case *Newline, *TextBoxBreak, *ItemBreak:
		return true
	}
	return false
}

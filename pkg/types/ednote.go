package types

import "time"

// EdNoteType 编辑注释类型
type EdNoteType int

const (
	EDNOTE_INLINE  EdNoteType = 1
	EDNOTE_OFFLINE EdNoteType = 2
)

func (t EdNoteType) IsValid() bool {
	return t == EDNOTE_INLINE || t == EDNOTE_OFFLINE
}

// EdNote 编辑注释，target 指向条目或元素 id，不做版本化
type EdNote struct {
	ID        int64      `json:"id" db:"id"`
	Type      EdNoteType `json:"type" db:"type"`
	Target    int64      `json:"target" db:"target"`
	AuthorTid int64      `json:"author_tid" db:"author_tid"`
	Lang      string     `json:"lang" db:"lang"`
	Text      string     `json:"text" db:"text"`
	Time      time.Time  `json:"time" db:"time"`
}

// EdNotesByTarget 按 target 分组
func EdNotesByTarget(notes []EdNote) map[int64][]EdNote {
	res := make(map[int64][]EdNote)
	for _, n := range notes {
		res[n.Target] = append(res[n.Target], n)
	}
	return res
}

package types

// Person 人员信息，is_user 表示是否是可以登录编辑的真实用户
type Person struct {
	Tid       int64  `json:"tid" db:"tid"`
	Name      string `json:"name" db:"name"`
	Email     string `json:"email" db:"email"`
	IsUser    bool   `json:"is_user" db:"is_user"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

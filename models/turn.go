package models

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one transcript entry, either a UserTurn or a BotTurn.
type Turn interface {
	Role() Role
	Content() string
	isTurn()
}

type UserTurn struct {
	Text string `json:"text"`
}

func (UserTurn) Role() Role { return RoleUser }
func (t UserTurn) Content() string { return t.Text }
func (UserTurn) isTurn() {}

type BotTurn struct {
	Text    string      `json:"text"`
	Sources []SourceRef `json:"sources"`
}

func (BotTurn) Role() Role { return RoleBot }
func (t BotTurn) Content() string { return t.Text }
func (BotTurn) isTurn() {}

// SourceRef is a document excerpt the backend cited for an answer.
// PageNumber is 1-based.
type SourceRef struct {
	Filename   string `json:"filename"`
	PageNumber int    `json:"page_number"`
	Excerpt    string `json:"page_content"`
}

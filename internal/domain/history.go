package domain

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of a free chat conversation.
type Turn struct {
	Role Role
	Text string
}

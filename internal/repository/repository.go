package repository

import (
	"github.com/prperemyshlev/spotlight-api/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	Account AccountRepository
	Token   TokenRepository
	Chat    ChatRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		Account: NewAccountRepository(db),
		Token:   NewTokenRepository(db),
		Chat:    NewChatRepository(db),
	}
}

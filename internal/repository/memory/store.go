package memory

import "github.com/kitbuilder587/morvo/internal/repository"

// NewStore - бэкенд без внешних зависимостей: для разработки и тестов.
// Данные живут до рестарта процесса.
func NewStore() *repository.Store {
	return &repository.Store{
		Conversations: NewConversationRepo(),
		Profiles:      NewProfileRepo(),
		Backlinks:     NewBacklinkRepo(),
		Close:         func() {},
	}
}

package memory

import (
	"errors"

	"github.com/docket-lab/docket/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Memory is an in-memory repository for development and testing
type Memory struct {
	message *messageRepository
	action  *actionRepository
	history *historyRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		message: newMessageRepository(),
		action:  newActionRepository(),
		history: newHistoryRepository(),
	}
}

func (m *Memory) Message() interfaces.MessageRepository {
	return m.message
}

func (m *Memory) Action() interfaces.ActionRepository {
	return m.action
}

func (m *Memory) History() interfaces.HistoryRepository {
	return m.history
}

func (m *Memory) Close() error {
	return nil
}

package interfaces

// Repository defines the interface for data persistence. The action store is
// a materialized view; the history repository is the system of record.
type Repository interface {
	Message() MessageRepository
	Action() ActionRepository
	History() HistoryRepository

	Close() error
}

package models

import (
	"time"
)

// Model defines the base interface for all persistent models in the queue service.
// Implementations include QueueEntry, HistoryEntry and CurrentSong.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error     // Create inserts a new model into the database
	Get(id string) (T, error) // Get retrieves a model by its ID
	Delete(id string) error   // Delete removes a model from the database by its ID
	List() ([]T, error)       // List retrieves all models in default order
}

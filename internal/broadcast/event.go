package broadcast

import "github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"

type EventType string

const (
	EventInitialData        EventType = "INITIAL_DATA"
	EventNewApplication     EventType = "NEW_APPLICATION"
	EventApplicationUpdated EventType = "APPLICATION_UPDATED"
	EventApplicationDeleted EventType = "APPLICATION_DELETED"
)

// Event is the push-channel message: {"type": ..., "data": ...}.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

type DeletedRef struct {
	ID string `json:"id"`
}

func InitialData(apps []models.Application) Event {
	if apps == nil {
		apps = []models.Application{}
	}
	return Event{Type: EventInitialData, Data: apps}
}

func Created(app models.Application) Event {
	return Event{Type: EventNewApplication, Data: app}
}

func Updated(app models.Application) Event {
	return Event{Type: EventApplicationUpdated, Data: app}
}

func Deleted(id string) Event {
	return Event{Type: EventApplicationDeleted, Data: DeletedRef{ID: id}}
}

// Publisher is anything that fans an event out to observers.
type Publisher interface {
	Publish(Event)
}

package models

import "time"

// Activity is a stream post as seen by the notification pipeline.
type Activity struct {
	ID              int64        `json:"id"`
	Type            ActivityType `json:"type"`
	Content         string       `json:"content"`
	ActorID         int64        `json:"actor_id"`
	ActorName       string       `json:"actor_name"`
	DestinationID   int64        `json:"destination_id"`
	DestinationType EntityType   `json:"destination_type"`
	PostedAt        time.Time    `json:"posted_at"`
}

// Comment is a reply on an activity.
type Comment struct {
	ID         int64     `json:"id"`
	ActivityID int64     `json:"activity_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	PostedAt   time.Time `json:"posted_at"`
}

// Alert is a persisted in-app notification row.
type Alert struct {
	ID        int64            `json:"id"`
	PersonID  int64            `json:"person_id"`
	Type      NotificationType `json:"type"`
	ActorName string           `json:"actor_name"`
	Message   string           `json:"message"`
	URL       string           `json:"url"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

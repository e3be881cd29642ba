package notification

import (
	"context"

	"streamnotify/internal/models"
)

// Populator backfills notification fields that translators leave empty, such
// as the actor's display name and the referenced activity's type. After
// Populate returns nil, every entity field with a positive id is filled in.
type Populator struct {
	people     PersonReader
	activities ActivityReader
}

func NewPopulator(people PersonReader, activities ActivityReader) *Populator {
	return &Populator{people: people, activities: activities}
}

func (p *Populator) Populate(ctx context.Context, notif *models.NotificationDTO) error {
	if notif.ActorID > 0 && (notif.ActorName == "" || notif.ActorAccountID == "") {
		actor, err := p.people.GetByID(ctx, notif.ActorID)
		if err != nil {
			return err
		}
		notif.ActorName = actor.DisplayName
		notif.ActorAccountID = actor.AccountID
	}

	if notif.ActivityID > 0 && notif.ActivityType == "" {
		activity, err := p.activities.GetActivityByID(ctx, notif.ActivityID)
		if err != nil {
			return err
		}
		notif.ActivityType = activity.Type
	}

	if notif.DestinationID > 0 && notif.DestinationType == models.EntityTypePerson && notif.DestinationName == "" {
		dest, err := p.people.GetByID(ctx, notif.DestinationID)
		if err != nil {
			return err
		}
		notif.DestinationName = dest.DisplayName
		notif.DestinationUniqueID = dest.AccountID
	}

	return nil
}

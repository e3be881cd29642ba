package models

// NotificationType identifies the kind of event a notification describes.
type NotificationType string

const (
	NotificationTypeFollowPerson           NotificationType = "FOLLOW_PERSON"
	NotificationTypeFollowGroup            NotificationType = "FOLLOW_GROUP"
	NotificationTypePostToPersonStream     NotificationType = "POST_TO_PERSONAL_STREAM"
	NotificationTypePostToGroupStream      NotificationType = "POST_TO_GROUP_STREAM"
	NotificationTypeCommentToPersonalPost  NotificationType = "COMMENT_TO_PERSONAL_POST"
	NotificationTypeCommentToGroupPost     NotificationType = "COMMENT_TO_GROUP_POST"
	NotificationTypeCommentToCommentedPost NotificationType = "COMMENT_TO_COMMENTED_POST"
	NotificationTypeLikeActivity           NotificationType = "LIKE_ACTIVITY"
)

// Category groups notification types for preference opt-outs. A user opts out
// of a whole category per transport, not out of individual types.
type Category string

const (
	CategoryFollow  Category = "FOLLOW"
	CategoryPost    Category = "POST"
	CategoryComment Category = "COMMENT"
	CategoryLike    Category = "LIKE"
)

var typeToCategory = map[NotificationType]Category{
	NotificationTypeFollowPerson:           CategoryFollow,
	NotificationTypeFollowGroup:            CategoryFollow,
	NotificationTypePostToPersonStream:     CategoryPost,
	NotificationTypePostToGroupStream:      CategoryPost,
	NotificationTypeCommentToPersonalPost:  CategoryComment,
	NotificationTypeCommentToGroupPost:     CategoryComment,
	NotificationTypeCommentToCommentedPost: CategoryComment,
	NotificationTypeLikeActivity:           CategoryLike,
}

// CategoryOf returns the preference category for a notification type. Types
// without a category mapping cannot be opted out of.
func CategoryOf(t NotificationType) (Category, bool) {
	c, ok := typeToCategory[t]
	return c, ok
}

// RequestType identifies the domain event carried by a
// CreateNotificationsRequest.
type RequestType string

const (
	RequestTypeFollower         RequestType = "FOLLOWER"
	RequestTypePostPersonStream RequestType = "POST_PERSON_STREAM"
	RequestTypePostGroupStream  RequestType = "POST_GROUP_STREAM"
	RequestTypeComment          RequestType = "COMMENT"
	RequestTypeLike             RequestType = "LIKE"
)

// EntityType identifies the kind of entity a stream or destination refers to.
type EntityType string

const (
	EntityTypePerson       EntityType = "PERSON"
	EntityTypeGroup        EntityType = "GROUP"
	EntityTypeOrganization EntityType = "ORGANIZATION"
	EntityTypeResource     EntityType = "RESOURCE"
	EntityTypeNotSet       EntityType = "NOTSET"
)

// ActivityType identifies the verb/object form of a stream activity.
type ActivityType string

const (
	ActivityTypeStatus   ActivityType = "STATUS"
	ActivityTypeBookmark ActivityType = "BOOKMARK"
	ActivityTypeNote     ActivityType = "NOTE"
	ActivityTypePhoto    ActivityType = "PHOTO"
	ActivityTypeVideo    ActivityType = "VIDEO"
	ActivityTypeFile     ActivityType = "FILE"
)

// NotificationDTO describes one notification instance as it moves from
// translation to delivery. Some fields are known at translation time, the
// rest are backfilled by the populator before a notifier sees it.
type NotificationDTO struct {
	Type         NotificationType `json:"type"`
	RecipientIDs []int64          `json:"recipient_ids"`

	ActorID        int64  `json:"actor_id"`
	ActorAccountID string `json:"actor_account_id,omitempty"`
	ActorName      string `json:"actor_name,omitempty"`

	ActivityID   int64        `json:"activity_id,omitempty"`
	ActivityType ActivityType `json:"activity_type,omitempty"`

	DestinationID       int64      `json:"destination_id,omitempty"`
	DestinationType     EntityType `json:"destination_type,omitempty"`
	DestinationUniqueID string     `json:"destination_unique_id,omitempty"`
	DestinationName     string     `json:"destination_name,omitempty"`

	AuxiliaryID       int64      `json:"auxiliary_id,omitempty"`
	AuxiliaryType     EntityType `json:"auxiliary_type,omitempty"`
	AuxiliaryUniqueID string     `json:"auxiliary_unique_id,omitempty"`
	AuxiliaryName     string     `json:"auxiliary_name,omitempty"`
}

// FilterPreference is one opt-out record: the person does not want
// notifications of the given category over the given transport.
type FilterPreference struct {
	PersonID    int64    `json:"person_id"`
	NotifierKey string   `json:"notifier_key"`
	Category    Category `json:"category"`
}

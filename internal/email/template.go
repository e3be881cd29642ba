package email

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/models"
)

// ActionPostComment is the action key for posting an emailed reply as a
// comment, the default reply-by-email action.
const ActionPostComment = "post-comment"

// Template is one email template triple. Static configuration, never mutated
// at runtime.
type Template struct {
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body"`
}

// Registry holds notification templates keyed by notification type and
// error-reply templates keyed by action key, with a generic reply fallback.
type Registry struct {
	notification map[models.NotificationType]Template
	errorReply   map[string]Template
	genericReply Template
}

// registryFile is the JSON shape of an on-disk template override file.
type registryFile struct {
	Notification map[string]Template `json:"notification"`
	ErrorReply   map[string]Template `json:"error_reply"`
	GenericReply *Template           `json:"generic_reply,omitempty"`
}

const registrySchema = `{
	"type": "object",
	"properties": {
		"notification": {
			"type": "object",
			"additionalProperties": {"$ref": "#/definitions/template"}
		},
		"error_reply": {
			"type": "object",
			"additionalProperties": {"$ref": "#/definitions/template"}
		},
		"generic_reply": {"$ref": "#/definitions/template"}
	},
	"additionalProperties": false,
	"definitions": {
		"template": {
			"type": "object",
			"properties": {
				"subject":   {"type": "string", "minLength": 1},
				"text_body": {"type": "string", "minLength": 1},
				"html_body": {"type": "string", "minLength": 1}
			},
			"required": ["subject", "text_body", "html_body"],
			"additionalProperties": false
		}
	}
}`

// DefaultRegistry returns the built-in template set.
func DefaultRegistry() *Registry {
	return &Registry{
		notification: map[models.NotificationType]Template{
			models.NotificationTypeFollowPerson: {
				Subject:  "$(actor.name) is now following you",
				TextBody: "$(actor.name) is now following your stream.\n\nView their profile: $(url.base)#people/$(actor.accountid)",
				HTMLBody: "<p><b>$(actor.name)</b> is now following your stream.</p><p><a href=\"$(url.base)#people/$(actor.accountid)\">View their profile</a></p>",
			},
			models.NotificationTypePostToPersonStream: {
				Subject:  "$(actor.name) posted to your stream",
				TextBody: "$(actor.name) posted a $(activity.type) to your stream:\n\n$(activity.content)\n\nView it: $(url.base)#activity/$(activity.id)",
				HTMLBody: "<p><b>$(actor.name)</b> posted a $(activity.type) to your stream:</p><blockquote>$(activity.content)</blockquote><p><a href=\"$(url.base)#activity/$(activity.id)\">View it</a></p>",
			},
			models.NotificationTypePostToGroupStream: {
				Subject:  "$(actor.name) posted to the $(dest.name) group",
				TextBody: "$(actor.name) posted a $(activity.type) to the $(dest.name) group:\n\n$(activity.content)\n\nView it: $(url.base)#activity/$(activity.id)",
				HTMLBody: "<p><b>$(actor.name)</b> posted a $(activity.type) to the <b>$(dest.name)</b> group:</p><blockquote>$(activity.content)</blockquote><p><a href=\"$(url.base)#activity/$(activity.id)\">View it</a></p>",
			},
			models.NotificationTypeCommentToPersonalPost: {
				Subject:  "$(actor.name) commented on your post",
				TextBody: "$(actor.name) commented on your $(activity.type):\n\n$(comment.content)\n\nView the conversation: $(url.base)#activity/$(activity.id)",
				HTMLBody: "<p><b>$(actor.name)</b> commented on your $(activity.type):</p><blockquote>$(comment.content)</blockquote><p><a href=\"$(url.base)#activity/$(activity.id)\">View the conversation</a></p>",
			},
			models.NotificationTypeCommentToGroupPost: {
				Subject:  "$(actor.name) commented on a post in the $(dest.name) group",
				TextBody: "$(actor.name) commented on a $(activity.type) in the $(dest.name) group:\n\n$(comment.content)\n\nView the conversation: $(url.base)#activity/$(activity.id)",
				HTMLBody: "<p><b>$(actor.name)</b> commented on a $(activity.type) in the <b>$(dest.name)</b> group:</p><blockquote>$(comment.content)</blockquote><p><a href=\"$(url.base)#activity/$(activity.id)\">View the conversation</a></p>",
			},
			models.NotificationTypeCommentToCommentedPost: {
				Subject:  "$(actor.name) commented on a post you commented on",
				TextBody: "$(actor.name) also commented on a $(activity.type) you commented on:\n\n$(comment.content)\n\nView the conversation: $(url.base)#activity/$(activity.id)",
				HTMLBody: "<p><b>$(actor.name)</b> also commented on a $(activity.type) you commented on:</p><blockquote>$(comment.content)</blockquote><p><a href=\"$(url.base)#activity/$(activity.id)\">View the conversation</a></p>",
			},
			models.NotificationTypeLikeActivity: {
				Subject:  "$(actor.name) liked your post",
				TextBody: "$(actor.name) liked your $(activity.type).\n\nView it: $(url.base)#activity/$(activity.id)",
				HTMLBody: "<p><b>$(actor.name)</b> liked your $(activity.type).</p><p><a href=\"$(url.base)#activity/$(activity.id)\">View it</a></p>",
			},
		},
		errorReply: map[string]Template{
			ActionPostComment: {
				Subject:  "Your emailed comment could not be posted",
				TextBody: "Your reply could not be posted as a comment.\n\nReason: $(error.message)\n\nYour original message is attached.",
				HTMLBody: "<p>Your reply could not be posted as a comment.</p><p>Reason: $(error.message)</p><p>Your original message is attached.</p>",
			},
		},
		genericReply: Template{
			Subject:  "Your email could not be processed",
			TextBody: "The system could not process your email.\n\nReason: $(error.message)\n\nYour original message is attached.",
			HTMLBody: "<p>The system could not process your email.</p><p>Reason: $(error.message)</p><p>Your original message is attached.</p>",
		},
	}
}

// LoadRegistry reads a JSON override file, validates it against the registry
// schema and layers it over the defaults. An unparseable or invalid file is a
// configuration error and raises.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template registry: %w", err)
	}
	if err := ValidateRegistryBytes(data); err != nil {
		return nil, err
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing template registry: %w", err)
	}

	reg := DefaultRegistry()
	for key, tmpl := range file.Notification {
		reg.notification[models.NotificationType(key)] = tmpl
	}
	for key, tmpl := range file.ErrorReply {
		reg.errorReply[key] = tmpl
	}
	if file.GenericReply != nil {
		reg.genericReply = *file.GenericReply
	}
	return reg, nil
}

// ValidateRegistryBytes checks a registry document against the schema.
func ValidateRegistryBytes(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(registrySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validating template registry: %w", err)
	}
	if !result.Valid() {
		msgs := ""
		for _, desc := range result.Errors() {
			msgs += "; " + desc.String()
		}
		return fmt.Errorf("template registry invalid%s", msgs)
	}
	return nil
}

// ForNotification returns the template for a notification type. Missing
// templates are configuration errors, surfaced to the caller.
func (r *Registry) ForNotification(t models.NotificationType) (Template, error) {
	tmpl, ok := r.notification[t]
	if !ok {
		return Template{}, errors.NewTemplateNotFoundError(string(t))
	}
	return tmpl, nil
}

// ForErrorReply returns the reply template for a failed action, falling back
// to the generic template when none is registered.
func (r *Registry) ForErrorReply(actionKey string) Template {
	if tmpl, ok := r.errorReply[actionKey]; ok {
		return tmpl
	}
	return r.genericReply
}

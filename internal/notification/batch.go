package notification

import (
	"context"
	"fmt"

	"streamnotify/internal/models"
)

// PropertyLoader produces a property value on first access. Loaders run at
// most once per map; the result is memoized.
type PropertyLoader func(ctx context.Context) (interface{}, error)

// PropertyMap is a name -> value bag where a value may be concrete or
// deferred behind a loader. Deferral keeps translators cheap: a property only
// costs a lookup if some notifier or template actually reads it.
type PropertyMap struct {
	values  map[string]interface{}
	loaders map[string]PropertyLoader
}

func NewPropertyMap() *PropertyMap {
	return &PropertyMap{
		values:  make(map[string]interface{}),
		loaders: make(map[string]PropertyLoader),
	}
}

// Put stores a concrete value, replacing any loader under the same name.
func (m *PropertyMap) Put(name string, value interface{}) {
	m.values[name] = value
	delete(m.loaders, name)
}

// PutLazy registers a loader to be invoked on first Get of name.
func (m *PropertyMap) PutLazy(name string, loader PropertyLoader) {
	m.loaders[name] = loader
	delete(m.values, name)
}

// PutAll copies every entry of props in as concrete values.
func (m *PropertyMap) PutAll(props map[string]interface{}) {
	for k, v := range props {
		m.Put(k, v)
	}
}

// Get resolves a property. The second return is false when the name is
// unknown or its loader produced nil.
func (m *PropertyMap) Get(ctx context.Context, name string) (interface{}, bool, error) {
	if v, ok := m.values[name]; ok {
		return v, v != nil, nil
	}
	loader, ok := m.loaders[name]
	if !ok {
		return nil, false, nil
	}
	v, err := loader(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("resolving property %q: %w", name, err)
	}
	m.values[name] = v
	delete(m.loaders, name)
	return v, v != nil, nil
}

// GetString resolves a property and renders it as a string. Absent or nil
// properties return ok=false so template substitution can omit them.
func (m *PropertyMap) GetString(ctx context.Context, name string) (string, bool, error) {
	v, ok, err := m.Get(ctx, name)
	if err != nil || !ok {
		return "", ok, err
	}
	if s, isStr := v.(string); isStr {
		return s, true, nil
	}
	return fmt.Sprintf("%v", v), true, nil
}

// Has reports whether a name is present, without triggering its loader.
func (m *PropertyMap) Has(name string) bool {
	if _, ok := m.values[name]; ok {
		return true
	}
	_, ok := m.loaders[name]
	return ok
}

// Names returns every known property name, resolved or not.
func (m *PropertyMap) Names() []string {
	names := make([]string, 0, len(m.values)+len(m.loaders))
	for k := range m.values {
		names = append(names, k)
	}
	for k := range m.loaders {
		names = append(names, k)
	}
	return names
}

// Batch is the output of one translated event: for each notification type,
// the set of recipients, plus a shared notification record and property bag.
// A batch is built once by a translator and consumed once by the
// orchestrator.
type Batch struct {
	Notification *models.NotificationDTO
	recipients   map[models.NotificationType][]int64
	properties   *PropertyMap
}

func NewBatch(notif *models.NotificationDTO) *Batch {
	return &Batch{
		Notification: notif,
		recipients:   make(map[models.NotificationType][]int64),
		properties:   NewPropertyMap(),
	}
}

// SetRecipients records the recipients for a notification type, deduplicated.
// Recipient order carries no meaning.
func (b *Batch) SetRecipients(t models.NotificationType, ids ...int64) {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	b.recipients[t] = unique
}

// Recipients returns the per-type recipient sets.
func (b *Batch) Recipients() map[models.NotificationType][]int64 {
	return b.recipients
}

// AllRecipients returns the union of recipients across every type.
func (b *Batch) AllRecipients() []int64 {
	seen := make(map[int64]struct{})
	var all []int64
	for _, ids := range b.recipients {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
		}
	}
	return all
}

// IsEmpty reports whether no type has any recipient.
func (b *Batch) IsEmpty() bool {
	return b == nil || len(b.AllRecipients()) == 0
}

// Properties returns the batch property bag.
func (b *Batch) Properties() *PropertyMap {
	return b.properties
}

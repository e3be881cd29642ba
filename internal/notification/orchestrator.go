package notification

import (
	"context"
	"fmt"
	"time"

	"streamnotify/internal/common/logger"
	"streamnotify/internal/common/metrics"
	"streamnotify/internal/common/observability"
	"streamnotify/internal/common/queue"
	"streamnotify/internal/models"
)

// Orchestrator runs the translate -> filter -> notify pipeline for one domain
// event at a time.
type Orchestrator struct {
	translators  TranslatorRegistry
	notifiers    []Notifier
	filterer     *RecipientFilterer
	preferences  PreferenceReader
	populator    *Populator
	dispatcher   queue.Dispatcher
	defaultProps map[string]interface{}
	logger       logger.Logger
	obs          *observability.Observability
}

func NewOrchestrator(
	translators TranslatorRegistry,
	notifiers []Notifier,
	filterer *RecipientFilterer,
	preferences PreferenceReader,
	populator *Populator,
	dispatcher queue.Dispatcher,
	defaultProps map[string]interface{},
	log logger.Logger,
	obs *observability.Observability,
) *Orchestrator {
	return &Orchestrator{
		translators:  translators,
		notifiers:    notifiers,
		filterer:     filterer,
		preferences:  preferences,
		populator:    populator,
		dispatcher:   dispatcher,
		defaultProps: defaultProps,
		logger:       log,
		obs:          obs,
	}
}

// Execute processes one event. The boolean is false only when the request
// type has no translator registered, which means the notification kind is
// disabled rather than broken. A notifier failing is logged and counted but
// never blocks the remaining notifiers or types.
func (o *Orchestrator) Execute(ctx context.Context, req *CreateNotificationsRequest) (bool, error) {
	start := time.Now()

	translator, ok := o.translators[req.Type]
	if !ok {
		o.logger.Debug("No translator registered, skipping", map[string]interface{}{
			"requestType": req.Type,
		})
		return false, nil
	}

	batch, err := translator.Translate(ctx, req)
	if err != nil {
		return true, err
	}
	if batch.IsEmpty() {
		return true, nil
	}

	if err := o.populator.Populate(ctx, batch.Notification); err != nil {
		return true, err
	}

	prefRows, err := o.preferences.GetByPersonIDs(ctx, batch.AllRecipients())
	if err != nil {
		return true, err
	}
	prefIndex := NewPreferenceIndex(prefRows)

	props := batch.Properties()
	for name, value := range o.defaultProps {
		if !props.Has(name) {
			props.Put(name, value)
		}
	}

	for notifType, recipientIDs := range batch.Recipients() {
		for _, notifier := range o.notifiers {
			filtered := o.filterer.Filter(ctx, notifType, recipientIDs, props, prefIndex, notifier.Key())
			if excluded := len(recipientIDs) - len(filtered); excluded > 0 {
				metrics.RecipientsFiltered.WithLabelValues(notifier.Key(), "excluded").Add(float64(excluded))
			}
			if len(filtered) == 0 {
				continue
			}

			notif := *batch.Notification
			notif.Type = notifType
			notif.RecipientIDs = filtered

			followUp, err := o.notify(ctx, notifier, &notif, props)
			if err != nil {
				metrics.NotificationsFailed.WithLabelValues(notifier.Key(), string(notifType)).Inc()
				o.logger.Error("Notifier failed", map[string]interface{}{
					"notifier":         notifier.Key(),
					"notificationType": notifType,
					"error":            err.Error(),
				})
				continue
			}

			metrics.NotificationsDelivered.WithLabelValues(notifier.Key(), string(notifType)).Inc()

			if followUp != nil {
				if err := o.dispatcher.Submit(ctx, followUp); err != nil {
					o.logger.Error("Failed to enqueue follow-up job", map[string]interface{}{
						"notifier":  notifier.Key(),
						"actionKey": followUp.ActionKey,
						"error":     err.Error(),
					})
				}
			}
		}
	}

	if o.obs != nil {
		o.obs.RecordBatchProcessed(ctx, string(req.Type))
		o.obs.RecordBatchDuration(ctx, time.Since(start), string(req.Type))
	}
	return true, nil
}

// notify invokes a single notifier, converting a panic into an error so one
// misbehaving notifier cannot abort the remaining (type, notifier) pairs.
func (o *Orchestrator) notify(ctx context.Context, n Notifier, notif *models.NotificationDTO, props *PropertyMap) (followUp *queue.AsyncRequest, err error) {
	defer func() {
		if r := recover(); r != nil {
			followUp = nil
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return n.Notify(ctx, notif, props)
}

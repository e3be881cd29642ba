package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Total number of notifications delivered, per notifier and type",
		},
		[]string{"notifier", "type"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notifier invocations that failed",
		},
		[]string{"notifier", "type"},
	)

	RecipientsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_recipients_filtered_total",
			Help: "Recipients removed by preference opt-outs or filter predicates",
		},
		[]string{"notifier", "reason"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_emails_sent_total",
			Help: "Notification emails handed to the mail transport",
		},
		[]string{"transport"},
	)

	InboundMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_messages_total",
			Help: "Inbound mail messages by outcome (success, discard, error)",
		},
		[]string{"outcome"},
	)

	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "inbound_ingest_run_duration_seconds",
			Help: "Duration of a single mailbox ingestion run",
		},
	)
)

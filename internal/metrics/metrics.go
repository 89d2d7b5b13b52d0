package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_notifications_sent_total",
			Help: "Delivered notifications by trigger and channel",
		},
		[]string{"trigger", "channel"},
	)

	NotificationsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_notifications_failed_total",
			Help: "Failed notification attempts by trigger and channel",
		},
		[]string{"trigger", "channel"},
	)

	ProtocolsAdvancedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "protocol_days_advanced_total",
			Help: "Protocol day increments applied by the advancement batch",
		},
	)

	ProtocolsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "protocol_expired_total",
			Help: "Protocols expired after their final day",
		},
	)

	RewardRollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_reward_rolls_total",
			Help: "Reward tier draws by resulting tier",
		},
		[]string{"tier"},
	)
)

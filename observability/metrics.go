// Package observability exposes the server's Prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the chat server emits. Gauges that
// mirror live registry state are registered separately through
// RegisterRoomGauges once the registry exists.
type Metrics struct {
	ConnectionsLive    prometheus.Gauge
	MessagesAppended   prometheus.Counter
	BroadcastsTotal    prometheus.Counter
	DeliveryFailures   prometheus.Counter
	BackplanePublished prometheus.Counter
	BackplaneReplayed  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_connections_live",
			Help: "Number of websocket connections currently open.",
		}),
		MessagesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_appended_total",
			Help: "Messages durably appended to the log.",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_broadcasts_total",
			Help: "Fan-out rounds executed by the registry.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_delivery_failures_total",
			Help: "Sink deliveries that failed and triggered an eviction.",
		}),
		BackplanePublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_backplane_published_total",
			Help: "Events published to the cross-node backplane.",
		}),
		BackplaneReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_backplane_replayed_total",
			Help: "Remote events replayed into local rooms.",
		}),
	}

	reg.MustRegister(
		m.ConnectionsLive,
		m.MessagesAppended,
		m.BroadcastsTotal,
		m.DeliveryFailures,
		m.BackplanePublished,
		m.BackplaneReplayed,
	)
	return m
}

// RoomCounter is the slice of registry state the gauges observe.
type RoomCounter interface {
	RoomCount() int
	SubscriptionCount() int
}

func RegisterRoomGauges(reg prometheus.Registerer, rooms RoomCounter) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "chat_rooms_live",
			Help: "Rooms with at least one subscribed connection.",
		},
		func() float64 { return float64(rooms.RoomCount()) },
	))
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "chat_room_members_live",
			Help: "Total subscriptions across all rooms.",
		},
		func() float64 { return float64(rooms.SubscriptionCount()) },
	))
}

package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"portshare-backend/internal/model"
)

// Event is one order-transition notification to fan out to the
// recipient operator's push subscriptions. Events are dispatched after
// the transition has committed.
type Event struct {
	OrderID     string
	RecipientID string
	Message     string
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers delivering transition
// notifications.
type WorkerPool struct {
	size    int
	jobs    chan Event
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case ev := <-wp.jobs:
			wp.deliver(ctx, ev)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// NotifyTransition queues an event for delivery. Implements the order
// service's Notifier. Drops the event if the queue is saturated;
// notifications are best-effort, the system note is the durable record.
func (wp *WorkerPool) NotifyTransition(orderID, recipientID, message string) {
	select {
	case wp.jobs <- Event{OrderID: orderID, RecipientID: recipientID, Message: message}:
	default:
		log.Printf("notification queue full, dropping event for order %s", orderID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Event {
	return wp.jobs
}

// deliver sends the event to every subscription of the recipient.
func (wp *WorkerPool) deliver(ctx context.Context, ev Event) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("operator_id = ?", ev.RecipientID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for operator %s: %v", ev.RecipientID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"order_id": ev.OrderID,
		"message":  ev.Message,
	})
	if err != nil {
		log.Printf("error marshalling notification payload for order %s: %v", ev.OrderID, err)
		return
	}

	for _, sub := range subscriptions {
		wp.send(ctx, sub, payload)
	}
}

// send pushes a single notification, pruning expired subscriptions.
func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}

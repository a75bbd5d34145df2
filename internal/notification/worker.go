package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"toolroom-console/internal/model"
	"toolroom-console/internal/store"
)

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

// Payload is the JSON body pushed to subscribed browsers.
type Payload struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	AlertID  string `json:"alert_id"`
	Severity string `json:"severity"`
	Tag      string `json:"tag"`
}

// PayloadFor builds the push payload announcing an alert.
func PayloadFor(a model.Alert) Payload {
	return Payload{
		Title:    a.Severity + ": " + a.Title,
		Body:     a.Message,
		AlertID:  a.ID,
		Severity: a.Severity,
		Tag:      "alert-" + a.ID,
	}
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan model.Alert
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	logger  *zap.SugaredLogger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options, logger *zap.SugaredLogger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Alert, size), // Buffered channel
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Debugf("push worker %d started", id)
	for {
		select {
		case alert := <-wp.jobs:
			wp.logger.Debugf("push worker %d processing alert %s", id, alert.ID)
			wp.sendNotificationsForAlert(ctx, alert)
		case <-ctx.Done():
			wp.logger.Debugf("push worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(alert model.Alert) {
	wp.jobs <- alert
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.Alert {
	return wp.jobs
}

// sendNotificationsForAlert pushes one alert to every stored subscription.
func (wp *WorkerPool) sendNotificationsForAlert(ctx context.Context, alert model.Alert) {
	subscriptions, err := wp.store.ListSubscriptions(ctx)
	if err != nil {
		wp.logger.Errorf("Error fetching subscriptions for alert %s: %v", alert.ID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(PayloadFor(alert))
	if err != nil {
		wp.logger.Errorf("Error encoding payload for alert %s: %v", alert.ID, err)
		return
	}

	wp.logger.Infof("Sending %d notifications for alert %s", len(subscriptions), alert.ID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.logger.Warnf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.logger.Infof("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.logger.Errorf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}

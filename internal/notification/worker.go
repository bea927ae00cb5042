package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"room-reservation-backend/internal/calendar"
	"room-reservation-backend/internal/store"
)

// queueFactor sizes the job buffer relative to the number of workers.
const queueFactor = 64

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

// RoomFreed is one job: an interval of a room became bookable again.
type RoomFreed struct {
	RoomID int64
	Date   string
	Begin  int
	End    int
}

// Message is the push payload shown by the client.
type Message struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	RoomID int64  `json:"room_id"`
	Date   string `json:"date"`
	Begin  string `json:"begin"`
	End    string `json:"end"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan RoomFreed
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan RoomFreed, size*queueFactor),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
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
	log.Printf("Worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			log.Printf("Worker %d processing room %d (%s)", id, job.RoomID, job.Date)
			wp.sendNotificationsForRoom(ctx, job)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job without blocking. A full queue drops the job.
func (wp *WorkerPool) Dispatch(job RoomFreed) bool {
	select {
	case wp.jobs <- job:
		return true
	default:
		log.Printf("[WARN] notification queue full, dropping room-freed job for room %d", job.RoomID)
		return false
	}
}

// NotifyRoomFreed queues a room-freed notification.
func (wp *WorkerPool) NotifyRoomFreed(roomID int64, date string, begin, end int) {
	wp.Dispatch(RoomFreed{RoomID: roomID, Date: date, Begin: begin, End: end})
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan RoomFreed {
	return wp.jobs
}

// sendNotificationsForRoom fetches subscriptions and sends notifications for a given room.
func (wp *WorkerPool) sendNotificationsForRoom(ctx context.Context, job RoomFreed) {
	subscriptions, err := wp.store.SubscriptionsForRoom(ctx, job.RoomID)
	if err != nil {
		log.Printf("Error fetching subscriptions for room %d: %v", job.RoomID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for room %d", len(subscriptions), job.RoomID)

	roomLabel := fmt.Sprintf("%d", job.RoomID)
	if room, err := wp.store.GetRoom(ctx, job.RoomID); err != nil {
		log.Printf("Error fetching room %d: %v", job.RoomID, err)
	} else if room.NoRoom != "" {
		roomLabel = room.NoRoom
	}

	payload, err := json.Marshal(buildMessage(roomLabel, job))
	if err != nil {
		log.Printf("Error encoding notification for room %d: %v", job.RoomID, err)
		return
	}
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub.Endpoint, sub.P256DH, sub.Auth, payload)
	}
}

func buildMessage(roomLabel string, job RoomFreed) Message {
	begin, end := calendar.FormatClock(job.Begin), calendar.FormatClock(job.End)
	return Message{
		Title:  fmt.Sprintf("Room %s is free", roomLabel),
		Body:   fmt.Sprintf("Room %s can be booked on %s from %s to %s.", roomLabel, job.Date, begin, end),
		RoomID: job.RoomID,
		Date:   job.Date,
		Begin:  begin,
		End:    end,
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, endpoint, p256dh, auth string, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: p256dh,
			Auth:   auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", endpoint)
		if err := wp.store.DeleteSubscription(ctx, endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", endpoint, err)
		}
	}
}

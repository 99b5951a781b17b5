// Package notifications fans an event out to the channels allowed by its
// template and the recipient's preferences. Channel deliveries are
// isolated from each other, and a durable in-app record is persisted
// regardless of delivery outcome.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/metrics"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
)

// ErrSubscriptionGone is returned by a PushSender when the endpoint no
// longer exists; the notifier purges the stored subscription in response.
var ErrSubscriptionGone = errors.New("push subscription gone")

type Store interface {
	Insert(ctx context.Context, n *models.Notification) error
}

type UserSource interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindAdmins(ctx context.Context) ([]models.User, error)
	RemovePushSubscription(ctx context.Context, userID primitive.ObjectID, endpoint string) error
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type PushSender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) error
}

type RealtimeEmitter interface {
	Emit(userID string, event string, payload interface{}) bool
}

type Notifier struct {
	store    Store
	users    UserSource
	email    EmailSender
	push     PushSender
	realtime RealtimeEmitter
	log      *logrus.Logger

	// dispatchTimeout bounds one async delivery run.
	dispatchTimeout time.Duration
	// persistTimeout bounds the durable record write on its own.
	persistTimeout time.Duration
	// broadcastLimit bounds concurrent per-admin deliveries.
	broadcastLimit int
}

func NewNotifier(store Store, users UserSource, email EmailSender, push PushSender, realtime RealtimeEmitter, log *logrus.Logger) *Notifier {
	return &Notifier{
		store:           store,
		users:           users,
		email:           email,
		push:            push,
		realtime:        realtime,
		log:             log,
		dispatchTimeout: 30 * time.Second,
		persistTimeout:  5 * time.Second,
		broadcastLimit:  4,
	}
}

// Publish delivers the event in the background. Order and payment flows
// call this; a broken mail server or push endpoint can never fail or slow
// the request that produced the event.
func (n *Notifier) Publish(ev Event) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				n.log.WithField("event", ev.Type).Errorf("notification dispatch panicked: %v", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), n.dispatchTimeout)
		defer cancel()

		if err := n.deliver(ctx, ev); err != nil {
			n.log.WithError(err).WithField("event", ev.Type).Error("notification dispatch failed")
		}
	}()
}

func (n *Notifier) deliver(ctx context.Context, ev Event) error {
	if ev.Broadcast {
		return n.notifyAdmins(ctx, ev)
	}

	user, err := n.users.FindByID(ctx, ev.UserID)
	if err != nil {
		return err
	}
	_, err = n.Dispatch(ctx, user, ev)
	return err
}

// notifyAdmins fans the event out to every admin with bounded concurrency.
// Each recipient is isolated: one slow or failing admin inbox does not
// block or fail the rest.
func (n *Notifier) notifyAdmins(ctx context.Context, ev Event) error {
	admins, err := n.users.FindAdmins(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.broadcastLimit)
	for i := range admins {
		admin := admins[i]
		g.Go(func() error {
			if _, err := n.Dispatch(gctx, &admin, ev); err != nil {
				n.log.WithError(err).WithField("userId", admin.Id.Hex()).Warn("admin notification failed")
			}
			return nil
		})
	}
	return g.Wait()
}

// Dispatch synchronously delivers one event to one recipient. Applicable
// channels are the event template intersected with the user's
// preferences; each channel's outcome is recorded individually and the
// notification record is persisted even when every channel failed.
func (n *Notifier) Dispatch(ctx context.Context, user *models.User, ev Event) (*models.Notification, error) {
	title, message := render(ev)
	now := time.Now().UTC()

	record := &models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    user.Id,
		Type:      string(ev.Type),
		Title:     title,
		Message:   message,
		Data:      bson.M(ev.Data),
		CreatedAt: now,
	}

	for _, channel := range channelsFor(ev.Type) {
		if !user.ChannelEnabled(channel) {
			continue
		}

		result := models.DeliveryResult{Channel: channel, At: time.Now().UTC()}
		switch channel {
		case models.ChannelEmail:
			if err := n.email.Send(ctx, user.Email, title, message); err != nil {
				result.Error = err.Error()
			} else {
				result.Delivered = true
			}
		case models.ChannelPush:
			delivered, err := n.sendPush(ctx, user, record)
			result.Delivered = delivered
			if err != nil {
				result.Error = err.Error()
			}
		case models.ChannelRealtime:
			// Best-effort and additive: the persisted record below is the
			// source of truth, a missed socket emit is not a failure.
			result.Delivered = n.realtime.Emit(user.Id.Hex(), string(ev.Type), record)
		}

		outcome := "failed"
		if result.Delivered {
			outcome = "delivered"
		}
		metrics.NotificationDeliveries.WithLabelValues(channel, outcome).Inc()
		record.Deliveries = append(record.Deliveries, result)
	}

	// Persist on a fresh context: slow channel sends may have consumed
	// the dispatch deadline, and the in-app record must not be lost to it.
	persistCtx, cancel := context.WithTimeout(context.Background(), n.persistTimeout)
	defer cancel()
	if err := n.store.Insert(persistCtx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (n *Notifier) sendPush(ctx context.Context, user *models.User, record *models.Notification) (bool, error) {
	if len(user.PushSubscriptions) == 0 {
		return false, errors.New("no push subscriptions")
	}

	payload, err := json.Marshal(pushPayload{
		Title:   record.Title,
		Message: record.Message,
		Type:    record.Type,
		Data:    record.Data,
	})
	if err != nil {
		return false, err
	}

	delivered := false
	var lastErr error
	for _, sub := range user.PushSubscriptions {
		err := n.push.Send(ctx, sub, payload)
		if err == nil {
			delivered = true
			continue
		}
		if errors.Is(err, ErrSubscriptionGone) {
			// Endpoint is dead for good; purge it so we stop retrying.
			if perr := n.users.RemovePushSubscription(ctx, user.Id, sub.Endpoint); perr != nil {
				n.log.WithError(perr).Warn("failed to purge dead push subscription")
			}
		}
		lastErr = err
	}
	if delivered {
		return true, nil
	}
	return false, lastErr
}

type pushPayload struct {
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
}

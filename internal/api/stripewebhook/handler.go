// Package stripewebhooks receives Stripe webhooks and reconciles them into
// local subscriptions, registrations and payments.
package stripewebhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
	"go.uber.org/zap"
)

const maxBodyBytes = 65536

// Outcome labels for the events counter.
const (
	outcomeProcessed = "processed"
	outcomeFailed    = "failed"
	outcomeIgnored   = "ignored"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
)

type Handler struct {
	rec    *Reconciler
	events store.EventStore
	secret string
	log    *zap.SugaredLogger
	count  *prometheus.CounterVec
}

func NewHandler(rec *Reconciler, events store.EventStore, secret string, reg prometheus.Registerer, log *zap.SugaredLogger) *Handler {
	count := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "explore_stripe_webhook_events_total",
		Help: "Stripe webhook deliveries by event type and outcome",
	}, []string{"type", "outcome"})
	reg.MustRegister(count)

	return &Handler{rec: rec, events: events, secret: secret, log: log, count: count}
}

// StripeWebhook verifies the signature and dispatches the event. Anything
// that goes wrong after verification is logged, stored on the event row and
// still answered with 200 so Stripe does not retry.
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.secret == "" {
		h.log.Error("Stripe webhook received but STRIPE_WEBHOOK_SECRET is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook secret not configured"})
		return
	}

	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		h.count.WithLabelValues("unknown", outcomeRejected).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.Warnw("Stripe signature verification failed", "error", err)
		h.count.WithLabelValues("unknown", outcomeRejected).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	ctx := c.Request.Context()
	eventType := string(event.Type)
	log := h.log.With("eventID", event.ID, "eventType", eventType)

	if prev, err := h.events.GetStripeEvent(ctx, event.ID); err == nil && prev.Status == billing.EventProcessed {
		log.Infow("Duplicate Stripe event acknowledged")
		h.count.WithLabelValues(eventType, outcomeDuplicate).Inc()
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Warnw("Could not check Stripe event history", "error", err)
	}

	received := time.Now()
	handled, err := h.dispatch(ctx, &event)
	if !handled {
		log.Debugw("Stripe event ignored")
		h.count.WithLabelValues(eventType, outcomeIgnored).Inc()
		c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
		return
	}

	record := &billing.StripeEvent{
		ID:         event.ID,
		Type:       eventType,
		Status:     billing.EventProcessed,
		ReceivedAt: received,
	}
	if err != nil {
		msg := err.Error()
		record.Status = billing.EventFailed
		record.Error = &msg
		log.Errorw("Stripe event processing failed", "error", err)
		h.count.WithLabelValues(eventType, outcomeFailed).Inc()
	} else {
		processed := time.Now()
		record.ProcessedAt = &processed
		log.Infow("Stripe event processed")
		h.count.WithLabelValues(eventType, outcomeProcessed).Inc()
	}

	if err := h.events.SaveStripeEvent(ctx, record); err != nil {
		log.Errorw("Failed to store Stripe event", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// dispatch routes an event to the reconciler. handled is false for event
// types the service does not act on.
func (h *Handler) dispatch(ctx context.Context, event *stripe.Event) (handled bool, err error) {
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var session stripe.CheckoutSession
		if err := decode(event, &session); err != nil {
			return true, err
		}
		return true, h.rec.ActivateCheckout(ctx, &session)

	case "checkout.session.expired", "checkout.session.async_payment_failed":
		var session stripe.CheckoutSession
		if err := decode(event, &session); err != nil {
			return true, err
		}
		return true, h.rec.ExpireCheckout(ctx, &session)

	case "invoice.payment_succeeded", "invoice.payment_failed":
		var inv stripe.Invoice
		if err := decode(event, &inv); err != nil {
			return true, err
		}
		return true, h.rec.RecordInvoice(ctx, event.ID, &inv, event.Type == "invoice.payment_succeeded")

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := decode(event, &sub); err != nil {
			return true, err
		}
		return true, h.rec.SyncSubscription(ctx, &sub)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := decode(event, &sub); err != nil {
			return true, err
		}
		return true, h.rec.CancelSubscription(ctx, &sub)

	default:
		return false, nil
	}
}

func decode(event *stripe.Event, v any) error {
	if event.Data == nil {
		return fmt.Errorf("event %s has no data", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("parse %s payload: %w", event.Type, err)
	}
	return nil
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}

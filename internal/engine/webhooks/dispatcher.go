package webhooks

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"teamsync/internal/pkg/metrics"
	"teamsync/internal/platform/models"
)

// Registry is the persistence contract the dispatcher needs: list delivery
// candidates per organization and record per-endpoint outcomes.
type Registry interface {
	ListActive(orgID string) ([]*models.WebhookEndpoint, error)
	RecordSuccess(endpointID string, deliveredAt time.Time) error
	RecordFailure(endpointID string) error
}

// Dispatcher fans a domain event out to every subscribed endpoint of an
// organization. Delivery is best-effort and strictly side-channel: nothing
// that happens here reaches the business operation that produced the event.
type Dispatcher struct {
	registry  Registry
	transport Transport

	wg sync.WaitGroup
}

func NewDispatcher(registry Registry, transport Transport) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		transport: transport,
	}
}

// Dispatch schedules delivery of one event occurrence and returns
// immediately. The caller's transaction must already be committed. Matched
// endpoints are delivered to concurrently and independently; a failure on
// one never delays or cancels another.
func (d *Dispatcher) Dispatch(orgID string, event Event, data interface{}) {
	d.wg.Add(1)
	go d.run(orgID, event, data)
}

func (d *Dispatcher) run(orgID string, event Event, data interface{}) {
	defer d.wg.Done()

	// One timestamp per dispatch call, shared by every matching delivery.
	createdAt := time.Now().UTC()

	endpoints, err := d.registry.ListActive(orgID)
	if err != nil {
		log.Warn().Err(err).Str("org_id", orgID).Str("event", string(event)).
			Msg("webhook dispatch aborted: listing endpoints failed")
		metrics.DispatchesSkipped.WithLabelValues("registry_error").Inc()
		return
	}

	dispatched := 0
	for _, endpoint := range endpoints {
		if !Matches(endpoint, event) {
			continue
		}
		dispatched++
		d.wg.Add(1)
		go d.deliver(endpoint, NewEnvelope(event, createdAt, data))
	}

	if dispatched == 0 {
		metrics.DispatchesSkipped.WithLabelValues("no_match").Inc()
	}
}

func (d *Dispatcher) deliver(endpoint *models.WebhookEndpoint, envelope *Envelope) {
	defer d.wg.Done()

	start := time.Now()
	outcome := d.transport.Deliver(endpoint, envelope)
	metrics.WebhookDeliveryDuration.Observe(time.Since(start).Seconds())

	if outcome.Success {
		metrics.WebhookDeliveries.WithLabelValues("success", envelope.Event).Inc()
		if err := d.registry.RecordSuccess(endpoint.ID, time.Now().UTC()); err != nil {
			log.Warn().Err(err).Str("endpoint_id", endpoint.ID).Msg("failed to record webhook success")
		}
		return
	}

	metrics.WebhookDeliveries.WithLabelValues("failure", envelope.Event).Inc()
	evt := log.Warn().Str("endpoint_id", endpoint.ID).Str("url", endpoint.URL).
		Str("delivery_id", envelope.ID).Str("event", envelope.Event)
	if outcome.Err != nil {
		evt = evt.Err(outcome.Err)
	} else {
		evt = evt.Int("status", outcome.StatusCode)
	}
	evt.Msg("webhook delivery failed")

	if err := d.registry.RecordFailure(endpoint.ID); err != nil {
		log.Warn().Err(err).Str("endpoint_id", endpoint.ID).Msg("failed to record webhook failure")
	}
}

// Wait blocks until every scheduled delivery has finished. Used during
// graceful shutdown and by tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives fully classified click events.
type Sink func(ctx context.Context, event *ClickEvent) error

// StoreSink writes events straight to a ClickStore.
func StoreSink(store ClickStore) Sink {
	return store.RecordClick
}

// Target identifies the link that was followed.
type Target struct {
	LinkID         uuid.UUID
	OrganizationID uuid.UUID
	Code           string
}

// Recorder records clicks off the request path.
type Recorder struct {
	sink    Sink
	geo     GeoLocator
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder. timeout bounds the geolocation and sink work of one click.
func NewRecorder(sink Sink, geo GeoLocator, timeout time.Duration, logger *zap.Logger) *Recorder {
	return &Recorder{
		sink:    sink,
		geo:     geo,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// Record dispatches a click and returns immediately. Failures are logged, never returned.
func (r *Recorder) Record(target Target, meta ClientMeta) {
	clickedAt := r.now().UTC()

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		event := r.buildEvent(ctx, target, meta, clickedAt)

		if err := r.sink(ctx, event); err != nil {
			r.logger.Error("failed to record click",
				zap.String("code", target.Code),
				zap.String("link_id", target.LinkID.String()),
				zap.Error(err),
			)

			return
		}

		r.logger.Debug("click recorded", zap.String("code", target.Code))
	}()
}

func (r *Recorder) buildEvent(ctx context.Context, target Target, meta ClientMeta, clickedAt time.Time) *ClickEvent {
	device := Classify(meta.UserAgent)
	loc := r.geo.Locate(ctx, meta.ClientIP)

	return &ClickEvent{
		ID:             uuid.New(),
		LinkID:         target.LinkID,
		OrganizationID: target.OrganizationID,
		Code:           target.Code,
		ClientIP:       meta.ClientIP,
		UserAgent:      meta.UserAgent,
		Referrer:       meta.Referrer,
		Country:        loc.Country,
		City:           loc.City,
		DeviceType:     device.Type,
		Browser:        device.Browser,
		OS:             device.OS,
		ClickedAt:      clickedAt,
	}
}

// Shutdown waits for in-flight recordings to finish.
func (r *Recorder) Shutdown() error {
	r.wg.Wait()

	return nil
}

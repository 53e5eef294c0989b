package sink

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

// Recorder stores probe results for sites known to the sink. Results for
// unknown URLs are skipped, matching ad-hoc probes of arbitrary pages.
type Recorder struct {
	sink Sink
	log  logger.Logger
}

func NewRecorder(s Sink, log logger.Logger) *Recorder {
	return &Recorder{sink: s, log: log}
}

// Record inserts the check row and refreshes the cached site status.
func (r *Recorder) Record(ctx context.Context, res domain.ProbeResult) error {
	if r == nil || r.sink == nil {
		return nil
	}

	site, err := r.sink.FindSite(ctx, res.URL)
	if err != nil {
		if errors.Is(err, ErrSiteNotFound) {
			r.log.Debug("probe result not stored, site unknown to sink", logger.String("url", res.URL))
			return nil
		}
		return eris.Wrapf(err, "lookup site %s", res.URL)
	}

	if err := r.sink.InsertCheck(ctx, domain.NewCheckRecord(NewID(), site.ID, res)); err != nil {
		return eris.Wrapf(err, "insert check for %s", res.URL)
	}

	ai := res.AIReadable
	update := domain.StatusUpdate{
		Status:     res.Status,
		LastCheck:  res.Timestamp,
		AIReadable: &ai,
	}
	if err := r.sink.UpdateSiteStatus(ctx, site.ID, update); err != nil {
		return eris.Wrapf(err, "update status for %s", res.URL)
	}
	return nil
}

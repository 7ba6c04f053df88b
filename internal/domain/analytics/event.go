package analytics

import (
	"context"
	"errors"
	"time"
)

// Name identifies a tracked user action.
type Name string

const (
	EventGeneratePlan     Name = "generate_plan"
	EventPlanDownloaded   Name = "plan_downloaded"
	EventGenerateJournal  Name = "generate_journal"
	EventDownloadJournal  Name = "download_journal"
	EventDownloadDrill    Name = "download_drill"
	EventDrillDownloaded  Name = "drill_downloaded"
	EventDownloadMaterial Name = "download_material"
)

// Names lists every known event name.
var Names = []Name{
	EventGeneratePlan, EventPlanDownloaded, EventGenerateJournal, EventDownloadJournal,
	EventDownloadDrill, EventDrillDownloaded, EventDownloadMaterial,
}

// ErrUnknownEvent is returned for event names outside Names.
var ErrUnknownEvent = errors.New("unknown analytics event")

// Event is a single tracked action with its parameters.
type Event struct {
	ID         string
	Name       Name
	Params     map[string]string
	OccurredAt time.Time
}

// Validate checks the event name is known.
func (e Event) Validate() error {
	for _, n := range Names {
		if e.Name == n {
			return nil
		}
	}
	return ErrUnknownEvent
}

// Recorder records user actions. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Count is the number of recorded events with one name.
type Count struct {
	Name  Name `json:"name"`
	Count int  `json:"count"`
}

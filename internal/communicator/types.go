package communicator

import (
	"time"

	"github.com/bilal/transition-relay/internal/telemetry"
)

// MirrorRecord is the JSON copy of a relayed submission published to Kafka.
type MirrorRecord struct {
	CorrelationID string           `json:"correlation_id"`
	Operation     string           `json:"operation"`
	Callsign      string           `json:"callsign"`
	Fields        telemetry.Fields `json:"fields"`
	StatusCode    int              `json:"status_code,omitempty"`
	OK            bool             `json:"ok"`
	Error         string           `json:"error,omitempty"`
	RelayedAt     time.Time        `json:"relayed_at"`
}

// NewMirrorRecord captures a submission and the response it got.
func NewMirrorRecord(callsign string, fields telemetry.Fields, resp Response, at time.Time) MirrorRecord {
	m := MirrorRecord{
		CorrelationID: resp.CorrelationID,
		Operation:     string(resp.Operation),
		Callsign:      callsign,
		Fields:        fields,
		StatusCode:    resp.StatusCode,
		OK:            resp.OK(),
		RelayedAt:     at.UTC(),
	}
	if resp.Err != nil {
		m.Error = resp.Err.Error()
	}
	return m
}

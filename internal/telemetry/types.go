package telemetry

// Operation names a remote POST endpoint on the aggregation service.
type Operation string

const (
	OpPayloadTelemetry  Operation = "payload_telemetry"
	OpListenerInfo      Operation = "listener_info"
	OpListenerTelemetry Operation = "listener_telemetry"
)

// Valid reports whether op is one of the three relayed operations.
func (op Operation) Valid() bool {
	switch op {
	case OpPayloadTelemetry, OpListenerInfo, OpListenerTelemetry:
		return true
	}
	return false
}

// Record is one of RawTelemetryRecord, ListenerInfoRecord or ListenerPositionRecord.
type Record interface {
	// Operation is the endpoint this record is relayed to.
	Operation() Operation
	// Sender is the callsign posted alongside the record.
	Sender() string
}

// RawTelemetryRecord carries an unrecognised string verbatim as payload telemetry.
// Payload already holds the "$$" sentinel and trailing newline.
type RawTelemetryRecord struct {
	Identity string
	Payload  string
}

func (RawTelemetryRecord) Operation() Operation { return OpPayloadTelemetry }
func (r RawTelemetryRecord) Sender() string     { return r.Identity }

// ListenerInfoRecord describes a listening station's equipment and client software.
type ListenerInfoRecord struct {
	Callsign        string
	Radio           string
	Antenna         string
	TrackingVersion string
	TrackingPayload string
}

func (ListenerInfoRecord) Operation() Operation { return OpListenerInfo }
func (r ListenerInfoRecord) Sender() string     { return r.Callsign }

// ListenerPositionRecord is a listener or chase car location at a time of day.
type ListenerPositionRecord struct {
	Callsign  string
	Time      TimeOfDay
	Latitude  float64
	Longitude float64
	Altitude  int
}

func (ListenerPositionRecord) Operation() Operation { return OpListenerTelemetry }
func (r ListenerPositionRecord) Sender() string     { return r.Callsign }

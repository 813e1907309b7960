package telemetry

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrRecordMismatch   = errors.New("record does not match operation")
)

// Fields is the form body of one POST. Every key an operation defines is
// always present, even when its value is empty.
type Fields map[string]string

// Values converts the fields for form encoding.
func (f Fields) Values() url.Values {
	v := make(url.Values, len(f))
	for k, val := range f {
		v.Set(k, val)
	}
	return v
}

// Encode returns the application/x-www-form-urlencoded body, keys sorted.
func (f Fields) Encode() string {
	return f.Values().Encode()
}

type trackerInfo struct {
	Version string `json:"version"`
	Payload string `json:"payload"`
}

// listenerInfoData nests the tracking client's version and payload under
// the name of the client software.
type listenerInfoData struct {
	Radio   string      `json:"radio"`
	Antenna string      `json:"antenna"`
	Tracker trackerInfo `json:"dl-fldigi"`
}

type listenerTelemetryData struct {
	Time      TimeOfDay `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  int       `json:"altitude"`
}

// emptyMetadata is the payload_telemetry metadata object; always "{}".
var emptyMetadata = struct{}{}

// BuildFields encodes rec into the POST fields op expects. It has no side
// effects, so the same record always yields identical fields.
func BuildFields(op Operation, rec Record) (Fields, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if rec == nil || rec.Operation() != op {
		return nil, fmt.Errorf("%w: %s", ErrRecordMismatch, op)
	}

	switch r := rec.(type) {
	case RawTelemetryRecord:
		meta, err := json.Marshal(emptyMetadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		return Fields{
			"callsign":    r.Identity,
			"string":      base64.StdEncoding.EncodeToString([]byte(r.Payload)),
			"string_type": "base64",
			"metadata":    string(meta),
		}, nil

	case ListenerInfoRecord:
		data, err := json.Marshal(listenerInfoData{
			Radio:   r.Radio,
			Antenna: r.Antenna,
			Tracker: trackerInfo{Version: r.TrackingVersion, Payload: r.TrackingPayload},
		})
		if err != nil {
			return nil, fmt.Errorf("encode listener info: %w", err)
		}
		return Fields{"callsign": r.Callsign, "data": string(data)}, nil

	case ListenerPositionRecord:
		data, err := json.Marshal(listenerTelemetryData{
			Time:      r.Time,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Altitude:  r.Altitude,
		})
		if err != nil {
			return nil, fmt.Errorf("encode listener telemetry: %w", err)
		}
		return Fields{"callsign": r.Callsign, "data": string(data)}, nil
	}

	return nil, fmt.Errorf("%w: %T", ErrRecordMismatch, rec)
}

// Build is BuildFields for a parsed submission.
func (s Submission) Build() (Fields, error) {
	return BuildFields(s.Operation, s.Record)
}

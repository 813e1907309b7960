package telemetry

import (
	"fmt"
	"strings"
	"time"
)

const (
	stationPrefix = "ZZ,"
	chasePrefix   = "ZC,"

	stationFields = 9
	chaseFields   = 5

	// RawSentinel opens every passthrough payload string.
	RawSentinel = "$$"

	// trimCutset is what tracking clients strip from submissions: space,
	// tab, newline, carriage return, NUL and vertical tab. Other Unicode
	// space is payload.
	trimCutset = " \t\n\r\x00\x0b"
)

// Trim strips leading and trailing trimCutset characters from s.
func Trim(s string) string {
	return strings.Trim(s, trimCutset)
}

// Kind is the wire sub-format picked by the prefix of an input string.
type Kind string

const (
	KindPassthrough Kind = "passthrough"
	KindStation     Kind = "station"
	KindChase       Kind = "chase"
)

// Outcome says whether a parse produced records.
type Outcome string

const (
	ParseOK      Outcome = "ok"
	ParseSkipped Outcome = "skipped"
)

// Submission pairs a record with the callsign and operation it is posted under.
type Submission struct {
	Operation Operation
	Callsign  string
	Record    Record
}

// ParseResult is what Parse made of one input. Skipped results carry a
// Reason and no submissions.
type ParseResult struct {
	Kind        Kind
	Outcome     Outcome
	Reason      string
	Submissions []Submission
}

func (r ParseResult) Skipped() bool { return r.Outcome == ParseSkipped }

// Parser classifies raw strings submitted by tracking clients.
type Parser struct {
	clock func() time.Time
}

// NewParser returns a Parser stamping chase car positions with the local time.
func NewParser() *Parser {
	return &Parser{clock: time.Now}
}

// NewParserWithClock lets callers fix "now" for chase car positions.
func NewParserWithClock(clock func() time.Time) *Parser {
	if clock == nil {
		clock = time.Now
	}
	return &Parser{clock: clock}
}

// Classify picks the sub-format from the first three bytes of the trimmed input.
func Classify(input string) Kind {
	s := Trim(input)
	switch {
	case strings.HasPrefix(s, stationPrefix):
		return KindStation
	case strings.HasPrefix(s, chasePrefix):
		return KindChase
	default:
		return KindPassthrough
	}
}

// Parse classifies input and builds its records. Structured input with the
// wrong field count is skipped rather than passed through.
func (p *Parser) Parse(identity, input string) ParseResult {
	s := Trim(input)
	switch Classify(s) {
	case KindStation:
		return p.parseStation(s)
	case KindChase:
		return p.parseChase(s)
	default:
		return parsePassthrough(identity, s)
	}
}

func parsePassthrough(identity, s string) ParseResult {
	rec := RawTelemetryRecord{
		Identity: identity,
		Payload:  RawSentinel + s + "\n",
	}
	return ParseResult{
		Kind:    KindPassthrough,
		Outcome: ParseOK,
		Submissions: []Submission{
			{Operation: rec.Operation(), Callsign: identity, Record: rec},
		},
	}
}

// parseStation handles
// ZZ,callsign,YYYY-MM-DD HH:MM:SS,lat,lon,radio,antenna,version,payload
func (p *Parser) parseStation(s string) ParseResult {
	fields := strings.Split(s, ",")
	if len(fields) != stationFields {
		return skipped(KindStation, len(fields), stationFields)
	}

	callsign := fields[1]
	clock := fields[2]
	if i := strings.IndexByte(clock, ' '); i >= 0 {
		clock = clock[i+1:]
	}

	info := ListenerInfoRecord{
		Callsign:        callsign,
		Radio:           fields[5],
		Antenna:         fields[6],
		TrackingVersion: fields[7],
		TrackingPayload: fields[8],
	}
	pos := ListenerPositionRecord{
		Callsign:  callsign,
		Time:      SplitClock(clock),
		Latitude:  parseFloat(fields[3]),
		Longitude: parseFloat(fields[4]),
	}

	return ParseResult{
		Kind:    KindStation,
		Outcome: ParseOK,
		Submissions: []Submission{
			{Operation: info.Operation(), Callsign: callsign, Record: info},
			{Operation: pos.Operation(), Callsign: callsign, Record: pos},
		},
	}
}

// parseChase handles ZC,callsign,lat,lon,alt
func (p *Parser) parseChase(s string) ParseResult {
	fields := strings.Split(s, ",")
	if len(fields) != chaseFields {
		return skipped(KindChase, len(fields), chaseFields)
	}

	pos := ListenerPositionRecord{
		Callsign:  fields[1],
		Time:      SplitTime(p.clock()),
		Latitude:  parseFloat(fields[2]),
		Longitude: parseFloat(fields[3]),
		Altitude:  parseInt(fields[4]),
	}

	return ParseResult{
		Kind:    KindChase,
		Outcome: ParseOK,
		Submissions: []Submission{
			{Operation: pos.Operation(), Callsign: pos.Callsign, Record: pos},
		},
	}
}

func skipped(kind Kind, got, want int) ParseResult {
	return ParseResult{
		Kind:    kind,
		Outcome: ParseSkipped,
		Reason:  fmt.Sprintf("expected %d fields, got %d", want, got),
	}
}

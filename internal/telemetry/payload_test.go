package telemetry

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFields_PayloadTelemetry(t *testing.T) {
	rec := RawTelemetryRecord{Identity: "DANIEL", Payload: "$$hello world from php!\n"}

	fields, err := BuildFields(OpPayloadTelemetry, rec)
	require.NoError(t, err)

	assert.Len(t, fields, 4)
	assert.Equal(t, "DANIEL", fields["callsign"])
	assert.Equal(t, "base64", fields["string_type"])
	assert.Equal(t, "{}", fields["metadata"])

	decoded, err := base64.StdEncoding.DecodeString(fields["string"])
	require.NoError(t, err)
	assert.Equal(t, "$$hello world from php!\n", string(decoded))
}

func TestBuildFields_PayloadRoundTrip(t *testing.T) {
	p := NewParser()
	for _, in := range []string{"", "x", "$$ICARUS,1,12:00:00*00", "non-ascii éè", "a=b&c=d"} {
		res := p.Parse("id", in)
		require.Len(t, res.Submissions, 1)

		fields, err := res.Submissions[0].Build()
		require.NoError(t, err)

		decoded, err := base64.StdEncoding.DecodeString(fields["string"])
		require.NoError(t, err)
		assert.Equal(t, "$$"+in+"\n", string(decoded))
	}
}

func TestBuildFields_ListenerInfo(t *testing.T) {
	rec := ListenerInfoRecord{
		Callsign:        "DANIEL",
		Radio:           "Yaesu FT817ND",
		Antenna:         "Yagi",
		TrackingVersion: "r400",
		TrackingPayload: "A1",
	}

	fields, err := BuildFields(OpListenerInfo, rec)
	require.NoError(t, err)

	assert.Equal(t, Fields{
		"callsign": "DANIEL",
		"data":     `{"radio":"Yaesu FT817ND","antenna":"Yagi","dl-fldigi":{"version":"r400","payload":"A1"}}`,
	}, fields)
}

func TestBuildFields_ListenerInfoEmptyValues(t *testing.T) {
	fields, err := BuildFields(OpListenerInfo, ListenerInfoRecord{})
	require.NoError(t, err)

	assert.Equal(t, "", fields["callsign"])
	assert.Equal(t, `{"radio":"","antenna":"","dl-fldigi":{"version":"","payload":""}}`, fields["data"])
}

func TestBuildFields_ListenerTelemetry(t *testing.T) {
	rec := ListenerPositionRecord{
		Callsign:  "Daniel_Chase_Car",
		Time:      TimeOfDay{21, 44, 30},
		Latitude:  51.4567,
		Longitude: 0.1529,
		Altitude:  123,
	}

	fields, err := BuildFields(OpListenerTelemetry, rec)
	require.NoError(t, err)

	assert.Equal(t, Fields{
		"callsign": "Daniel_Chase_Car",
		"data":     `{"time":{"hour":21,"minute":44,"second":30},"latitude":51.4567,"longitude":0.1529,"altitude":123}`,
	}, fields)
}

func TestBuildFields_ZeroPosition(t *testing.T) {
	fields, err := BuildFields(OpListenerTelemetry, ListenerPositionRecord{Callsign: "c"})
	require.NoError(t, err)
	assert.Equal(t, `{"time":{"hour":0,"minute":0,"second":0},"latitude":0,"longitude":0,"altitude":0}`, fields["data"])
}

func TestBuildFields_Idempotent(t *testing.T) {
	p := NewParserWithClock(fixedClock)
	res := p.Parse("", "ZZ,DANIEL,2011-08-12 21:44:30,51.4,0.5,Yaesu FT817ND,Yagi,r400,A1")
	require.Len(t, res.Submissions, 2)

	for _, sub := range res.Submissions {
		first, err := sub.Build()
		require.NoError(t, err)
		second, err := sub.Build()
		require.NoError(t, err)
		assert.Equal(t, first.Encode(), second.Encode())
	}
}

func TestBuildFields_Errors(t *testing.T) {
	_, err := BuildFields("bogus", RawTelemetryRecord{})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = BuildFields(OpListenerInfo, RawTelemetryRecord{})
	assert.ErrorIs(t, err, ErrRecordMismatch)

	_, err = BuildFields(OpPayloadTelemetry, nil)
	assert.ErrorIs(t, err, ErrRecordMismatch)
}

func TestFields_Encode(t *testing.T) {
	f := Fields{"callsign": "A B", "data": `{"x":1}`}

	values, err := url.ParseQuery(f.Encode())
	require.NoError(t, err)
	assert.Equal(t, "A B", values.Get("callsign"))
	assert.Equal(t, `{"x":1}`, values.Get("data"))
	assert.Equal(t, "callsign=A+B&data=%7B%22x%22%3A1%7D", f.Encode())
}

func TestOperation_Valid(t *testing.T) {
	assert.True(t, OpPayloadTelemetry.Valid())
	assert.True(t, OpListenerInfo.Valid())
	assert.True(t, OpListenerTelemetry.Valid())
	assert.False(t, Operation("listener_information").Valid())
}

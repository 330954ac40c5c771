package message

import (
	"bytes"
	"testing"
	"time"
)

const messageTestPrefix = "message:message_test"

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"PT15M", 15 * time.Minute, false},
		{"PT1H", time.Hour, false},
		{"PT1H30M", 90 * time.Minute, false},
		{"PT30S", 30 * time.Second, false},
		{"PT", 0, true},
		{"P1D", 0, true},
		{"15m", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("%s - expected error for %q", messageTestPrefix, tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s - unexpected error: %v", messageTestPrefix, err)
			}
			if got.Std() != tt.want {
				t.Errorf("%s - ParseDuration(%q) = %v, want %v", messageTestPrefix, tt.in, got.Std(), tt.want)
			}
			if got.String() != tt.in {
				t.Errorf("%s - String() = %q, want %q", messageTestPrefix, got.String(), tt.in)
			}
		})
	}
}

func TestPeriod(t *testing.T) {
	p := MustPeriod("2022-12-31")
	if next := p.AddDays(1); next.String() != "2023-01-01" {
		t.Errorf("%s - AddDays(1) = %s, want 2023-01-01", messageTestPrefix, next)
	}
	if !p.Before(p.AddDays(1)) || p.AddDays(1).Before(p) {
		t.Errorf("%s - Before ordering wrong", messageTestPrefix)
	}
	if _, err := ParsePeriod("2022-13-01"); err == nil {
		t.Errorf("%s - expected error for invalid month", messageTestPrefix)
	}

	var zero Period
	data, err := zero.MarshalJSON()
	if err != nil {
		t.Fatalf("%s - marshal zero period: %v", messageTestPrefix, err)
	}
	if string(data) != `""` {
		t.Errorf("%s - zero period marshals to %s, want \"\"", messageTestPrefix, data)
	}
}

func TestAllowedSenderRoles_EveryKind(t *testing.T) {
	for _, k := range AllKinds {
		if len(AllowedSenderRoles(k)) == 0 {
			t.Errorf("%s - no sender roles for %s", messageTestPrefix, k)
		}
		if _, err := New(k); err != nil {
			t.Errorf("%s - New(%s): %v", messageTestPrefix, k, err)
		}
	}
	if _, err := New("Bogus"); err == nil {
		t.Errorf("%s - expected error for unknown kind", messageTestPrefix)
	}
}

func TestNew_KindMatches(t *testing.T) {
	for _, k := range AllKinds {
		p, err := New(k)
		if err != nil {
			t.Fatalf("%s - New(%s): %v", messageTestPrefix, k, err)
		}
		if p.Kind() != k {
			t.Errorf("%s - New(%s).Kind() = %s", messageTestPrefix, k, p.Kind())
		}
	}
}

func TestResponseTo(t *testing.T) {
	for _, k := range AllKinds {
		req, ok := ResponseTo(k)
		if !ok {
			continue
		}
		if !k.IsResponse() {
			t.Errorf("%s - %s answers %s but IsResponse() is false", messageTestPrefix, k, req)
		}
		p, _ := New(k)
		if _, _, ok := RequestReference(p); !ok {
			t.Errorf("%s - RequestReference missing for %s", messageTestPrefix, k)
		}
	}
	if !KindTestMessageResponse.IsResponse() {
		t.Errorf("%s - TestMessageResponse should be a response", messageTestPrefix)
	}
	if KindFlexOffer.IsResponse() {
		t.Errorf("%s - FlexOffer is not a response", messageTestPrefix)
	}
}

func TestIspLists(t *testing.T) {
	offer := &FlexOffer{OfferOptions: []FlexOfferOption{
		{OptionReference: "A", ISPs: []PowerISP{{Start: 1, Duration: 4}}},
		{OptionReference: "B", ISPs: []PowerISP{{Start: 1, Duration: 4}, {Start: 10, Duration: 2}}},
	}}
	lists := IspLists(offer)
	if len(lists) != 2 {
		t.Fatalf("%s - FlexOffer lists = %d, want one per option", messageTestPrefix, len(lists))
	}
	if len(lists[1]) != 2 || lists[1][1].End() != 11 {
		t.Errorf("%s - unexpected option B intervals: %+v", messageTestPrefix, lists[1])
	}

	metering := &Metering{Profiles: []MeteringProfile{
		{ProfileType: "Power", ISPs: []MeteringISP{{Start: 3, Value: 1.5}}},
	}}
	lists = IspLists(metering)
	if len(lists) != 1 || lists[0][0].Duration != 1 {
		t.Errorf("%s - metering intervals should have duration 1: %+v", messageTestPrefix, lists)
	}

	if IspLists(&TestMessage{}) != nil {
		t.Errorf("%s - TestMessage has no intervals", messageTestPrefix)
	}
}

func TestSubListCalendars(t *testing.T) {
	settlement := &FlexSettlement{
		ISPDuration: Minutes(15),
		TimeZone:    "Europe/Amsterdam",
		FlexOrderSettlements: []FlexOrderSettlement{
			{OrderReference: "o-1", Period: MustPeriod("2022-11-01"), ISPs: []SettlementISP{{Start: 1, Duration: 2}}},
			{OrderReference: "o-2", Period: MustPeriod("2022-11-02"), ISPs: []SettlementISP{{Start: 3, Duration: 1}}},
		},
	}
	cals := SubListCalendars(settlement)
	if len(cals) != len(IspLists(settlement)) {
		t.Fatalf("%s - %d calendars for %d lists", messageTestPrefix, len(cals), len(IspLists(settlement)))
	}
	if cals[1].Period != MustPeriod("2022-11-02") || cals[1].TimeZone != "Europe/Amsterdam" || cals[1].ISPDuration != Minutes(15) {
		t.Errorf("%s - second calendar = %+v, want the second order settlement's day", messageTestPrefix, cals[1])
	}

	offer := &FlexOffer{
		FlexHeader: FlexHeader{ISPDuration: Minutes(15), TimeZone: "Europe/Amsterdam", Period: MustPeriod("2022-11-22")},
		OfferOptions: []FlexOfferOption{
			{OptionReference: "A", ISPs: []PowerISP{{Start: 1, Duration: 4}}},
			{OptionReference: "B", ISPs: []PowerISP{{Start: 5, Duration: 4}}},
		},
	}
	cals = SubListCalendars(offer)
	if len(cals) != 2 || cals[0] != cals[1] || cals[0].Period != MustPeriod("2022-11-22") {
		t.Errorf("%s - FlexOffer calendars = %+v, want the offer's day per option", messageTestPrefix, cals)
	}

	if SubListCalendars(&TestMessage{}) != nil {
		t.Errorf("%s - TestMessage has no calendars", messageTestPrefix)
	}
	if tz, ok := TimeZoneOf(settlement); !ok || tz != "Europe/Amsterdam" {
		t.Errorf("%s - TimeZoneOf(FlexSettlement) = %q, %v", messageTestPrefix, tz, ok)
	}
	if d, ok := IspDurationOf(settlement); !ok || d != Minutes(15) {
		t.Errorf("%s - IspDurationOf(FlexSettlement) = %v, %v", messageTestPrefix, d, ok)
	}
}

func TestEnvelopeReferences(t *testing.T) {
	offer := &FlexOffer{Header: Header{
		SenderDomain:    "agr.example.com",
		RecipientDomain: "dso.example.com",
		MessageID:       "offer-1",
		ConversationID:  "conv-1",
	}}
	env := Envelope{Sender: Participant{Domain: "agr.example.com", Role: RoleAGR}, Direction: Incoming, Payload: offer}

	ref := env.ReferenceToCounterparty("req-1", KindFlexRequest)
	if ref.Direction != Outgoing || ref.SenderDomain != "dso.example.com" || ref.RecipientDomain != "agr.example.com" {
		t.Errorf("%s - counterparty reference not inverted: %+v", messageTestPrefix, ref)
	}
	if ref.ConversationID != "conv-1" || ref.Kind != KindFlexRequest {
		t.Errorf("%s - unexpected reference key: %+v", messageTestPrefix, ref)
	}

	own := env.ReferenceToOwn("prog-1", KindDPrognosis)
	if own.Direction != Incoming || own.SenderDomain != "agr.example.com" {
		t.Errorf("%s - own reference should keep direction and domains: %+v", messageTestPrefix, own)
	}
}

func TestDecodeAndCanonicalize(t *testing.T) {
	raw := []byte(`{
		"version": "3.0.0",
		"senderDomain": "dso.example.com",
		"recipientDomain": "agr.example.com",
		"messageId": "m-1",
		"conversationId": "c-1",
		"ispDuration": "PT15M",
		"timeZone": "Europe/Amsterdam",
		"period": "2022-11-22",
		"congestionPoint": "ean.123456789012345678",
		"expirationDateTime": "2022-11-22T10:00:00+01:00",
		"isps": [{"start": 1, "duration": 4, "disposition": "Requested", "minPower": 0, "maxPower": 1000}]
	}`)
	p, err := Decode(KindFlexRequest, raw)
	if err != nil {
		t.Fatalf("%s - Decode: %v", messageTestPrefix, err)
	}
	req, ok := p.(*FlexRequest)
	if !ok {
		t.Fatalf("%s - Decode returned %T", messageTestPrefix, p)
	}
	if req.ISPDuration.Std() != 15*time.Minute || req.Period.String() != "2022-11-22" {
		t.Errorf("%s - flex header not decoded: %+v", messageTestPrefix, req.FlexHeader)
	}

	c := JSONCanonicalizer{}
	a, err := c.Canonicalize(req)
	if err != nil {
		t.Fatalf("%s - Canonicalize: %v", messageTestPrefix, err)
	}
	copyReq := *req
	b, _ := c.Canonicalize(&copyReq)
	if !bytes.Equal(a, b) {
		t.Errorf("%s - equal messages canonicalize differently", messageTestPrefix)
	}
	copyReq.Revision++
	b, _ = c.Canonicalize(&copyReq)
	if bytes.Equal(a, b) {
		t.Errorf("%s - changed message canonicalizes equal", messageTestPrefix)
	}
}

package message

import (
	"encoding/json"
	"fmt"
)

const codecLogPrefix = "message:codec"

// New returns an empty payload of kind k, ready to be decoded into.
func New(k Kind) (Payload, error) {
	switch k {
	case KindFlexRequest:
		return &FlexRequest{}, nil
	case KindFlexRequestResponse:
		return &FlexRequestResponse{}, nil
	case KindFlexOffer:
		return &FlexOffer{}, nil
	case KindFlexOfferResponse:
		return &FlexOfferResponse{}, nil
	case KindFlexOfferRevocation:
		return &FlexOfferRevocation{}, nil
	case KindFlexOfferRevocationResponse:
		return &FlexOfferRevocationResponse{}, nil
	case KindFlexOrder:
		return &FlexOrder{}, nil
	case KindFlexOrderResponse:
		return &FlexOrderResponse{}, nil
	case KindFlexReservationUpdate:
		return &FlexReservationUpdate{}, nil
	case KindFlexReservationUpdateResponse:
		return &FlexReservationUpdateResponse{}, nil
	case KindDPrognosis:
		return &DPrognosis{}, nil
	case KindDPrognosisResponse:
		return &DPrognosisResponse{}, nil
	case KindMetering:
		return &Metering{}, nil
	case KindMeteringResponse:
		return &MeteringResponse{}, nil
	case KindFlexSettlement:
		return &FlexSettlement{}, nil
	case KindFlexSettlementResponse:
		return &FlexSettlementResponse{}, nil
	case KindAGRPortfolioQuery:
		return &AGRPortfolioQuery{}, nil
	case KindAGRPortfolioQueryResponse:
		return &AGRPortfolioQueryResponse{}, nil
	case KindAGRPortfolioUpdate:
		return &AGRPortfolioUpdate{}, nil
	case KindAGRPortfolioUpdateResponse:
		return &AGRPortfolioUpdateResponse{}, nil
	case KindDSOPortfolioQuery:
		return &DSOPortfolioQuery{}, nil
	case KindDSOPortfolioQueryResponse:
		return &DSOPortfolioQueryResponse{}, nil
	case KindDSOPortfolioUpdate:
		return &DSOPortfolioUpdate{}, nil
	case KindDSOPortfolioUpdateResponse:
		return &DSOPortfolioUpdateResponse{}, nil
	case KindTestMessage:
		return &TestMessage{}, nil
	case KindTestMessageResponse:
		return &TestMessageResponse{}, nil
	}
	return nil, fmt.Errorf("%s - unknown message kind %q", codecLogPrefix, k)
}

// Decode decodes a JSON payload of kind k.
func Decode(k Kind, data []byte) (Payload, error) {
	p, err := New(k)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%s - failed to decode %s: %w", codecLogPrefix, k, err)
	}
	return p, nil
}

// Encode encodes a payload to JSON.
func Encode(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to encode %s: %w", codecLogPrefix, p.Kind(), err)
	}
	return data, nil
}

// Canonicalizer turns a payload into a byte form where equal bytes mean equal messages.
type Canonicalizer interface {
	Canonicalize(p Payload) ([]byte, error)
}

// JSONCanonicalizer canonicalizes by kind-prefixed JSON. Struct fields encode in declaration
// order, so two payloads of the same kind with equal fields give identical bytes.
type JSONCanonicalizer struct{}

// Canonicalize implements Canonicalizer.
func (JSONCanonicalizer) Canonicalize(p Payload) ([]byte, error) {
	data, err := Encode(p)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(p.Kind())+1+len(data))
	out = append(out, p.Kind()...)
	out = append(out, ':')
	return append(out, data...), nil
}

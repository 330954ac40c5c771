package message

// Kind names a concrete payload message type. The set is closed: every Kind below has exactly
// one Go type in this package, and New, IspLists and AllowedSenderRoles switch over all of them.
type Kind string

const (
	KindFlexRequest                   Kind = "FlexRequest"
	KindFlexRequestResponse           Kind = "FlexRequestResponse"
	KindFlexOffer                     Kind = "FlexOffer"
	KindFlexOfferResponse             Kind = "FlexOfferResponse"
	KindFlexOfferRevocation           Kind = "FlexOfferRevocation"
	KindFlexOfferRevocationResponse   Kind = "FlexOfferRevocationResponse"
	KindFlexOrder                     Kind = "FlexOrder"
	KindFlexOrderResponse             Kind = "FlexOrderResponse"
	KindFlexReservationUpdate         Kind = "FlexReservationUpdate"
	KindFlexReservationUpdateResponse Kind = "FlexReservationUpdateResponse"
	KindDPrognosis                    Kind = "DPrognosis"
	KindDPrognosisResponse            Kind = "DPrognosisResponse"
	KindMetering                      Kind = "Metering"
	KindMeteringResponse              Kind = "MeteringResponse"
	KindFlexSettlement                Kind = "FlexSettlement"
	KindFlexSettlementResponse        Kind = "FlexSettlementResponse"
	KindAGRPortfolioQuery             Kind = "AGRPortfolioQuery"
	KindAGRPortfolioQueryResponse     Kind = "AGRPortfolioQueryResponse"
	KindAGRPortfolioUpdate            Kind = "AGRPortfolioUpdate"
	KindAGRPortfolioUpdateResponse    Kind = "AGRPortfolioUpdateResponse"
	KindDSOPortfolioQuery             Kind = "DSOPortfolioQuery"
	KindDSOPortfolioQueryResponse     Kind = "DSOPortfolioQueryResponse"
	KindDSOPortfolioUpdate            Kind = "DSOPortfolioUpdate"
	KindDSOPortfolioUpdateResponse    Kind = "DSOPortfolioUpdateResponse"
	KindTestMessage                   Kind = "TestMessage"
	KindTestMessageResponse           Kind = "TestMessageResponse"
)

// AllKinds lists every payload kind in a stable order.
var AllKinds = []Kind{
	KindFlexRequest, KindFlexRequestResponse,
	KindFlexOffer, KindFlexOfferResponse,
	KindFlexOfferRevocation, KindFlexOfferRevocationResponse,
	KindFlexOrder, KindFlexOrderResponse,
	KindFlexReservationUpdate, KindFlexReservationUpdateResponse,
	KindDPrognosis, KindDPrognosisResponse,
	KindMetering, KindMeteringResponse,
	KindFlexSettlement, KindFlexSettlementResponse,
	KindAGRPortfolioQuery, KindAGRPortfolioQueryResponse,
	KindAGRPortfolioUpdate, KindAGRPortfolioUpdateResponse,
	KindDSOPortfolioQuery, KindDSOPortfolioQueryResponse,
	KindDSOPortfolioUpdate, KindDSOPortfolioUpdateResponse,
	KindTestMessage, KindTestMessageResponse,
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsFlexMessage reports whether k carries the shared flex header (period, time zone, ISP duration, congestion point).
func (k Kind) IsFlexMessage() bool {
	switch k {
	case KindFlexRequest, KindFlexOffer, KindFlexOrder, KindFlexReservationUpdate, KindDPrognosis:
		return true
	}
	return false
}

// IsResponse reports whether k is a response to another message.
func (k Kind) IsResponse() bool {
	_, ok := ResponseTo(k)
	return ok || k == KindTestMessageResponse
}

// ResponseTo returns the request kind a response kind answers.
func ResponseTo(k Kind) (Kind, bool) {
	switch k {
	case KindFlexRequestResponse:
		return KindFlexRequest, true
	case KindFlexOfferResponse:
		return KindFlexOffer, true
	case KindFlexOfferRevocationResponse:
		return KindFlexOfferRevocation, true
	case KindFlexOrderResponse:
		return KindFlexOrder, true
	case KindFlexReservationUpdateResponse:
		return KindFlexReservationUpdate, true
	case KindDPrognosisResponse:
		return KindDPrognosis, true
	case KindMeteringResponse:
		return KindMetering, true
	case KindFlexSettlementResponse:
		return KindFlexSettlement, true
	case KindAGRPortfolioQueryResponse:
		return KindAGRPortfolioQuery, true
	case KindAGRPortfolioUpdateResponse:
		return KindAGRPortfolioUpdate, true
	case KindDSOPortfolioQueryResponse:
		return KindDSOPortfolioQuery, true
	case KindDSOPortfolioUpdateResponse:
		return KindDSOPortfolioUpdate, true
	}
	return "", false
}

// AllowedSenderRoles returns the roles permitted to send a message of kind k.
func AllowedSenderRoles(k Kind) []Role {
	switch k {
	case KindFlexRequest, KindFlexOrder, KindFlexReservationUpdate, KindFlexSettlement,
		KindDSOPortfolioQuery, KindDSOPortfolioUpdate,
		KindFlexOfferResponse, KindFlexOfferRevocationResponse, KindDPrognosisResponse, KindMeteringResponse:
		return []Role{RoleDSO}
	case KindFlexOffer, KindFlexOfferRevocation, KindDPrognosis, KindMetering,
		KindAGRPortfolioQuery, KindAGRPortfolioUpdate,
		KindFlexRequestResponse, KindFlexOrderResponse, KindFlexReservationUpdateResponse, KindFlexSettlementResponse:
		return []Role{RoleAGR}
	case KindAGRPortfolioQueryResponse, KindAGRPortfolioUpdateResponse,
		KindDSOPortfolioQueryResponse, KindDSOPortfolioUpdateResponse:
		return []Role{RoleCRO}
	case KindTestMessage, KindTestMessageResponse:
		return []Role{RoleAGR, RoleDSO, RoleCRO}
	}
	return nil
}

// RecipientRole returns the role expected to receive a message of kind k sent by a participant
// with role sender. An empty role means any role may receive it.
func RecipientRole(k Kind, sender Role) Role {
	switch k {
	case KindAGRPortfolioQuery, KindAGRPortfolioUpdate, KindDSOPortfolioQuery, KindDSOPortfolioUpdate:
		return RoleCRO
	case KindAGRPortfolioQueryResponse, KindAGRPortfolioUpdateResponse:
		return RoleAGR
	case KindDSOPortfolioQueryResponse, KindDSOPortfolioUpdateResponse:
		return RoleDSO
	case KindTestMessage, KindTestMessageResponse:
		return ""
	}
	switch sender {
	case RoleAGR:
		return RoleDSO
	case RoleDSO:
		return RoleAGR
	}
	return ""
}

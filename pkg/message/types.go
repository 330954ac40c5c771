package message

import "time"

// Disposition marks an ISP of a FlexRequest as requested flexibility or merely available.
type Disposition string

const (
	DispositionAvailable Disposition = "Available"
	DispositionRequested Disposition = "Requested"
)

// FlexRequestISP is one interval of a FlexRequest.
type FlexRequestISP struct {
	Start       uint64      `json:"start"`
	Duration    uint64      `json:"duration"`
	Disposition Disposition `json:"disposition"`
	MinPower    int64       `json:"minPower"`
	MaxPower    int64       `json:"maxPower"`
}

// PowerISP is an interval carrying a single power value (W).
type PowerISP struct {
	Start    uint64 `json:"start"`
	Duration uint64 `json:"duration"`
	Power    int64  `json:"power"`
}

// FlexRequest asks an AGR for flexibility on a congestion point.
type FlexRequest struct {
	Header
	FlexHeader
	Revision           int              `json:"revision"`
	ExpirationDateTime time.Time        `json:"expirationDateTime"`
	ContractID         string           `json:"contractId,omitempty"`
	ServiceType        string           `json:"serviceType,omitempty"`
	ISPs               []FlexRequestISP `json:"isps"`
}

func (*FlexRequest) Kind() Kind { return KindFlexRequest }

// FlexRequestResponse answers a FlexRequest.
type FlexRequestResponse struct {
	Header
	ResponseHeader
	FlexRequestMessageID string `json:"flexRequestMessageId"`
}

func (*FlexRequestResponse) Kind() Kind { return KindFlexRequestResponse }

// FlexOfferOption is one alternative an AGR offers.
type FlexOfferOption struct {
	OptionReference     string     `json:"optionReference"`
	Price               float64    `json:"price"`
	MinActivationFactor float64    `json:"minActivationFactor"`
	ISPs                []PowerISP `json:"isps"`
}

// FlexOffer offers flexibility, solicited by a FlexRequest or unsolicited.
type FlexOffer struct {
	Header
	FlexHeader
	ExpirationDateTime   time.Time         `json:"expirationDateTime"`
	FlexRequestMessageID string            `json:"flexRequestMessageId,omitempty"`
	ContractID           string            `json:"contractId,omitempty"`
	DPrognosisMessageID  string            `json:"dPrognosisMessageId,omitempty"`
	BaselineReference    string            `json:"baselineReference,omitempty"`
	Currency             string            `json:"currency"`
	OfferOptions         []FlexOfferOption `json:"offerOptions"`
}

func (*FlexOffer) Kind() Kind { return KindFlexOffer }

// Option returns the offer option with the given reference.
func (o *FlexOffer) Option(reference string) (FlexOfferOption, bool) {
	for _, opt := range o.OfferOptions {
		if opt.OptionReference == reference {
			return opt, true
		}
	}
	return FlexOfferOption{}, false
}

// FlexOfferResponse answers a FlexOffer.
type FlexOfferResponse struct {
	Header
	ResponseHeader
	FlexOfferMessageID string `json:"flexOfferMessageId"`
}

func (*FlexOfferResponse) Kind() Kind { return KindFlexOfferResponse }

// FlexOfferRevocation withdraws an earlier FlexOffer.
type FlexOfferRevocation struct {
	Header
	FlexOfferMessageID string `json:"flexOfferMessageId"`
}

func (*FlexOfferRevocation) Kind() Kind { return KindFlexOfferRevocation }

// FlexOfferRevocationResponse answers a FlexOfferRevocation.
type FlexOfferRevocationResponse struct {
	Header
	ResponseHeader
	FlexOfferRevocationMessageID string `json:"flexOfferRevocationMessageId"`
}

func (*FlexOfferRevocationResponse) Kind() Kind { return KindFlexOfferRevocationResponse }

// FlexOrder orders one option of a FlexOffer.
type FlexOrder struct {
	Header
	FlexHeader
	FlexOfferMessageID  string     `json:"flexOfferMessageId"`
	ContractID          string     `json:"contractId,omitempty"`
	DPrognosisMessageID string     `json:"dPrognosisMessageId,omitempty"`
	BaselineReference   string     `json:"baselineReference,omitempty"`
	Price               float64    `json:"price"`
	Currency            string     `json:"currency"`
	OrderReference      string     `json:"orderReference"`
	OptionReference     string     `json:"optionReference,omitempty"`
	ActivationFactor    float64    `json:"activationFactor"`
	ISPs                []PowerISP `json:"isps"`
}

func (*FlexOrder) Kind() Kind { return KindFlexOrder }

// FlexOrderResponse answers a FlexOrder.
type FlexOrderResponse struct {
	Header
	ResponseHeader
	FlexOrderMessageID string `json:"flexOrderMessageId"`
}

func (*FlexOrderResponse) Kind() Kind { return KindFlexOrderResponse }

// FlexReservationUpdate updates the reserved flexibility under a bilateral contract.
type FlexReservationUpdate struct {
	Header
	FlexHeader
	ContractID string     `json:"contractId"`
	Reference  string     `json:"reference"`
	ISPs       []PowerISP `json:"isps"`
}

func (*FlexReservationUpdate) Kind() Kind { return KindFlexReservationUpdate }

// FlexReservationUpdateResponse answers a FlexReservationUpdate.
type FlexReservationUpdateResponse struct {
	Header
	ResponseHeader
	FlexReservationUpdateMessageID string `json:"flexReservationUpdateMessageId"`
}

func (*FlexReservationUpdateResponse) Kind() Kind { return KindFlexReservationUpdateResponse }

// DPrognosis is an AGR's forecast for a congestion point.
type DPrognosis struct {
	Header
	FlexHeader
	Revision int        `json:"revision"`
	ISPs     []PowerISP `json:"isps"`
}

func (*DPrognosis) Kind() Kind { return KindDPrognosis }

// FlexOrderStatus reports whether a FlexOrder is still valid against a new D-Prognosis.
type FlexOrderStatus struct {
	FlexOrderMessageID string `json:"flexOrderMessageId"`
	IsValidated        bool   `json:"isValidated"`
}

// DPrognosisResponse answers a DPrognosis.
type DPrognosisResponse struct {
	Header
	ResponseHeader
	DPrognosisMessageID string            `json:"dPrognosisMessageId"`
	FlexOrderStatuses   []FlexOrderStatus `json:"flexOrderStatuses,omitempty"`
}

func (*DPrognosisResponse) Kind() Kind { return KindDPrognosisResponse }

// MeteringISP is one metered interval; metering intervals always span a single ISP.
type MeteringISP struct {
	Start uint64  `json:"start"`
	Value float64 `json:"value"`
}

// MeteringProfile is one measured quantity over the day.
type MeteringProfile struct {
	ProfileType string        `json:"profileType"`
	ISPs        []MeteringISP `json:"isps"`
}

// Metering carries measured data for a connection.
type Metering struct {
	Header
	ISPDuration Duration          `json:"ispDuration"`
	TimeZone    string            `json:"timeZone"`
	Period      Period            `json:"period"`
	EAN         string            `json:"ean"`
	Currency    string            `json:"currency,omitempty"`
	Profiles    []MeteringProfile `json:"profiles"`
}

func (*Metering) Kind() Kind { return KindMetering }

// MeteringResponse answers a Metering message.
type MeteringResponse struct {
	Header
	ResponseHeader
	MeteringMessageID string `json:"meteringMessageId"`
}

func (*MeteringResponse) Kind() Kind { return KindMeteringResponse }

// SettlementISP is one settled interval of a flex order settlement.
type SettlementISP struct {
	Start              uint64 `json:"start"`
	Duration           uint64 `json:"duration"`
	BaselinePower      int64  `json:"baselinePower"`
	OrderedFlexPower   int64  `json:"orderedFlexPower"`
	ActualPower        int64  `json:"actualPower"`
	DeliveredFlexPower int64  `json:"deliveredFlexPower"`
	PowerDeficiency    int64  `json:"powerDeficiency,omitempty"`
}

// FlexOrderSettlement settles one FlexOrder, identified by its order reference.
type FlexOrderSettlement struct {
	OrderReference  string          `json:"orderReference"`
	Period          Period          `json:"period"`
	ContractID      string          `json:"contractId,omitempty"`
	CongestionPoint string          `json:"congestionPoint"`
	Price           float64         `json:"price"`
	Penalty         float64         `json:"penalty,omitempty"`
	NetSettlement   float64         `json:"netSettlement"`
	ISPs            []SettlementISP `json:"isps"`
}

// FlexSettlement settles the flex orders of a settlement period.
type FlexSettlement struct {
	Header
	ISPDuration          Duration              `json:"ispDuration"`
	TimeZone             string                `json:"timeZone"`
	PeriodStart          Period                `json:"periodStart"`
	PeriodEnd            Period                `json:"periodEnd"`
	Currency             string                `json:"currency"`
	FlexOrderSettlements []FlexOrderSettlement `json:"flexOrderSettlements"`
}

func (*FlexSettlement) Kind() Kind { return KindFlexSettlement }

// SettlementDisposition is the AGR's verdict on one order settlement.
type SettlementDisposition string

const (
	SettlementAccepted SettlementDisposition = "Accepted"
	SettlementDisputed SettlementDisposition = "Disputed"
)

// FlexOrderSettlementStatus is the AGR's verdict on one settled order.
type FlexOrderSettlementStatus struct {
	OrderReference    string                `json:"orderReference"`
	Disposition       SettlementDisposition `json:"disposition"`
	DispositionReason string                `json:"dispositionReason,omitempty"`
}

// FlexSettlementResponse answers a FlexSettlement.
type FlexSettlementResponse struct {
	Header
	ResponseHeader
	FlexSettlementMessageID     string                      `json:"flexSettlementMessageId"`
	FlexOrderSettlementStatuses []FlexOrderSettlementStatus `json:"flexOrderSettlementStatuses,omitempty"`
}

func (*FlexSettlementResponse) Kind() Kind { return KindFlexSettlementResponse }

// AGRPortfolioQuery asks a CRO for the AGR's portfolio on a date.
type AGRPortfolioQuery struct {
	Header
	Period Period `json:"period"`
}

func (*AGRPortfolioQuery) Kind() Kind { return KindAGRPortfolioQuery }

// PortfolioCongestionPoint is a congestion point and its connections as reported by a CRO.
type PortfolioCongestionPoint struct {
	EntityAddress string   `json:"entityAddress"`
	DSODomain     string   `json:"dsoDomain,omitempty"`
	Connections   []string `json:"connections,omitempty"`
}

// AGRPortfolioQueryResponse answers an AGRPortfolioQuery.
type AGRPortfolioQueryResponse struct {
	Header
	ResponseHeader
	AGRPortfolioQueryMessageID string                     `json:"agrPortfolioQueryMessageId"`
	Period                     Period                     `json:"period"`
	CongestionPoints           []PortfolioCongestionPoint `json:"congestionPoints,omitempty"`
}

func (*AGRPortfolioQueryResponse) Kind() Kind { return KindAGRPortfolioQueryResponse }

// PortfolioConnection is a connection an AGR registers for a period.
type PortfolioConnection struct {
	EntityAddress string `json:"entityAddress"`
	StartPeriod   Period `json:"startPeriod"`
	EndPeriod     Period `json:"endPeriod,omitempty"`
}

// AGRPortfolioUpdate registers the AGR's connections with a CRO.
type AGRPortfolioUpdate struct {
	Header
	Connections []PortfolioConnection `json:"connections"`
}

func (*AGRPortfolioUpdate) Kind() Kind { return KindAGRPortfolioUpdate }

// AGRPortfolioUpdateResponse answers an AGRPortfolioUpdate.
type AGRPortfolioUpdateResponse struct {
	Header
	ResponseHeader
	AGRPortfolioUpdateMessageID string `json:"agrPortfolioUpdateMessageId"`
}

func (*AGRPortfolioUpdateResponse) Kind() Kind { return KindAGRPortfolioUpdateResponse }

// DSOPortfolioQuery asks a CRO for the connections behind a congestion point.
type DSOPortfolioQuery struct {
	Header
	Period          Period `json:"period"`
	CongestionPoint string `json:"congestionPoint"`
}

func (*DSOPortfolioQuery) Kind() Kind { return KindDSOPortfolioQuery }

// DSOPortfolioQueryResponse answers a DSOPortfolioQuery.
type DSOPortfolioQueryResponse struct {
	Header
	ResponseHeader
	DSOPortfolioQueryMessageID string                    `json:"dsoPortfolioQueryMessageId"`
	Period                     Period                    `json:"period"`
	CongestionPoint            *PortfolioCongestionPoint `json:"congestionPoint,omitempty"`
}

func (*DSOPortfolioQueryResponse) Kind() Kind { return KindDSOPortfolioQueryResponse }

// DSOCongestionPoint is a congestion point a DSO registers with a CRO for a period.
type DSOCongestionPoint struct {
	EntityAddress string                `json:"entityAddress"`
	StartPeriod   Period                `json:"startPeriod"`
	EndPeriod     Period                `json:"endPeriod,omitempty"`
	Connections   []PortfolioConnection `json:"connections,omitempty"`
}

// DSOPortfolioUpdate registers the DSO's congestion points with a CRO.
type DSOPortfolioUpdate struct {
	Header
	TimeZone         string               `json:"timeZone"`
	CongestionPoints []DSOCongestionPoint `json:"congestionPoints"`
}

func (*DSOPortfolioUpdate) Kind() Kind { return KindDSOPortfolioUpdate }

// DSOPortfolioUpdateResponse answers a DSOPortfolioUpdate.
type DSOPortfolioUpdateResponse struct {
	Header
	ResponseHeader
	DSOPortfolioUpdateMessageID string `json:"dsoPortfolioUpdateMessageId"`
}

func (*DSOPortfolioUpdateResponse) Kind() Kind { return KindDSOPortfolioUpdateResponse }

// TestMessage checks connectivity between participants.
type TestMessage struct {
	Header
}

func (*TestMessage) Kind() Kind { return KindTestMessage }

// TestMessageResponse answers a TestMessage.
type TestMessageResponse struct {
	Header
}

func (*TestMessageResponse) Kind() Kind { return KindTestMessageResponse }

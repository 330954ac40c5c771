package message

// IspInfo is the uniform view of an interval record: Start is the 1-based index of the first
// ISP covered and Duration the number of ISPs covered.
type IspInfo struct {
	Start    uint64
	Duration uint64
}

// End returns the index of the last ISP covered. It is only meaningful when Start and Duration are at least 1.
func (i IspInfo) End() uint64 {
	return i.Start + i.Duration - 1
}

// IspLists returns the interval lists of p, one per independent sub-list: a single list for most
// messages, one per offer option for FlexOffer, one per profile for Metering and one per order
// settlement for FlexSettlement. Kinds without intervals return nil.
func IspLists(p Payload) [][]IspInfo {
	switch m := p.(type) {
	case *FlexRequest:
		list := make([]IspInfo, 0, len(m.ISPs))
		for _, isp := range m.ISPs {
			list = append(list, IspInfo{Start: isp.Start, Duration: isp.Duration})
		}
		return [][]IspInfo{list}
	case *FlexOffer:
		lists := make([][]IspInfo, 0, len(m.OfferOptions))
		for _, opt := range m.OfferOptions {
			lists = append(lists, powerIsps(opt.ISPs))
		}
		return lists
	case *FlexOrder:
		return [][]IspInfo{powerIsps(m.ISPs)}
	case *FlexReservationUpdate:
		return [][]IspInfo{powerIsps(m.ISPs)}
	case *DPrognosis:
		return [][]IspInfo{powerIsps(m.ISPs)}
	case *Metering:
		lists := make([][]IspInfo, 0, len(m.Profiles))
		for _, profile := range m.Profiles {
			list := make([]IspInfo, 0, len(profile.ISPs))
			for _, isp := range profile.ISPs {
				list = append(list, IspInfo{Start: isp.Start, Duration: 1})
			}
			lists = append(lists, list)
		}
		return lists
	case *FlexSettlement:
		lists := make([][]IspInfo, 0, len(m.FlexOrderSettlements))
		for _, s := range m.FlexOrderSettlements {
			list := make([]IspInfo, 0, len(s.ISPs))
			for _, isp := range s.ISPs {
				list = append(list, IspInfo{Start: isp.Start, Duration: isp.Duration})
			}
			lists = append(lists, list)
		}
		return lists
	case *FlexRequestResponse, *FlexOfferResponse, *FlexOfferRevocation, *FlexOfferRevocationResponse,
		*FlexOrderResponse, *FlexReservationUpdateResponse, *DPrognosisResponse, *MeteringResponse,
		*FlexSettlementResponse, *AGRPortfolioQuery, *AGRPortfolioQueryResponse, *AGRPortfolioUpdate,
		*AGRPortfolioUpdateResponse, *DSOPortfolioQuery, *DSOPortfolioQueryResponse, *DSOPortfolioUpdate,
		*DSOPortfolioUpdateResponse, *TestMessage, *TestMessageResponse:
		return nil
	}
	return nil
}

func powerIsps(isps []PowerISP) []IspInfo {
	list := make([]IspInfo, 0, len(isps))
	for _, isp := range isps {
		list = append(list, IspInfo{Start: isp.Start, Duration: isp.Duration})
	}
	return list
}

// Calendar holds what is needed to place a message's ISPs on the time line.
type Calendar struct {
	Period      Period
	TimeZone    string
	ISPDuration Duration
}

// CalendarOf returns the calendar of messages whose ISPs are indexed within a single day.
func CalendarOf(p Payload) (Calendar, bool) {
	switch m := p.(type) {
	case FlexMessage:
		f := m.Flex()
		return Calendar{Period: f.Period, TimeZone: f.TimeZone, ISPDuration: f.ISPDuration}, true
	case *Metering:
		return Calendar{Period: m.Period, TimeZone: m.TimeZone, ISPDuration: m.ISPDuration}, true
	}
	return Calendar{}, false
}

// SubListCalendars returns the calendar of each list IspLists(p) returns, in the same order.
// FlexSettlement spans many days, so each order settlement is placed on its own period.
func SubListCalendars(p Payload) []Calendar {
	if m, ok := p.(*FlexSettlement); ok {
		cals := make([]Calendar, 0, len(m.FlexOrderSettlements))
		for _, s := range m.FlexOrderSettlements {
			cals = append(cals, Calendar{Period: s.Period, TimeZone: m.TimeZone, ISPDuration: m.ISPDuration})
		}
		return cals
	}
	cal, ok := CalendarOf(p)
	if !ok {
		return nil
	}
	lists := IspLists(p)
	cals := make([]Calendar, len(lists))
	for i := range cals {
		cals[i] = cal
	}
	return cals
}

// TimeZoneOf returns the IANA time zone a message declares, if any.
func TimeZoneOf(p Payload) (string, bool) {
	if cal, ok := CalendarOf(p); ok {
		return cal.TimeZone, true
	}
	switch m := p.(type) {
	case *DSOPortfolioUpdate:
		return m.TimeZone, true
	case *FlexSettlement:
		return m.TimeZone, true
	}
	return "", false
}

// IspDurationOf returns the ISP duration a message declares, if any.
func IspDurationOf(p Payload) (Duration, bool) {
	if cal, ok := CalendarOf(p); ok {
		return cal.ISPDuration, true
	}
	if m, ok := p.(*FlexSettlement); ok {
		return m.ISPDuration, true
	}
	return 0, false
}

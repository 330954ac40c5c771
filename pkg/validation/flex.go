package validation

import (
	"context"
	"fmt"

	"github.com/morezero/uftp-compliance/pkg/isptime"
	"github.com/morezero/uftp-compliance/pkg/message"
)

// effectiveFactor reads an activation factor; UFTP treats an absent factor as 1.
func effectiveFactor(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}

// validFactor accepts an absent factor or one in (0, 1].
func validFactor(f float64) bool {
	return f >= 0 && f <= 1
}

func timeZone() Validator {
	applies := func(k message.Kind) bool { return intervalKinds(k) || k == message.KindDSOPortfolioUpdate }
	return NewRule("TimeZone", PhaseFlexMessage, applies, "Time zone rejected",
		func(_ context.Context, in *Input) (bool, error) {
			tz, ok := message.TimeZoneOf(in.Payload())
			return ok && in.Settings.IsSupportedTimeZone(tz), nil
		})
}

func ispDuration() Validator {
	return NewRule("IspDuration", PhaseFlexMessage, intervalKinds, "ISP duration rejected",
		func(_ context.Context, in *Input) (bool, error) {
			d, ok := message.IspDurationOf(in.Payload())
			return ok && in.Settings.IsSupportedIspDuration(d), nil
		})
}

func congestionPoint() Validator {
	applies := func(k message.Kind) bool {
		return k.IsFlexMessage() || k == message.KindDSOPortfolioQuery || k == message.KindFlexSettlement
	}
	return NewRule("CongestionPoint", PhaseFlexMessage, applies, "Unknown congestion point",
		func(ctx context.Context, in *Input) (bool, error) {
			var points []string
			switch m := in.Payload().(type) {
			case message.FlexMessage:
				points = []string{m.Flex().CongestionPoint}
			case *message.DSOPortfolioQuery:
				points = []string{m.CongestionPoint}
			case *message.FlexSettlement:
				for _, s := range m.FlexOrderSettlements {
					points = append(points, s.CongestionPoint)
				}
			}
			for _, id := range points {
				ok, err := in.History.IsKnownCongestionPoint(ctx, id)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		})
}

func currency() Validator {
	applies := kinds(message.KindFlexOffer, message.KindFlexOrder, message.KindMetering, message.KindFlexSettlement)
	return NewRule("Currency", PhaseFlexMessage, applies, "Unsupported currency",
		func(_ context.Context, in *Input) (bool, error) {
			switch m := in.Payload().(type) {
			case *message.FlexOffer:
				return in.Settings.IsSupportedCurrency(m.Currency), nil
			case *message.FlexOrder:
				return in.Settings.IsSupportedCurrency(m.Currency), nil
			case *message.Metering:
				// Metering carries a currency only for price profiles.
				return m.Currency == "" || in.Settings.IsSupportedCurrency(m.Currency), nil
			case *message.FlexSettlement:
				return in.Settings.IsSupportedCurrency(m.Currency), nil
			}
			return true, nil
		})
}

func contractID() Validator {
	applies := kinds(message.KindFlexRequest, message.KindFlexOffer, message.KindFlexOrder,
		message.KindFlexReservationUpdate, message.KindFlexSettlement)
	return NewRule("ContractID", PhaseFlexMessage, applies, "Unknown contract ID",
		func(ctx context.Context, in *Input) (bool, error) {
			var ids []string
			switch m := in.Payload().(type) {
			case *message.FlexRequest:
				ids = optional(m.ContractID)
			case *message.FlexOffer:
				ids = optional(m.ContractID)
			case *message.FlexOrder:
				ids = optional(m.ContractID)
			case *message.FlexReservationUpdate:
				// Reservations only exist under a contract.
				ids = []string{m.ContractID}
			case *message.FlexSettlement:
				for _, s := range m.FlexOrderSettlements {
					ids = append(ids, optional(s.ContractID)...)
				}
			}
			for _, id := range ids {
				ok, err := in.History.IsSupportedContractID(ctx, id)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		})
}

func baselineReference() Validator {
	return NewRule("BaselineReference", PhaseFlexMessage, kinds(message.KindFlexOffer, message.KindFlexOrder), "Unknown baseline reference",
		func(ctx context.Context, in *Input) (bool, error) {
			var ref string
			switch m := in.Payload().(type) {
			case *message.FlexOffer:
				ref = m.BaselineReference
			case *message.FlexOrder:
				ref = m.BaselineReference
			}
			if ref == "" {
				return true, nil
			}
			return in.History.IsValidBaselineReference(ctx, ref)
		})
}

func optional(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}

// ispBoundaries checks every sub-list against the number of ISPs of its day. A FlexSettlement
// order settlement is bounded by the day of its own period.
func ispBoundaries() Validator {
	return NewRule("IspBoundaries", PhaseFlexMessage, intervalKinds, "ISPs out of bounds",
		func(_ context.Context, in *Input) (bool, error) {
			p := in.Payload()
			lists := message.IspLists(p)
			cals := message.SubListCalendars(p)
			if len(cals) != len(lists) {
				return false, fmt.Errorf("validation:flex - %s has %d ISP lists but %d calendars", p.Kind(), len(lists), len(cals))
			}
			for i, list := range lists {
				maxIndex, err := isptime.MaxForDay(cals[i])
				if err != nil {
					return false, err
				}
				if !BoundaryCheck(maxIndex, list) {
					return false, nil
				}
			}
			return true, nil
		})
}

func ispConflicts() Validator {
	return NewRule("IspConflicts", PhaseFlexMessage, intervalKinds, "ISP conflict",
		func(_ context.Context, in *Input) (bool, error) {
			for _, list := range message.IspLists(in.Payload()) {
				if !ConflictCheck(list) {
					return false, nil
				}
			}
			return true, nil
		})
}

func expirationInFuture() Validator {
	return NewRule("ExpirationInFuture", PhaseFlexMessage, kinds(message.KindFlexRequest, message.KindFlexOffer), "Expiration date/time lies in the past",
		func(_ context.Context, in *Input) (bool, error) {
			switch m := in.Payload().(type) {
			case *message.FlexRequest:
				return m.ExpirationDateTime.After(in.Now), nil
			case *message.FlexOffer:
				return m.ExpirationDateTime.After(in.Now), nil
			}
			return true, nil
		})
}

// expirationBeforeLastIsp bounds the expiration by the end of the highest ISP index across all
// sub-lists, so a FlexOffer fits when its most generous option does.
func expirationBeforeLastIsp() Validator {
	return NewRule("ExpirationBeforeLastIsp", PhaseFlexMessage, kinds(message.KindFlexRequest, message.KindFlexOffer), "Expiration date/time after end of last ISP",
		func(_ context.Context, in *Input) (bool, error) {
			p := in.Payload()
			cal, _ := message.CalendarOf(p)
			end, err := isptime.LastIspEnd(cal, message.IspLists(p))
			if err != nil {
				return false, err
			}
			switch m := p.(type) {
			case *message.FlexRequest:
				return !m.ExpirationDateTime.After(end), nil
			case *message.FlexOffer:
				return !m.ExpirationDateTime.After(end), nil
			}
			return true, nil
		})
}

func flexRequestHasRequestedIsp() Validator {
	return NewRule("FlexRequestHasRequestedIsp", PhaseFlexMessage, kinds(message.KindFlexRequest), "FlexRequest has no requested ISPs",
		func(_ context.Context, in *Input) (bool, error) {
			req, _ := in.Payload().(*message.FlexRequest)
			for _, isp := range req.ISPs {
				if isp.Disposition == message.DispositionRequested {
					return true, nil
				}
			}
			return false, nil
		})
}

func flexRequestPowerRange() Validator {
	return NewRule("FlexRequestPowerRange", PhaseFlexMessage, kinds(message.KindFlexRequest), "Invalid power range",
		func(_ context.Context, in *Input) (bool, error) {
			req, _ := in.Payload().(*message.FlexRequest)
			for _, isp := range req.ISPs {
				if isp.MinPower > isp.MaxPower {
					return false, nil
				}
			}
			return true, nil
		})
}

func optionReferencesUnique() Validator {
	return NewRule("OptionReferencesUnique", PhaseFlexMessage, kinds(message.KindFlexOffer), "Duplicate OptionReference",
		func(_ context.Context, in *Input) (bool, error) {
			offer, _ := in.Payload().(*message.FlexOffer)
			seen := make(map[string]bool, len(offer.OfferOptions))
			for _, opt := range offer.OfferOptions {
				if seen[opt.OptionReference] {
					return false, nil
				}
				seen[opt.OptionReference] = true
			}
			return true, nil
		})
}

func minActivationFactor() Validator {
	return NewRule("MinActivationFactor", PhaseFlexMessage, kinds(message.KindFlexOffer), "Invalid MinActivationFactor",
		func(_ context.Context, in *Input) (bool, error) {
			offer, _ := in.Payload().(*message.FlexOffer)
			for _, opt := range offer.OfferOptions {
				if !validFactor(opt.MinActivationFactor) {
					return false, nil
				}
			}
			return true, nil
		})
}

func activationFactor() Validator {
	return NewRule("ActivationFactor", PhaseFlexMessage, kinds(message.KindFlexOrder), "Invalid ActivationFactor",
		func(_ context.Context, in *Input) (bool, error) {
			order, _ := in.Payload().(*message.FlexOrder)
			return validFactor(order.ActivationFactor), nil
		})
}

func responseRejectionReason() Validator {
	return NewRule("ResponseRejectionReason", PhaseFlexMessage, answeredResponses, "Missing RejectionReason",
		func(_ context.Context, in *Input) (bool, error) {
			resp, ok := in.Payload().(message.Response)
			if !ok {
				return true, nil
			}
			switch out := resp.Outcome(); out.Result {
			case message.Accepted:
				return true, nil
			case message.Rejected:
				return out.RejectionReason != "", nil
			}
			return false, nil
		})
}

func meteringProfilesUnique() Validator {
	return NewRule("MeteringProfilesUnique", PhaseFlexMessage, kinds(message.KindMetering), "Duplicate profile type",
		func(_ context.Context, in *Input) (bool, error) {
			m, _ := in.Payload().(*message.Metering)
			seen := make(map[string]bool, len(m.Profiles))
			for _, profile := range m.Profiles {
				if seen[profile.ProfileType] {
					return false, nil
				}
				seen[profile.ProfileType] = true
			}
			return true, nil
		})
}

// settlementPeriod requires a well-ordered settlement period containing every settled order's day.
func settlementPeriod() Validator {
	return NewRule("SettlementPeriod", PhaseFlexMessage, kinds(message.KindFlexSettlement), "Invalid settlement period",
		func(_ context.Context, in *Input) (bool, error) {
			s, _ := in.Payload().(*message.FlexSettlement)
			if s.PeriodStart.IsZero() || s.PeriodEnd.IsZero() || s.PeriodEnd.Before(s.PeriodStart) {
				return false, nil
			}
			for _, o := range s.FlexOrderSettlements {
				if o.Period.Before(s.PeriodStart) || s.PeriodEnd.Before(o.Period) {
					return false, nil
				}
			}
			return true, nil
		})
}

func portfolioPeriod() Validator {
	return NewRule("PortfolioPeriod", PhaseFlexMessage, kinds(message.KindDSOPortfolioUpdate), "Invalid congestion point period",
		func(_ context.Context, in *Input) (bool, error) {
			u, _ := in.Payload().(*message.DSOPortfolioUpdate)
			for _, cp := range u.CongestionPoints {
				if cp.StartPeriod.IsZero() {
					return false, nil
				}
				if !cp.EndPeriod.IsZero() && cp.EndPeriod.Before(cp.StartPeriod) {
					return false, nil
				}
			}
			return true, nil
		})
}

package validation

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/morezero/uftp-compliance/pkg/message"
)

const priceTolerance = 1e-6

// find resolves ref and asserts the expected payload type. A missing or mistyped message
// reports found=false; reference existence is its own validator.
func find[T message.Payload](ctx context.Context, in *Input, ref message.MessageReference) (T, bool, error) {
	var zero T
	p, err := in.History.FindPreviousMessage(ctx, ref)
	if err != nil || p == nil {
		return zero, false, err
	}
	t, ok := p.(T)
	return t, ok, nil
}

// acrossConversations drops the conversation id from a reference. D-Prognoses, revocations and
// orders listed in a D-Prognosis response live in conversations of their own.
func acrossConversations(ref message.MessageReference) message.MessageReference {
	ref.ConversationID = ""
	return ref
}

func exists[T message.Payload](ctx context.Context, in *Input, ref message.MessageReference) (bool, error) {
	_, found, err := find[T](ctx, in, ref)
	return found, err
}

// FlexOffer -> FlexRequest

func offerRequest(ctx context.Context, in *Input) (*message.FlexOffer, *message.FlexRequest, bool, error) {
	offer, _ := in.Payload().(*message.FlexOffer)
	if offer.FlexRequestMessageID == "" {
		return offer, nil, false, nil
	}
	req, found, err := find[*message.FlexRequest](ctx, in, in.Envelope.ReferenceToCounterparty(offer.FlexRequestMessageID, message.KindFlexRequest))
	return offer, req, found, err
}

func flexOfferRequestExists() Validator {
	return NewRule("FlexOfferRequestExists", PhaseMessageSpecific, kinds(message.KindFlexOffer), "Unknown reference FlexRequestMessageID",
		func(ctx context.Context, in *Input) (bool, error) {
			offer, _, found, err := offerRequest(ctx, in)
			if err != nil {
				return false, err
			}
			// Unsolicited offers carry no FlexRequest reference.
			return offer.FlexRequestMessageID == "" || found, nil
		})
}

func flexOfferRequestNotExpired() Validator {
	return NewRule("FlexOfferRequestNotExpired", PhaseMessageSpecific, kinds(message.KindFlexOffer), "Referenced FlexRequest has expired",
		func(ctx context.Context, in *Input) (bool, error) {
			_, req, found, err := offerRequest(ctx, in)
			if err != nil || !found {
				return err == nil, err
			}
			return req.ExpirationDateTime.After(in.Now), nil
		})
}

func flexOfferRequestPeriod() Validator {
	return NewRule("FlexOfferRequestPeriod", PhaseMessageSpecific, kinds(message.KindFlexOffer), "Period does not match referenced FlexRequest",
		func(ctx context.Context, in *Input) (bool, error) {
			offer, req, found, err := offerRequest(ctx, in)
			if err != nil || !found {
				return err == nil, err
			}
			return offer.Period == req.Period, nil
		})
}

// flexOfferRequestIsps requires every ISP of every option to lie within the ISPs the FlexRequest
// listed, whether requested or merely available.
func flexOfferRequestIsps() Validator {
	return NewRule("FlexOfferRequestIsps", PhaseMessageSpecific, kinds(message.KindFlexOffer), "ISPs not requested by referenced FlexRequest",
		func(ctx context.Context, in *Input) (bool, error) {
			offer, req, found, err := offerRequest(ctx, in)
			if err != nil || !found {
				return err == nil, err
			}
			requested := message.IspLists(req)
			var cover []message.IspInfo
			if len(requested) > 0 {
				cover = requested[0]
			}
			for _, list := range message.IspLists(offer) {
				if !coveredBy(list, cover) {
					return false, nil
				}
			}
			return true, nil
		})
}

func flexOfferDPrognosisExists() Validator {
	return NewRule("FlexOfferDPrognosisExists", PhaseMessageSpecific, kinds(message.KindFlexOffer), "Unknown reference D-PrognosisMessageID",
		func(ctx context.Context, in *Input) (bool, error) {
			offer, _ := in.Payload().(*message.FlexOffer)
			if offer.DPrognosisMessageID == "" {
				return true, nil
			}
			ref := acrossConversations(in.Envelope.ReferenceToOwn(offer.DPrognosisMessageID, message.KindDPrognosis))
			return exists[*message.DPrognosis](ctx, in, ref)
		})
}

// FlexOrder -> FlexOffer

func orderOffer(ctx context.Context, in *Input) (*message.FlexOrder, *message.FlexOffer, bool, error) {
	order, _ := in.Payload().(*message.FlexOrder)
	offer, found, err := find[*message.FlexOffer](ctx, in, in.Envelope.ReferenceToCounterparty(order.FlexOfferMessageID, message.KindFlexOffer))
	return order, offer, found, err
}

// orderedOption resolves the option a FlexOrder picks. An order may omit the option reference
// only when the offer has a single option.
func orderedOption(order *message.FlexOrder, offer *message.FlexOffer) (message.FlexOfferOption, bool) {
	if order.OptionReference == "" {
		if len(offer.OfferOptions) == 1 {
			return offer.OfferOptions[0], true
		}
		return message.FlexOfferOption{}, false
	}
	return offer.Option(order.OptionReference)
}

// withOrderedOption runs check with the ordered option, passing when the offer or option is
// missing since other validators report those.
func withOrderedOption(check func(order *message.FlexOrder, opt message.FlexOfferOption) bool) func(context.Context, *Input) (bool, error) {
	return func(ctx context.Context, in *Input) (bool, error) {
		order, offer, found, err := orderOffer(ctx, in)
		if err != nil || !found {
			return err == nil, err
		}
		opt, ok := orderedOption(order, offer)
		if !ok {
			return true, nil
		}
		return check(order, opt), nil
	}
}

func flexOrderOfferExists() Validator {
	return NewRule("FlexOrderOfferExists", PhaseMessageSpecific, kinds(message.KindFlexOrder), "Unknown reference FlexOfferMessageID",
		func(ctx context.Context, in *Input) (bool, error) {
			_, _, found, err := orderOffer(ctx, in)
			return found, err
		})
}

// flexOrderOfferNotRevoked looks for a revocation of the ordered offer sent to the ordering DSO.
// The match is on offer message id and receiving DSO only, as ExistsRevocation defines it; the
// domain that sent the revocation is not compared.
func flexOrderOfferNotRevoked() Validator {
	return NewRule("FlexOrderOfferNotRevoked", PhaseMessageSpecific, kinds(message.KindFlexOrder), "Referenced FlexOffer has been revoked",
		func(ctx context.Context, in *Input) (bool, error) {
			order, _ := in.Payload().(*message.FlexOrder)
			revoked, err := in.History.ExistsRevocation(ctx, order.FlexOfferMessageID, order.SenderDomain)
			return !revoked, err
		})
}

func flexOrderOfferNotExpired() Validator {
	return NewRule("FlexOrderOfferNotExpired", PhaseMessageSpecific, kinds(message.KindFlexOrder), "Referenced FlexOffer has expired",
		func(ctx context.Context, in *Input) (bool, error) {
			_, offer, found, err := orderOffer(ctx, in)
			if err != nil || !found {
				return err == nil, err
			}
			return offer.ExpirationDateTime.After(in.Now), nil
		})
}

func flexOrderOfferPeriod() Validator {
	return NewRule("FlexOrderOfferPeriod", PhaseMessageSpecific, kinds(message.KindFlexOrder), "Period does not match referenced FlexOffer",
		func(ctx context.Context, in *Input) (bool, error) {
			order, offer, found, err := orderOffer(ctx, in)
			if err != nil || !found {
				return err == nil, err
			}
			return order.Period == offer.Period, nil
		})
}

func flexOrderOptionExists() Validator {
	return NewRule("FlexOrderOptionExists", PhaseMessageSpecific, kinds(message.KindFlexOrder), "Unknown reference OptionReference",
		func(ctx context.Context, in *Input) (bool, error) {
			order, offer, found, err := orderOffer(ctx, in)
			if err != nil || !found {
				return err == nil, err
			}
			_, ok := orderedOption(order, offer)
			return ok, nil
		})
}

func flexOrderOptionPrice() Validator {
	return NewRule("FlexOrderOptionPrice", PhaseMessageSpecific, kinds(message.KindFlexOrder), "Price does not match referenced FlexOffer option",
		withOrderedOption(func(order *message.FlexOrder, opt message.FlexOfferOption) bool {
			return math.Abs(order.Price-opt.Price) <= priceTolerance
		}))
}

// flexOrderOptionIsps requires the ordered ISPs to be the option's ISPs with power scaled by the
// activation factor.
func flexOrderOptionIsps() Validator {
	return NewRule("FlexOrderOptionIsps", PhaseMessageSpecific, kinds(message.KindFlexOrder), "ISPs do not match referenced FlexOffer option",
		withOrderedOption(func(order *message.FlexOrder, opt message.FlexOfferOption) bool {
			if len(order.ISPs) != len(opt.ISPs) {
				return false
			}
			ordered := sortedByStart(order.ISPs)
			offered := sortedByStart(opt.ISPs)
			factor := effectiveFactor(order.ActivationFactor)
			for i := range ordered {
				o, f := ordered[i], offered[i]
				if o.Start != f.Start || o.Duration != f.Duration {
					return false
				}
				if o.Power != int64(math.Round(float64(f.Power)*factor)) {
					return false
				}
			}
			return true
		}))
}

func sortedByStart(isps []message.PowerISP) []message.PowerISP {
	out := append([]message.PowerISP(nil), isps...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func flexOrderActivationFactor() Validator {
	return NewRule("FlexOrderActivationFactor", PhaseMessageSpecific, kinds(message.KindFlexOrder), "ActivationFactor below MinActivationFactor",
		withOrderedOption(func(order *message.FlexOrder, opt message.FlexOfferOption) bool {
			return effectiveFactor(order.ActivationFactor) >= effectiveFactor(opt.MinActivationFactor)
		}))
}

func flexOrderDPrognosisExists() Validator {
	return NewRule("FlexOrderDPrognosisExists", PhaseMessageSpecific, kinds(message.KindFlexOrder), "Unknown reference D-PrognosisMessageID",
		func(ctx context.Context, in *Input) (bool, error) {
			order, _ := in.Payload().(*message.FlexOrder)
			if order.DPrognosisMessageID == "" {
				return true, nil
			}
			ref := acrossConversations(in.Envelope.ReferenceToCounterparty(order.DPrognosisMessageID, message.KindDPrognosis))
			return exists[*message.DPrognosis](ctx, in, ref)
		})
}

// FlexOfferRevocation -> FlexOffer

func revocationOfferExists() Validator {
	return NewRule("FlexOfferRevocationOfferExists", PhaseMessageSpecific, kinds(message.KindFlexOfferRevocation), "Unknown reference FlexOfferMessageID",
		func(ctx context.Context, in *Input) (bool, error) {
			rev, _ := in.Payload().(*message.FlexOfferRevocation)
			ref := acrossConversations(in.Envelope.ReferenceToOwn(rev.FlexOfferMessageID, message.KindFlexOffer))
			return exists[*message.FlexOffer](ctx, in, ref)
		})
}

func revocationNotYetRevoked() Validator {
	return NewRule("FlexOfferRevocationNotYetRevoked", PhaseMessageSpecific, kinds(message.KindFlexOfferRevocation), "FlexOffer already revoked",
		func(ctx context.Context, in *Input) (bool, error) {
			rev, _ := in.Payload().(*message.FlexOfferRevocation)
			revoked, err := in.History.ExistsRevocation(ctx, rev.FlexOfferMessageID, rev.RecipientDomain)
			return !revoked, err
		})
}

// Responses

// responseReference checks that a response answers a request the counterparty sent in the same
// conversation. One validator exists per response kind.
func responseReference(k message.Kind) Validator {
	request, ok := message.ResponseTo(k)
	if !ok {
		panic(fmt.Sprintf("validation:references - %s is not a response kind", k))
	}
	sample, err := message.New(k)
	if err != nil {
		panic(fmt.Sprintf("validation:references - %v", err))
	}
	field, _, ok := message.RequestReference(sample)
	if !ok {
		panic(fmt.Sprintf("validation:references - %s carries no request reference", k))
	}

	return NewRule(string(k)+"Reference", PhaseMessageSpecific, kinds(k), "Unknown reference "+field,
		func(ctx context.Context, in *Input) (bool, error) {
			_, id, _ := message.RequestReference(in.Payload())
			p, err := in.History.FindPreviousMessage(ctx, in.Envelope.ReferenceToCounterparty(id, request))
			return p != nil, err
		})
}

func dPrognosisResponseOrders() Validator {
	return NewRule("DPrognosisResponseOrders", PhaseMessageSpecific, kinds(message.KindDPrognosisResponse), "Unknown reference FlexOrderMessageID",
		func(ctx context.Context, in *Input) (bool, error) {
			resp, _ := in.Payload().(*message.DPrognosisResponse)
			for _, status := range resp.FlexOrderStatuses {
				ref := acrossConversations(in.Envelope.ReferenceToOwn(status.FlexOrderMessageID, message.KindFlexOrder))
				ok, err := exists[*message.FlexOrder](ctx, in, ref)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		})
}

// flexSettlementOrders requires each settled order reference to belong to an order sent to the
// settlement's recipient.
func flexSettlementOrders() Validator {
	return NewRule("FlexSettlementOrders", PhaseMessageSpecific, kinds(message.KindFlexSettlement), "Unknown OrderReference",
		func(ctx context.Context, in *Input) (bool, error) {
			s, _ := in.Payload().(*message.FlexSettlement)
			for _, o := range s.FlexOrderSettlements {
				ok, err := in.History.IsValidOrderReference(ctx, o.OrderReference, s.RecipientDomain)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		})
}

// flexSettlementResponseOrders checks order references against the responding AGR's domain.
func flexSettlementResponseOrders() Validator {
	return NewRule("FlexSettlementResponseOrders", PhaseMessageSpecific, kinds(message.KindFlexSettlementResponse), "Unknown OrderReference",
		func(ctx context.Context, in *Input) (bool, error) {
			resp, _ := in.Payload().(*message.FlexSettlementResponse)
			for _, status := range resp.FlexOrderSettlementStatuses {
				ok, err := in.History.IsValidOrderReference(ctx, status.OrderReference, resp.SenderDomain)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		})
}

func flexSettlementResponseStatuses() Validator {
	return NewRule("FlexSettlementResponseStatuses", PhaseMessageSpecific, kinds(message.KindFlexSettlementResponse), "OrderReference not in referenced FlexSettlement",
		func(ctx context.Context, in *Input) (bool, error) {
			resp, _ := in.Payload().(*message.FlexSettlementResponse)
			settlement, found, err := find[*message.FlexSettlement](ctx, in, in.Envelope.ReferenceToCounterparty(resp.FlexSettlementMessageID, message.KindFlexSettlement))
			if err != nil || !found {
				return err == nil, err
			}
			settled := make(map[string]bool, len(settlement.FlexOrderSettlements))
			for _, o := range settlement.FlexOrderSettlements {
				settled[o.OrderReference] = true
			}
			for _, status := range resp.FlexOrderSettlementStatuses {
				if !settled[status.OrderReference] {
					return false, nil
				}
			}
			return true, nil
		})
}

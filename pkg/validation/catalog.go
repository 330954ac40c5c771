package validation

import "github.com/morezero/uftp-compliance/pkg/message"

// Catalog returns the built-in validators in registration order. The engine sorts them by
// phase; within a phase this order decides which reason is reported first.
func Catalog() []Validator {
	validators := []Validator{
		supportedVersion(),
		senderDomainMatches(),
		knownSender(),
		senderRole(),
		handledRecipient(),

		timeZone(),
		ispDuration(),
		congestionPoint(),
		currency(),
		contractID(),
		baselineReference(),
		ispBoundaries(),
		ispConflicts(),
		expirationInFuture(),
		expirationBeforeLastIsp(),
		flexRequestHasRequestedIsp(),
		flexRequestPowerRange(),
		optionReferencesUnique(),
		minActivationFactor(),
		activationFactor(),
		responseRejectionReason(),
		meteringProfilesUnique(),
		settlementPeriod(),
		portfolioPeriod(),

		flexOfferRequestExists(),
		flexOfferRequestNotExpired(),
		flexOfferRequestPeriod(),
		flexOfferRequestIsps(),
		flexOfferDPrognosisExists(),
		flexOrderOfferExists(),
		flexOrderOfferNotRevoked(),
		flexOrderOfferNotExpired(),
		flexOrderOfferPeriod(),
		flexOrderOptionExists(),
		flexOrderOptionPrice(),
		flexOrderOptionIsps(),
		flexOrderActivationFactor(),
		flexOrderDPrognosisExists(),
		revocationOfferExists(),
		revocationNotYetRevoked(),
	}

	for _, k := range message.AllKinds {
		if answeredResponses(k) {
			validators = append(validators, responseReference(k))
		}
	}

	return append(validators,
		dPrognosisResponseOrders(),
		flexSettlementOrders(),
		flexSettlementResponseOrders(),
		flexSettlementResponseStatuses(),
	)
}

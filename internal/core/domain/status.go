package domain

// Provider status strings as delivered by the exchange, in webhooks and
// poll responses alike.
const (
	ProviderStatusWaiting    = "waiting"
	ProviderStatusPending    = "pending"
	ProviderStatusProcessing = "processing"
	ProviderStatusSettling   = "settling"
	ProviderStatusSettled    = "settled"
	ProviderStatusRefund     = "refund"
	ProviderStatusRefunded   = "refunded"
	ProviderStatusExpired    = "expired"
)

// MapProviderStatus maps an externally observed status onto the internal
// order status. The second return is false for any status outside the
// fixed table; callers must treat that as "ignore", never as an error.
func MapProviderStatus(ext string) (OrderStatus, bool) {
	switch ext {
	case ProviderStatusWaiting:
		return OrderStatusPending, true
	case ProviderStatusPending:
		return OrderStatusDetecting, true
	case ProviderStatusProcessing:
		return OrderStatusProcessing, true
	case ProviderStatusSettling:
		return OrderStatusSettling, true
	case ProviderStatusSettled:
		return OrderStatusCompleted, true
	case ProviderStatusRefund:
		return OrderStatusFailed, true
	case ProviderStatusRefunded:
		return OrderStatusRefunded, true
	case ProviderStatusExpired:
		return OrderStatusExpired, true
	default:
		return "", false
	}
}

// allowedTransitions is the explicit forward graph of the order state
// machine. Terminal states have no outgoing edges; they are additionally
// hard-guarded by the reconciler before this table is consulted.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusDetecting, OrderStatusUnderpaid, OrderStatusOverpaid,
		OrderStatusProcessing, OrderStatusSettling, OrderStatusCompleted,
		OrderStatusExpired, OrderStatusFailed, OrderStatusRefunded,
	},
	OrderStatusDetecting: {
		OrderStatusUnderpaid, OrderStatusOverpaid,
		OrderStatusProcessing, OrderStatusSettling, OrderStatusCompleted,
		OrderStatusExpired, OrderStatusFailed, OrderStatusRefunded,
	},
	OrderStatusUnderpaid: {
		OrderStatusProcessing, OrderStatusSettling, OrderStatusCompleted,
		OrderStatusExpired, OrderStatusFailed, OrderStatusRefunded,
	},
	OrderStatusOverpaid: {
		OrderStatusProcessing, OrderStatusSettling, OrderStatusCompleted,
		OrderStatusExpired, OrderStatusFailed, OrderStatusRefunded,
	},
	OrderStatusProcessing: {
		OrderStatusSettling, OrderStatusCompleted,
		OrderStatusExpired, OrderStatusFailed, OrderStatusRefunded,
	},
	OrderStatusSettling: {
		OrderStatusCompleted,
		OrderStatusExpired, OrderStatusFailed, OrderStatusRefunded,
	},
}

// TransitionAllowed reports whether (from, to) is in the explicit
// transition table. A disallowed pair is still applied by the reconciler
// but logged as a warning for investigation, never silently dropped.
func TransitionAllowed(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

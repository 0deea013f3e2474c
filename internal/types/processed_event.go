package types

// EventSource namespaces the ids stored in the processed events table.
type EventSource string

const (
	// EventSourceStripe holds Stripe webhook event ids
	EventSourceStripe EventSource = "stripe"
	// EventSourceCompensation holds one key per purchased number that had to be released
	// because its binding could not be written
	EventSourceCompensation EventSource = "compensation"
	// EventSourceBindingRelease holds one key per binding released at the provider
	EventSourceBindingRelease EventSource = "binding_release"
)

package domain

import "fmt"

// Flow is the variant an order belongs to. The status vocabulary is shared, but each
// flow only accepts its own transitions.
type Flow string

const (
	FlowProductDelivery Flow = "PRODUCT_DELIVERY"
	FlowCustomDelivery  Flow = "CUSTOM_DELIVERY"
	FlowSelfPickup      Flow = "SELF_PICKUP"
)

// FlowFor derives the flow from whether the order is product-backed and its pickup mode.
func FlowFor(hasProduct bool, mode PickupMode) Flow {
	switch {
	case !hasProduct:
		return FlowCustomDelivery
	case mode == PickupDelivery:
		return FlowProductDelivery
	default:
		return FlowSelfPickup
	}
}

type Event string

const (
	EventClaim              Event = "claim"
	EventCancel             Event = "cancel"
	EventUnassign           Event = "unassign"
	EventRequestPickup      Event = "runner-request-pickup"
	EventSellerGiven        Event = "seller-given"
	EventRunnerPickedCustom Event = "runner-picked-custom"
	EventRunnerDelivered    Event = "runner-delivered"
	EventSellerDelivered    Event = "seller-delivered"
	EventComplete           Event = "complete"
)

type transition struct {
	from     []OrderStatus
	to       OrderStatus
	conflict string
}

var flowTables = map[Flow]map[Event]transition{
	FlowProductDelivery: {
		EventClaim:           {[]OrderStatus{OrderOpen}, OrderAssigned, "Order not available"},
		EventCancel:          {[]OrderStatus{OrderOpen, OrderAssigned}, OrderCancelled, "Order can no longer be cancelled"},
		EventUnassign:        {[]OrderStatus{OrderAssigned}, OrderOpen, "Order can no longer be handed back"},
		EventRequestPickup:   {[]OrderStatus{OrderAssigned}, OrderPickupRequested, "Order not in a pickup-requestable state"},
		EventSellerGiven:     {[]OrderStatus{OrderPickupRequested}, OrderPickedFromSeller, "Order not in a give-to-runner state"},
		EventRunnerDelivered: {[]OrderStatus{OrderPickedFromSeller}, OrderDeliveredToBuyer, "Order not in a deliverable-to-buyer state"},
		EventComplete:        {[]OrderStatus{OrderDeliveredToBuyer}, OrderCompleted, "Delivery person must mark delivered first"},
	},
	FlowCustomDelivery: {
		EventClaim:              {[]OrderStatus{OrderOpen}, OrderRunnerGoing, "Order not available"},
		EventCancel:             {[]OrderStatus{OrderOpen, OrderRunnerGoing}, OrderCancelled, "Order can no longer be cancelled"},
		EventUnassign:           {[]OrderStatus{OrderRunnerGoing}, OrderOpen, "Order can no longer be handed back"},
		EventRunnerPickedCustom: {[]OrderStatus{OrderRunnerGoing}, OrderRunnerTaken, "Order not in a pickup state"},
		EventRunnerDelivered:    {[]OrderStatus{OrderRunnerTaken}, OrderDeliveredToBuyer, "Order not in a deliverable-to-buyer state"},
		EventComplete:           {[]OrderStatus{OrderDeliveredToBuyer}, OrderCompleted, "Delivery person must mark delivered first"},
	},
	FlowSelfPickup: {
		EventCancel:          {[]OrderStatus{OrderOpen, OrderAssigned}, OrderCancelled, "Order can no longer be cancelled"},
		EventSellerDelivered: {[]OrderStatus{OrderOpen, OrderAssigned}, OrderSellerDelivered, "Order is not in a deliverable state"},
		EventComplete:        {[]OrderStatus{OrderSellerDelivered}, OrderCompleted, "Seller must mark delivered before you receive it"},
	},
}

// unsupported explains why an event does not exist in a flow at all.
var unsupported = map[Event]string{
	EventClaim:              "Self pickup orders do not take a delivery partner",
	EventUnassign:           "Self pickup orders have no delivery partner",
	EventRequestPickup:      "Pickup requests only apply to delivered listings",
	EventSellerGiven:        "Only delivered listings are handed to a runner",
	EventRunnerPickedCustom: "This pickup flow is only for custom requests",
	EventRunnerDelivered:    "Self pickup orders are not delivered by a runner",
	EventSellerDelivered:    "Only self pickup orders are handed over by the seller",
}

// Allows reports whether the flow has the event at all.
func (f Flow) Allows(e Event) bool {
	_, ok := flowTables[f][e]
	return ok
}

// Next returns the status an order in this flow moves to when e happens in status from.
// Anything outside the flow's table is a state conflict.
func (f Flow) Next(e Event, from OrderStatus) (OrderStatus, error) {
	table, ok := flowTables[f]
	if !ok {
		return "", Validation(fmt.Sprintf("unknown order flow %q", f))
	}
	t, ok := table[e]
	if !ok {
		msg, known := unsupported[e]
		if !known {
			msg = fmt.Sprintf("%s is not possible for this order", e)
		}
		return "", Conflict(msg)
	}
	for _, s := range t.from {
		if s == from {
			return t.to, nil
		}
	}
	return "", Conflict(t.conflict)
}

// CanTransition is the boolean form of Next.
func (f Flow) CanTransition(e Event, from OrderStatus) bool {
	_, err := f.Next(e, from)
	return err == nil
}

package orders

import (
	"github.com/campuskart/campuskart/internal/domain"
)

// Outcome is what a transition leaves behind besides the mutated order.
type Outcome struct {
	Effects []domain.Effect
	// ProductStatus is the status the backing product moves to; empty means unchanged.
	ProductStatus domain.ProductStatus
}

// Apply runs event e on o on behalf of actor. Guards run before anything is touched, so a
// rejected event leaves o unchanged.
func Apply(o *domain.Order, e domain.Event, actor string) (Outcome, error) {
	if actor == "" {
		return Outcome{}, domain.Unauthenticated("Not authorized")
	}

	if e == domain.EventClaim {
		// claim checks availability first so a taken order reads as taken to everyone
		next, err := o.Flow.Next(e, o.Status)
		if err != nil {
			return Outcome{}, err
		}
		if o.IsBuyer(actor) {
			return Outcome{}, domain.Forbidden("You cannot deliver your own order")
		}
		o.RunnerID = actor
		o.Status = next
		return Outcome{Effects: domain.Notify(o.BuyerID, o.ID, domain.NotificationRunnerAssigned,
			"Delivery accepted", "A delivery partner has accepted your order.")}, nil
	}

	if !allowed(o, e, actor) {
		return Outcome{}, domain.Forbidden("Not allowed")
	}
	next, err := o.Flow.Next(e, o.Status)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	switch e {
	case domain.EventCancel:
		if o.HasProduct() {
			out.ProductStatus = domain.ProductOpen
		}
		out.Effects = append(
			domain.Notify(o.RunnerID, o.ID, "", "Order cancelled", "The buyer has cancelled this order."),
			domain.Notify(o.SellerID, o.ID, "", "Order cancelled", "The buyer has cancelled their order for your item.")...)

	case domain.EventUnassign:
		previous := o.RunnerID
		o.RunnerID = ""
		out.Effects = append(out.Effects, domain.Notify(o.BuyerID, o.ID, "", "Runner cancelled delivery",
			"Your previous delivery partner left the order. It is open again for others.")...)
		out.Effects = append(out.Effects, domain.Notify(o.SellerID, o.ID, "", "Runner cancelled delivery",
			"The delivery partner left this order. It may be reassigned to someone else.")...)
		out.Effects = append(out.Effects, domain.Notify(previous, o.ID, "", "You left an order",
			"You have unassigned yourself from a delivery.")...)

	case domain.EventRequestPickup:
		out.Effects = domain.Notify(o.SellerID, o.ID, domain.NotificationPickupRequested,
			"Parcel pickup requested", "A delivery partner is coming to pick up the parcel for an order.")

	case domain.EventSellerGiven:
		out.Effects = domain.Notify(o.BuyerID, o.ID, "",
			"Parcel picked from seller", "Your parcel is with the delivery partner and is on the way.")

	case domain.EventRunnerPickedCustom:
		out.Effects = domain.Notify(o.BuyerID, o.ID, "",
			"Parcel picked up", "Your delivery partner has picked up the parcel.")

	case domain.EventRunnerDelivered:
		out.Effects = domain.Notify(o.BuyerID, o.ID, "",
			"Order delivered", "Your order has been delivered. Please confirm you received it.")

	case domain.EventSellerDelivered:
		out.Effects = domain.Notify(o.BuyerID, o.ID, "",
			"Item ready for pickup", `The seller has marked your order as ready. Meet them and tap "Mark as received".`)

	case domain.EventComplete:
		if o.HasProduct() {
			out.ProductStatus = domain.ProductDelivered
		}
		out.Effects = append(
			domain.Notify(o.RunnerID, o.ID, "", "Order completed", "The buyer has confirmed delivery. Thank you for delivering!"),
			domain.Notify(o.SellerID, o.ID, "", "Order completed", "The buyer has confirmed receiving your item.")...)
	}

	o.Status = next
	return out, nil
}

// allowed is the role check for every event except claim.
func allowed(o *domain.Order, e domain.Event, actor string) bool {
	switch e {
	case domain.EventCancel:
		return o.IsBuyer(actor)
	case domain.EventUnassign, domain.EventRequestPickup, domain.EventRunnerPickedCustom, domain.EventRunnerDelivered:
		return o.IsRunner(actor)
	case domain.EventSellerGiven, domain.EventSellerDelivered:
		return o.IsSeller(actor)
	case domain.EventComplete:
		return o.IsBuyer(actor) || o.IsRunner(actor)
	}
	return false
}

// cancelForListing closes an active order whose product is being removed by the seller.
func cancelForListing(o *domain.Order) []domain.Effect {
	o.Status = domain.OrderCancelled
	o.CancelReason = "Listing removed by the seller"
	return append(
		domain.Notify(o.BuyerID, o.ID, "", "Order cancelled", "The seller removed this listing, so your order was cancelled."),
		domain.Notify(o.RunnerID, o.ID, "", "Order cancelled", "The seller removed the listing for this delivery.")...)
}

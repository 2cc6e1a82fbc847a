package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderOpen             OrderStatus = "OPEN"
	OrderAssigned         OrderStatus = "ASSIGNED"
	OrderPickupRequested  OrderStatus = "PICKUP_REQUESTED"
	OrderPickedFromSeller OrderStatus = "PICKED_FROM_SELLER"
	OrderDeliveredToBuyer OrderStatus = "DELIVERED_TO_BUYER"
	OrderSellerDelivered  OrderStatus = "SELLER_DELIVERED"
	OrderRunnerGoing      OrderStatus = "RUNNER_GOING"
	OrderRunnerTaken      OrderStatus = "RUNNER_TAKEN"
	OrderCompleted        OrderStatus = "COMPLETED"
	OrderCancelled        OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// ActiveStatuses lists every non-terminal status.
func ActiveStatuses() []OrderStatus {
	return []OrderStatus{
		OrderOpen,
		OrderAssigned,
		OrderPickupRequested,
		OrderPickedFromSeller,
		OrderDeliveredToBuyer,
		OrderSellerDelivered,
		OrderRunnerGoing,
		OrderRunnerTaken,
	}
}

type PickupMode string

const (
	PickupSelf     PickupMode = "SELF"
	PickupDelivery PickupMode = "DELIVERY"
)

func (m PickupMode) Valid() bool {
	return m == PickupSelf || m == PickupDelivery
}

type Order struct {
	ID             string      `bson:"_id" json:"id"`
	ProductID      string      `bson:"product_id,omitempty" json:"product_id,omitempty"`
	CustomItem     string      `bson:"custom_item,omitempty" json:"custom_item,omitempty"`
	Image          string      `bson:"image,omitempty" json:"image,omitempty"`
	BuyerID        string      `bson:"buyer_id" json:"buyer_id"`
	SellerID       string      `bson:"seller_id,omitempty" json:"seller_id,omitempty"`
	RunnerID       string      `bson:"runner_id,omitempty" json:"runner_id,omitempty"`
	Flow           Flow        `bson:"flow" json:"flow"`
	PickupMode     PickupMode  `bson:"pickup_mode" json:"pickup_mode"`
	Status         OrderStatus `bson:"status" json:"status"`
	PickupLocation string      `bson:"pickup_location,omitempty" json:"pickup_location,omitempty"`
	DropLocation   string      `bson:"drop_location,omitempty" json:"drop_location,omitempty"`
	DeliveryFee    float64     `bson:"delivery_fee" json:"delivery_fee"`
	CancelReason   string      `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	CreatedAt      time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `bson:"updated_at" json:"updated_at"`
}

// NewOrderInput is what a buyer submits to place an order or a custom request.
type NewOrderInput struct {
	ProductID      string     `json:"productId"`
	CustomItem     string     `json:"customItem"`
	Image          string     `json:"image"`
	PickupLocation string     `json:"pickupLocation"`
	DropLocation   string     `json:"dropLocation"`
	DeliveryFee    float64    `json:"deliveryFee"`
	PickupMode     PickupMode `json:"pickupMode"`
}

// Normalize trims free text and fills in the default pickup mode: product orders
// default to self pickup, custom requests are always delivered.
func (in *NewOrderInput) Normalize() {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.CustomItem = strings.TrimSpace(in.CustomItem)
	if in.PickupMode == "" {
		if in.ProductID == "" {
			in.PickupMode = PickupDelivery
		} else {
			in.PickupMode = PickupSelf
		}
	}
}

func (in *NewOrderInput) Validate() error {
	if in.ProductID == "" && in.CustomItem == "" {
		return Validation("Either productId or customItem is required")
	}
	if in.ProductID != "" && in.CustomItem != "" {
		return Validation("An order is either for a listed product or a custom item, not both")
	}
	if !in.PickupMode.Valid() {
		return Validation("pickupMode must be SELF or DELIVERY")
	}
	if in.ProductID == "" && in.PickupMode != PickupDelivery {
		return Validation("Custom requests are always delivered by a runner")
	}
	if in.DeliveryFee < 0 {
		return Validation("deliveryFee cannot be negative")
	}
	return nil
}

func (o *Order) HasProduct() bool {
	return o.ProductID != ""
}

func (o *Order) IsBuyer(userID string) bool {
	return userID != "" && o.BuyerID == userID
}

func (o *Order) IsSeller(userID string) bool {
	return userID != "" && o.SellerID == userID
}

func (o *Order) IsRunner(userID string) bool {
	return userID != "" && o.RunnerID == userID
}

// Validate checks the structural invariants of an order. It runs before every write.
func (o *Order) Validate() error {
	if o.BuyerID == "" {
		return Validation("order has no buyer")
	}
	if o.HasProduct() == (o.CustomItem != "") {
		return Validation("order must reference exactly one of product or custom item")
	}
	if o.HasProduct() != (o.SellerID != "") {
		return Validation("order seller must be set exactly when a product is set")
	}
	if o.Flow != FlowFor(o.ProductID != "", o.PickupMode) {
		return Validation("order flow does not match its product and pickup mode")
	}
	if o.Status == OrderAssigned && o.RunnerID == "" {
		return Validation("assigned order has no runner")
	}
	if o.Status == OrderOpen && o.RunnerID != "" {
		return Validation("open order still has a runner")
	}
	if o.DeliveryFee < 0 {
		return Validation("deliveryFee cannot be negative")
	}
	return nil
}

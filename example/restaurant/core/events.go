package core

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

// The event type identifiers, used as the "type" discriminator on the wire and as the stored event type.
const (
	RestaurantCreatedEventType        = "RestaurantCreated"
	RestaurantNotCreatedEventType     = "RestaurantNotCreated"
	RestaurantMenuChangedEventType    = "RestaurantMenuChanged"
	RestaurantMenuNotChangedEventType = "RestaurantMenuNotChanged"
	OrderPlacedEventType              = "OrderPlaced"
	OrderNotPlacedEventType           = "OrderNotPlaced"
	OrderCreatedEventType             = "OrderCreated"
	OrderNotCreatedEventType          = "OrderNotCreated"
	OrderPreparedEventType            = "OrderPrepared"
	OrderNotPreparedEventType         = "OrderNotPrepared"
)

// Event is the closed union of all events of the domain.
type Event interface {
	fmodel.Event
	isEvent()
}

// RestaurantEvent is an event of a restaurant stream.
type RestaurantEvent interface {
	Event
	isRestaurantEvent()
}

// OrderEvent is an event of an order stream.
type OrderEvent interface {
	Event
	isOrderEvent()
}

// Rejection is implemented by the events that record a rejected command.
type Rejection interface {
	Event
	RejectionReason() string
}

// RestaurantCreated is the fact that a restaurant was opened.
type RestaurantCreated struct {
	RestaurantID uuid.UUID      `json:"identifier"`
	Name         string         `json:"name"`
	Menu         RestaurantMenu `json:"menu"`
}

// RestaurantNotCreated is the rejection of a CreateRestaurant command.
type RestaurantNotCreated struct {
	RestaurantID uuid.UUID      `json:"identifier"`
	Name         string         `json:"name"`
	Menu         RestaurantMenu `json:"menu"`
	Reason       string         `json:"reason"`
}

// RestaurantMenuChanged is the fact that a restaurant's menu was replaced.
type RestaurantMenuChanged struct {
	RestaurantID uuid.UUID      `json:"identifier"`
	Menu         RestaurantMenu `json:"menu"`
}

// RestaurantMenuNotChanged is the rejection of a ChangeRestaurantMenu command.
type RestaurantMenuNotChanged struct {
	RestaurantID uuid.UUID      `json:"identifier"`
	Menu         RestaurantMenu `json:"menu"`
	Reason       string         `json:"reason"`
}

// OrderPlaced is the fact that an order was placed at a restaurant.
type OrderPlaced struct {
	RestaurantID uuid.UUID       `json:"identifier"`
	OrderID      uuid.UUID       `json:"order_identifier"`
	LineItems    []OrderLineItem `json:"line_items"`
}

// OrderNotPlaced is the rejection of a PlaceOrder command.
type OrderNotPlaced struct {
	RestaurantID uuid.UUID       `json:"identifier"`
	OrderID      uuid.UUID       `json:"order_identifier"`
	LineItems    []OrderLineItem `json:"line_items"`
	Reason       string          `json:"reason"`
}

// OrderCreated is the fact that an order was created.
type OrderCreated struct {
	OrderID      uuid.UUID       `json:"identifier"`
	RestaurantID uuid.UUID       `json:"restaurant_identifier"`
	Status       OrderStatus     `json:"status"`
	LineItems    []OrderLineItem `json:"line_items"`
}

// OrderNotCreated is the rejection of a CreateOrder command.
type OrderNotCreated struct {
	OrderID      uuid.UUID       `json:"identifier"`
	RestaurantID uuid.UUID       `json:"restaurant_identifier"`
	LineItems    []OrderLineItem `json:"line_items"`
	Reason       string          `json:"reason"`
}

// OrderPrepared is the fact that an order was prepared. It is the last event of an order stream.
type OrderPrepared struct {
	OrderID uuid.UUID   `json:"identifier"`
	Status  OrderStatus `json:"status"`
}

// OrderNotPrepared is the rejection of a MarkOrderAsPrepared command.
type OrderNotPrepared struct {
	OrderID uuid.UUID `json:"identifier"`
	Reason  string    `json:"reason"`
}

func (e RestaurantCreated) Identifier() uuid.UUID        { return e.RestaurantID }
func (e RestaurantNotCreated) Identifier() uuid.UUID     { return e.RestaurantID }
func (e RestaurantMenuChanged) Identifier() uuid.UUID    { return e.RestaurantID }
func (e RestaurantMenuNotChanged) Identifier() uuid.UUID { return e.RestaurantID }
func (e OrderPlaced) Identifier() uuid.UUID              { return e.RestaurantID }
func (e OrderNotPlaced) Identifier() uuid.UUID           { return e.RestaurantID }
func (e OrderCreated) Identifier() uuid.UUID             { return e.OrderID }
func (e OrderNotCreated) Identifier() uuid.UUID          { return e.OrderID }
func (e OrderPrepared) Identifier() uuid.UUID            { return e.OrderID }
func (e OrderNotPrepared) Identifier() uuid.UUID         { return e.OrderID }

func (RestaurantCreated) DeciderType() string        { return RestaurantDeciderType }
func (RestaurantNotCreated) DeciderType() string     { return RestaurantDeciderType }
func (RestaurantMenuChanged) DeciderType() string    { return RestaurantDeciderType }
func (RestaurantMenuNotChanged) DeciderType() string { return RestaurantDeciderType }
func (OrderPlaced) DeciderType() string              { return RestaurantDeciderType }
func (OrderNotPlaced) DeciderType() string           { return RestaurantDeciderType }
func (OrderCreated) DeciderType() string             { return OrderDeciderType }
func (OrderNotCreated) DeciderType() string          { return OrderDeciderType }
func (OrderPrepared) DeciderType() string            { return OrderDeciderType }
func (OrderNotPrepared) DeciderType() string         { return OrderDeciderType }

func (RestaurantCreated) EventType() string        { return RestaurantCreatedEventType }
func (RestaurantNotCreated) EventType() string     { return RestaurantNotCreatedEventType }
func (RestaurantMenuChanged) EventType() string    { return RestaurantMenuChangedEventType }
func (RestaurantMenuNotChanged) EventType() string { return RestaurantMenuNotChangedEventType }
func (OrderPlaced) EventType() string              { return OrderPlacedEventType }
func (OrderNotPlaced) EventType() string           { return OrderNotPlacedEventType }
func (OrderCreated) EventType() string             { return OrderCreatedEventType }
func (OrderNotCreated) EventType() string          { return OrderNotCreatedEventType }
func (OrderPrepared) EventType() string            { return OrderPreparedEventType }
func (OrderNotPrepared) EventType() string         { return OrderNotPreparedEventType }

// IsFinal is true only for OrderPrepared: nothing may be appended to a prepared order's stream.
func (OrderPrepared) IsFinal() bool { return true }

func (RestaurantCreated) IsFinal() bool        { return false }
func (RestaurantNotCreated) IsFinal() bool     { return false }
func (RestaurantMenuChanged) IsFinal() bool    { return false }
func (RestaurantMenuNotChanged) IsFinal() bool { return false }
func (OrderPlaced) IsFinal() bool              { return false }
func (OrderNotPlaced) IsFinal() bool           { return false }
func (OrderCreated) IsFinal() bool             { return false }
func (OrderNotCreated) IsFinal() bool          { return false }
func (OrderNotPrepared) IsFinal() bool         { return false }

func (RestaurantCreated) isEvent()        {}
func (RestaurantNotCreated) isEvent()     {}
func (RestaurantMenuChanged) isEvent()    {}
func (RestaurantMenuNotChanged) isEvent() {}
func (OrderPlaced) isEvent()              {}
func (OrderNotPlaced) isEvent()           {}
func (OrderCreated) isEvent()             {}
func (OrderNotCreated) isEvent()          {}
func (OrderPrepared) isEvent()            {}
func (OrderNotPrepared) isEvent()         {}

func (RestaurantCreated) isRestaurantEvent()        {}
func (RestaurantNotCreated) isRestaurantEvent()     {}
func (RestaurantMenuChanged) isRestaurantEvent()    {}
func (RestaurantMenuNotChanged) isRestaurantEvent() {}
func (OrderPlaced) isRestaurantEvent()              {}
func (OrderNotPlaced) isRestaurantEvent()           {}

func (OrderCreated) isOrderEvent()     {}
func (OrderNotCreated) isOrderEvent()  {}
func (OrderPrepared) isOrderEvent()    {}
func (OrderNotPrepared) isOrderEvent() {}

func (e RestaurantNotCreated) RejectionReason() string     { return e.Reason }
func (e RestaurantMenuNotChanged) RejectionReason() string { return e.Reason }
func (e OrderNotPlaced) RejectionReason() string           { return e.Reason }
func (e OrderNotCreated) RejectionReason() string          { return e.Reason }
func (e OrderNotPrepared) RejectionReason() string         { return e.Reason }

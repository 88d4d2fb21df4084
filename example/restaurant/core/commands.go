package core

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

// The decider types, which are also the first half of every stream identifier.
const (
	RestaurantDeciderType = "Restaurant"
	OrderDeciderType      = "Order"
)

// The command type identifiers, used as the "type" discriminator on the wire.
const (
	CreateRestaurantCommandType     = "CreateRestaurant"
	ChangeRestaurantMenuCommandType = "ChangeRestaurantMenu"
	PlaceOrderCommandType           = "PlaceOrder"
	CreateOrderCommandType          = "CreateOrder"
	MarkOrderAsPreparedCommandType  = "MarkOrderAsPrepared"
)

// Command is the closed union of all commands of the domain.
type Command interface {
	fmodel.Command
	CommandType() string
	isCommand()
}

// RestaurantCommand is a command the restaurant decider handles.
type RestaurantCommand interface {
	Command
	isRestaurantCommand()
}

// OrderCommand is a command the order decider handles.
type OrderCommand interface {
	Command
	isOrderCommand()
}

// CreateRestaurant is the intent to open a new restaurant.
type CreateRestaurant struct {
	RestaurantID uuid.UUID      `json:"identifier"`
	Name         string         `json:"name"`
	Menu         RestaurantMenu `json:"menu"`
}

// ChangeRestaurantMenu is the intent to replace the menu of a restaurant.
type ChangeRestaurantMenu struct {
	RestaurantID uuid.UUID      `json:"identifier"`
	Menu         RestaurantMenu `json:"menu"`
}

// PlaceOrder is the intent to place an order at a restaurant.
type PlaceOrder struct {
	RestaurantID uuid.UUID       `json:"identifier"`
	OrderID      uuid.UUID       `json:"order_identifier"`
	LineItems    []OrderLineItem `json:"line_items"`
}

// CreateOrder is the intent to create an order, usually issued by the order saga.
type CreateOrder struct {
	OrderID      uuid.UUID       `json:"identifier"`
	RestaurantID uuid.UUID       `json:"restaurant_identifier"`
	LineItems    []OrderLineItem `json:"line_items"`
}

// MarkOrderAsPrepared is the intent to mark an order as prepared.
type MarkOrderAsPrepared struct {
	OrderID uuid.UUID `json:"identifier"`
}

func (c CreateRestaurant) Identifier() uuid.UUID     { return c.RestaurantID }
func (c ChangeRestaurantMenu) Identifier() uuid.UUID { return c.RestaurantID }
func (c PlaceOrder) Identifier() uuid.UUID           { return c.RestaurantID }
func (c CreateOrder) Identifier() uuid.UUID          { return c.OrderID }
func (c MarkOrderAsPrepared) Identifier() uuid.UUID  { return c.OrderID }

func (c CreateRestaurant) DeciderType() string     { return RestaurantDeciderType }
func (c ChangeRestaurantMenu) DeciderType() string { return RestaurantDeciderType }
func (c PlaceOrder) DeciderType() string           { return RestaurantDeciderType }
func (c CreateOrder) DeciderType() string          { return OrderDeciderType }
func (c MarkOrderAsPrepared) DeciderType() string  { return OrderDeciderType }

func (c CreateRestaurant) CommandType() string     { return CreateRestaurantCommandType }
func (c ChangeRestaurantMenu) CommandType() string { return ChangeRestaurantMenuCommandType }
func (c PlaceOrder) CommandType() string           { return PlaceOrderCommandType }
func (c CreateOrder) CommandType() string          { return CreateOrderCommandType }
func (c MarkOrderAsPrepared) CommandType() string  { return MarkOrderAsPreparedCommandType }

func (CreateRestaurant) isCommand()     {}
func (ChangeRestaurantMenu) isCommand() {}
func (PlaceOrder) isCommand()           {}
func (CreateOrder) isCommand()          {}
func (MarkOrderAsPrepared) isCommand()  {}

func (CreateRestaurant) isRestaurantCommand()     {}
func (ChangeRestaurantMenu) isRestaurantCommand() {}
func (PlaceOrder) isRestaurantCommand()           {}

func (CreateOrder) isOrderCommand()         {}
func (MarkOrderAsPrepared) isOrderCommand() {}

package core

import (
	"github.com/google/uuid"
)

// Money is an amount in minor currency units.
type Money uint64

// MenuItem is one dish on a restaurant's menu.
type MenuItem struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price Money     `json:"price"`
}

// Cuisine classifies a restaurant's menu.
type Cuisine string

// The supported cuisines.
const (
	CuisineItalian    Cuisine = "Italian"
	CuisineIndian     Cuisine = "Indian"
	CuisineChinese    Cuisine = "Chinese"
	CuisineJapanese   Cuisine = "Japanese"
	CuisineAmerican   Cuisine = "American"
	CuisineMexican    Cuisine = "Mexican"
	CuisineFrench     Cuisine = "French"
	CuisineThai       Cuisine = "Thai"
	CuisineVietnamese Cuisine = "Vietnamese"
	CuisineGreek      Cuisine = "Greek"
	CuisineKorean     Cuisine = "Korean"
	CuisineSpanish    Cuisine = "Spanish"
	CuisineLebanese   Cuisine = "Lebanese"
	CuisineTurkish    Cuisine = "Turkish"
	CuisineEthiopian  Cuisine = "Ethiopian"
	CuisineMoroccan   Cuisine = "Moroccan"
	CuisineEgyptian   Cuisine = "Egyptian"
	CuisineBrazilian  Cuisine = "Brazilian"
	CuisinePolish     Cuisine = "Polish"
	CuisineGerman     Cuisine = "German"
	CuisineBritish    Cuisine = "British"
	CuisineIrish      Cuisine = "Irish"
	CuisineOther      Cuisine = "Other"
)

// RestaurantMenu is the full menu of a restaurant.
type RestaurantMenu struct {
	MenuID  uuid.UUID  `json:"menu_id"`
	Items   []MenuItem `json:"items"`
	Cuisine Cuisine    `json:"cuisine"`
}

// OrderLineItem is one ordered menu item.
type OrderLineItem struct {
	ID         uuid.UUID `json:"id"`
	Quantity   uint32    `json:"quantity"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
}

// OrderStatus is the lifecycle status of an order.
type OrderStatus string

// The order statuses.
const (
	OrderStatusCreated   OrderStatus = "Created"
	OrderStatusPrepared  OrderStatus = "Prepared"
	OrderStatusCancelled OrderStatus = "Cancelled"
	OrderStatusRejected  OrderStatus = "Rejected"
)

// Reasons carried by rejection events.
const (
	ReasonRestaurantAlreadyExists = "Restaurant already exists"
	ReasonRestaurantDoesNotExist  = "Restaurant does not exist"
	ReasonOrderAlreadyExists      = "Order already exists"
	ReasonOrderInTheWrongStatus   = "Order in the wrong status previously"
)

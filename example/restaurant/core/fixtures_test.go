package core_test

import (
	"github.com/google/uuid"

	. "github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/core"
)

func givenMenu() RestaurantMenu {
	return RestaurantMenu{
		MenuID: uuid.New(),
		Items: []MenuItem{
			{ID: uuid.New(), Name: "Margherita", Price: 900},
			{ID: uuid.New(), Name: "Tiramisu", Price: 550},
		},
		Cuisine: CuisineItalian,
	}
}

func givenLineItems(menu RestaurantMenu) []OrderLineItem {
	return []OrderLineItem{
		{ID: uuid.New(), Quantity: 2, MenuItemID: menu.Items[0].ID, Name: menu.Items[0].Name},
	}
}

func givenRestaurantCreated(restaurantID uuid.UUID, menu RestaurantMenu) RestaurantCreated {
	return RestaurantCreated{RestaurantID: restaurantID, Name: "Test", Menu: menu}
}

func givenOrderCreated(orderID uuid.UUID, restaurantID uuid.UUID) OrderCreated {
	return OrderCreated{
		OrderID:      orderID,
		RestaurantID: restaurantID,
		Status:       OrderStatusCreated,
		LineItems:    givenLineItems(givenMenu()),
	}
}

package shell_test

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/core"
)

func givenMenu() core.RestaurantMenu {
	return core.RestaurantMenu{
		MenuID: uuid.New(),
		Items: []core.MenuItem{
			{ID: uuid.New(), Name: "Pad Thai", Price: 1250},
			{ID: uuid.New(), Name: "Green Curry", Price: 1400},
		},
		Cuisine: core.CuisineThai,
	}
}

func givenLineItems(menu core.RestaurantMenu) []core.OrderLineItem {
	return []core.OrderLineItem{
		{ID: uuid.New(), Quantity: 1, MenuItemID: menu.Items[0].ID, Name: menu.Items[0].Name},
		{ID: uuid.New(), Quantity: 3, MenuItemID: menu.Items[1].ID, Name: menu.Items[1].Name},
	}
}

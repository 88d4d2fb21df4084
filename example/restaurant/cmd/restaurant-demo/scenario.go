package main

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/core"
)

// scenario returns the built-in batches: a restaurant and an order, a batch that creates a restaurant
// and orders from it right away, preparing the first order, and a duplicate that gets rejected.
func scenario() [][]core.Command {
	napoli := uuid.New()
	saigon := uuid.New()
	napoliMenu := menu(core.CuisineItalian, item("Margherita", 900), item("Tiramisu", 550))
	saigonMenu := menu(core.CuisineVietnamese, item("Pho Bo", 1300), item("Banh Mi", 800))
	firstOrder := uuid.New()
	secondOrder := uuid.New()

	return [][]core.Command{
		{core.CreateRestaurant{RestaurantID: napoli, Name: "Bella Napoli", Menu: napoliMenu}},
		{core.PlaceOrder{RestaurantID: napoli, OrderID: firstOrder, LineItems: order(napoliMenu, 2, 1)}},
		{
			core.CreateRestaurant{RestaurantID: saigon, Name: "Little Saigon", Menu: saigonMenu},
			core.PlaceOrder{RestaurantID: saigon, OrderID: secondOrder, LineItems: order(saigonMenu, 1, 2)},
		},
		{core.MarkOrderAsPrepared{OrderID: firstOrder}},
		{core.CreateRestaurant{RestaurantID: napoli, Name: "Bella Napoli", Menu: napoliMenu}},
	}
}

func menu(cuisine core.Cuisine, items ...core.MenuItem) core.RestaurantMenu {
	return core.RestaurantMenu{MenuID: uuid.New(), Items: items, Cuisine: cuisine}
}

func item(name string, price core.Money) core.MenuItem {
	return core.MenuItem{ID: uuid.New(), Name: name, Price: price}
}

// order orders the menu items in menu order, quantities[i] of item i.
func order(menu core.RestaurantMenu, quantities ...uint32) []core.OrderLineItem {
	lineItems := make([]core.OrderLineItem, 0, len(quantities))

	for i, quantity := range quantities {
		lineItems = append(lineItems, core.OrderLineItem{
			ID:         uuid.New(),
			Quantity:   quantity,
			MenuItemID: menu.Items[i].ID,
			Name:       menu.Items[i].Name,
		})
	}

	return lineItems
}

package core_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/core"
)

func Test_RestaurantView_CreatedIsIdempotent(t *testing.T) {
	// arrange
	view := RestaurantViewOf()
	created := givenRestaurantCreated(uuid.New(), givenMenu())
	once := view.ComputeNewState(view.InitialState(), created)

	// act
	twice := view.ComputeNewState(once, created)

	// assert
	require.NotNil(t, twice)
	assert.Equal(t, *once, *twice)
}

func Test_RestaurantView_Evolve(t *testing.T) {
	restaurantID := uuid.New()
	newMenu := givenMenu()

	t.Run("menu changed", func(t *testing.T) {
		state := RestaurantViewOf().ComputeNewState(
			nil,
			givenRestaurantCreated(restaurantID, givenMenu()),
			RestaurantMenuChanged{RestaurantID: restaurantID, Menu: newMenu},
		)

		require.NotNil(t, state)
		assert.Equal(t, RestaurantView{RestaurantID: restaurantID, Name: "Test", Menu: newMenu}, *state)
	})

	t.Run("order placed keeps the state", func(t *testing.T) {
		state := &RestaurantView{RestaurantID: restaurantID, Name: "Test"}

		next := RestaurantViewOf().ComputeNewState(state, OrderPlaced{RestaurantID: restaurantID, OrderID: uuid.New()})

		assert.Same(t, state, next)
	})

	t.Run("menu changed without a restaurant", func(t *testing.T) {
		state := RestaurantViewOf().ComputeNewState(nil, RestaurantMenuChanged{RestaurantID: restaurantID, Menu: newMenu})

		assert.Nil(t, state)
	})
}

func Test_OrderView_Evolve(t *testing.T) {
	// arrange
	orderID := uuid.New()
	restaurantID := uuid.New()
	created := givenOrderCreated(orderID, restaurantID)

	// act
	state := OrderViewOf().ComputeNewState(
		OrderViewOf().InitialState(),
		created,
		OrderPrepared{OrderID: orderID, Status: OrderStatusPrepared},
	)

	// assert
	require.NotNil(t, state)
	assert.Equal(t, OrderView{
		OrderID:      orderID,
		RestaurantID: restaurantID,
		Status:       OrderStatusPrepared,
		LineItems:    created.LineItems,
	}, *state)
}

package eventstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ExpectedVersions_Expect(t *testing.T) {
	stream := NewStreamID("Restaurant", uuid.New())
	version := uuid.New()

	t.Run("records a new expectation", func(t *testing.T) {
		expected := ExpectedVersions{}

		require.NoError(t, expected.Expect(stream, version))
		assert.Equal(t, version, expected[stream])
	})

	t.Run("accepts the same expectation twice", func(t *testing.T) {
		expected := ExpectedVersions{}

		require.NoError(t, expected.Expect(stream, version))
		assert.NoError(t, expected.Expect(stream, version))
	})

	t.Run("rejects a diverging expectation", func(t *testing.T) {
		expected := ExpectedVersions{}

		require.NoError(t, expected.Expect(stream, uuid.Nil))
		assert.ErrorIs(t, expected.Expect(stream, version), ErrConcurrencyConflict)
		assert.Equal(t, uuid.Nil, expected[stream])
	})
}

func Test_VersionOf(t *testing.T) {
	assert.Equal(t, uuid.Nil, VersionOf(nil))

	first := StorableEvent{EventID: uuid.New()}
	last := StorableEvent{EventID: uuid.New()}
	assert.Equal(t, last.EventID, VersionOf(StorableEvents{first, last}))
}

func Test_StreamID_String(t *testing.T) {
	id := uuid.MustParse("e48d4d9e-403e-453f-b1ba-328e0ce23737")

	assert.Equal(t, "Restaurant/e48d4d9e-403e-453f-b1ba-328e0ce23737", NewStreamID("Restaurant", id).String())
}

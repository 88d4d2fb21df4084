package shell

import (
	"bytes"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/core"
)

const typeDiscriminator = "type"

var (
	// ErrUnknownEventType is returned when a payload names an event type the domain does not know.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrUnknownCommandType is returned when a payload names a command type the domain does not know.
	ErrUnknownCommandType = errors.New("unknown command type")

	// ErrEventTypeMismatch is returned when the stored event type and the payload's discriminator differ.
	ErrEventTypeMismatch = errors.New("event type does not match the payload's type discriminator")

	// ErrMissingTypeDiscriminator is returned when a command payload carries no type discriminator.
	ErrMissingTypeDiscriminator = errors.New("payload has no type discriminator")

	// ErrNotAnObject is returned when a command or event does not encode to a JSON object.
	ErrNotAnObject = errors.New("value does not encode to a JSON object")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var eventDecoders = map[string]func(payload []byte) (core.Event, error){
	core.RestaurantCreatedEventType:        decodeAs[core.Event, core.RestaurantCreated],
	core.RestaurantNotCreatedEventType:     decodeAs[core.Event, core.RestaurantNotCreated],
	core.RestaurantMenuChangedEventType:    decodeAs[core.Event, core.RestaurantMenuChanged],
	core.RestaurantMenuNotChangedEventType: decodeAs[core.Event, core.RestaurantMenuNotChanged],
	core.OrderPlacedEventType:              decodeAs[core.Event, core.OrderPlaced],
	core.OrderNotPlacedEventType:           decodeAs[core.Event, core.OrderNotPlaced],
	core.OrderCreatedEventType:             decodeAs[core.Event, core.OrderCreated],
	core.OrderNotCreatedEventType:          decodeAs[core.Event, core.OrderNotCreated],
	core.OrderPreparedEventType:            decodeAs[core.Event, core.OrderPrepared],
	core.OrderNotPreparedEventType:         decodeAs[core.Event, core.OrderNotPrepared],
}

var commandDecoders = map[string]func(payload []byte) (core.Command, error){
	core.CreateRestaurantCommandType:     decodeAs[core.Command, core.CreateRestaurant],
	core.ChangeRestaurantMenuCommandType: decodeAs[core.Command, core.ChangeRestaurantMenu],
	core.PlaceOrderCommandType:           decodeAs[core.Command, core.PlaceOrder],
	core.CreateOrderCommandType:          decodeAs[core.Command, core.CreateOrder],
	core.MarkOrderAsPreparedCommandType:  decodeAs[core.Command, core.MarkOrderAsPrepared],
}

// Codec encodes commands and events as JSON objects tagged with a "type" discriminator,
// e.g. {"type":"OrderPlaced","identifier":"...","order_identifier":"...","line_items":[...]}.
type Codec struct{}

// NewCodec creates a Codec.
func NewCodec() Codec {
	return Codec{}
}

// EncodeEvent encodes an event as tagged JSON.
func (Codec) EncodeEvent(event core.Event) ([]byte, error) {
	return encodeTagged(event.EventType(), event)
}

// DecodeEvent decodes a tagged JSON payload stored under eventType.
func (Codec) DecodeEvent(eventType string, payload []byte) (core.Event, error) {
	if tag := json.Get(payload, typeDiscriminator); tag.LastError() == nil && tag.ToString() != eventType {
		return nil, fmt.Errorf("%w: stored as %q, tagged as %q", ErrEventTypeMismatch, eventType, tag.ToString())
	}

	decode, ok := eventDecoders[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}

	return decode(payload)
}

// EncodeCommand encodes a command as tagged JSON.
func (Codec) EncodeCommand(command core.Command) ([]byte, error) {
	return encodeTagged(command.CommandType(), command)
}

// DecodeCommand decodes a tagged JSON command payload.
func (Codec) DecodeCommand(payload []byte) (core.Command, error) {
	tag := json.Get(payload, typeDiscriminator)
	if tag.LastError() != nil {
		return nil, ErrMissingTypeDiscriminator
	}

	decode, ok := commandDecoders[tag.ToString()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommandType, tag.ToString())
	}

	return decode(payload)
}

// DecodeCommands decodes a JSON array of tagged commands.
func (c Codec) DecodeCommands(payload []byte) ([]core.Command, error) {
	var raw []jsoniter.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	commands := make([]core.Command, 0, len(raw))

	for i, item := range raw {
		command, err := c.DecodeCommand(item)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}

		commands = append(commands, command)
	}

	return commands, nil
}

// encodeTagged marshals value and puts the type discriminator first into the resulting object.
func encodeTagged(typeName string, value any) ([]byte, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	if len(body) < 2 || body[0] != '{' {
		return nil, ErrNotAnObject
	}

	tag, err := json.Marshal(typeName)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + len(typeDiscriminator) + 4)
	buf.WriteString(`{"` + typeDiscriminator + `":`)
	buf.Write(tag)

	if fields := bytes.TrimSpace(body[1 : len(body)-1]); len(fields) > 0 {
		buf.WriteByte(',')
		buf.Write(fields)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func decodeAs[U any, T any](payload []byte) (U, error) {
	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		var zero U
		return zero, err
	}

	return any(value).(U), nil
}

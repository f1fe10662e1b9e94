// Package net is the exchange's TCP order-entry ingress: a minimal
// binary protocol for submitting PlaceOrder/CancelOrder commands,
// translated directly into domain.OrderCommand values for the engine.
// Acknowledgements, fills and book data never flow back over this
// connection — they are published asynchronously on the market-data
// bus, keyed by user id for private streams.
package net

import (
	"encoding/binary"
	"errors"

	"clob/internal/domain"
)

// MessageType identifies the wire message that follows the 2-byte
// header.
type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
)

const (
	headerLen = 2

	// newOrderFixedLen is everything in a NewOrder message before the
	// variable-length symbol: side(1) + orderType(1) + symbolLen(1) +
	// price(8) + quantity(8) + orderId(8) + userId(8).
	newOrderFixedLen = 1 + 1 + 1 + 8 + 8 + 8 + 8

	// cancelOrderFixedLen is orderId(8) + userId(8) + symbolLen(1)
	// before the variable-length symbol.
	cancelOrderFixedLen = 8 + 8 + 1
)

var (
	// ErrMessageTooShort is returned when a buffer doesn't contain a
	// complete message of its declared type.
	ErrMessageTooShort = errors.New("net: message too short")
	// ErrUnknownMessageType is returned for an unrecognized type header.
	ErrUnknownMessageType = errors.New("net: unknown message type")
)

// ParseCommand decodes a single wire message into an OrderCommand.
// Heartbeat messages decode successfully to a zero OrderCommand, which
// callers should treat as a no-op.
func ParseCommand(buf []byte) (domain.OrderCommand, error) {
	if len(buf) < headerLen {
		return domain.OrderCommand{}, ErrMessageTooShort
	}
	msgType := MessageType(binary.BigEndian.Uint16(buf[0:2]))
	body := buf[headerLen:]

	switch msgType {
	case Heartbeat:
		return domain.OrderCommand{}, nil
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	default:
		return domain.OrderCommand{}, ErrUnknownMessageType
	}
}

func parseNewOrder(body []byte) (domain.OrderCommand, error) {
	if len(body) < newOrderFixedLen {
		return domain.OrderCommand{}, ErrMessageTooShort
	}

	side := domain.Side(body[0])
	orderType := domain.OrderType(body[1])
	symbolLen := int(body[2])
	price := binary.BigEndian.Uint64(body[3:11])
	quantity := binary.BigEndian.Uint64(body[11:19])
	orderId := binary.BigEndian.Uint64(body[19:27])
	userId := binary.BigEndian.Uint64(body[27:35])

	if len(body) < newOrderFixedLen+symbolLen {
		return domain.OrderCommand{}, ErrMessageTooShort
	}
	symbol := string(body[newOrderFixedLen : newOrderFixedLen+symbolLen])

	return domain.OrderCommand{PlaceOrder: &domain.PlaceOrderCommand{
		OrderId:   orderId,
		UserId:    userId,
		Symbol:    symbol,
		Side:      side,
		OrderType: orderType,
		Quantity:  quantity,
		Price:     price,
	}}, nil
}

func parseCancelOrder(body []byte) (domain.OrderCommand, error) {
	if len(body) < cancelOrderFixedLen {
		return domain.OrderCommand{}, ErrMessageTooShort
	}

	orderId := binary.BigEndian.Uint64(body[0:8])
	userId := binary.BigEndian.Uint64(body[8:16])
	symbolLen := int(body[16])

	if len(body) < cancelOrderFixedLen+symbolLen {
		return domain.OrderCommand{}, ErrMessageTooShort
	}
	symbol := string(body[cancelOrderFixedLen : cancelOrderFixedLen+symbolLen])

	return domain.OrderCommand{CancelOrder: &domain.CancelOrderCommand{
		OrderId: orderId,
		UserId:  userId,
		Symbol:  symbol,
	}}, nil
}

// EncodeNewOrder is the client-side counterpart of parseNewOrder, used
// by cmd/exchangectl.
func EncodeNewOrder(cmd domain.PlaceOrderCommand) []byte {
	symbol := []byte(cmd.Symbol)
	buf := make([]byte, headerLen+newOrderFixedLen+len(symbol))

	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	buf[2] = byte(cmd.Side)
	buf[3] = byte(cmd.OrderType)
	buf[4] = byte(len(symbol))
	binary.BigEndian.PutUint64(buf[5:13], cmd.Price)
	binary.BigEndian.PutUint64(buf[13:21], cmd.Quantity)
	binary.BigEndian.PutUint64(buf[21:29], cmd.OrderId)
	binary.BigEndian.PutUint64(buf[29:37], cmd.UserId)
	copy(buf[headerLen+newOrderFixedLen:], symbol)
	return buf
}

// EncodeCancelOrder is the client-side counterpart of parseCancelOrder.
func EncodeCancelOrder(cmd domain.CancelOrderCommand) []byte {
	symbol := []byte(cmd.Symbol)
	buf := make([]byte, headerLen+cancelOrderFixedLen+len(symbol))

	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	binary.BigEndian.PutUint64(buf[2:10], cmd.OrderId)
	binary.BigEndian.PutUint64(buf[10:18], cmd.UserId)
	buf[18] = byte(len(symbol))
	copy(buf[headerLen+cancelOrderFixedLen:], symbol)
	return buf
}

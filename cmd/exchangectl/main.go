// Command exchangectl is a CLI client for the exchange: it sends
// PlaceOrder/CancelOrder wire messages over TCP and, optionally,
// subscribes to a user's private order-update channel on the bus to
// watch acknowledgements, fills and rejects arrive.
package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"clob/internal/domain"
	clobnet "clob/internal/net"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9443", "address of the exchange's order-entry listener")
	busAddr := flag.String("bus", "127.0.0.1:6379", "address of the Redis bus, for -action watch")
	userId := flag.Uint64("user", 0, "user id placing or cancelling the order")
	action := flag.String("action", "place", "action to perform: place, cancel, watch")

	symbol := flag.String("symbol", "BTC-USD", "trading symbol")
	sideStr := flag.String("side", "buy", "buy or sell")
	typeStr := flag.String("type", "limit", "limit or market")
	price := flag.Uint64("price", 0, "limit price, in ticks")
	qty := flag.Uint64("qty", 0, "quantity, in ticks")
	orderId := flag.Uint64("order-id", 0, "order id (place: assigned by caller; cancel: target order)")

	flag.Parse()

	if *userId == 0 {
		fmt.Println("Error: -user is required.")
		flag.Usage()
		os.Exit(1)
	}

	switch strings.ToLower(*action) {
	case "place":
		id := *orderId
		if id == 0 {
			id = newClientOrderId()
		}
		if err := sendPlaceOrder(*serverAddr, *userId, id, *symbol, *sideStr, *typeStr, *price, *qty); err != nil {
			log.Fatalf("place order failed: %v", err)
		}
		fmt.Printf("-> sent %s %s order %d: %s qty=%d price=%d\n", strings.ToUpper(*typeStr), strings.ToUpper(*sideStr), id, *symbol, *qty, *price)
	case "cancel":
		if err := sendCancelOrder(*serverAddr, *userId, *orderId, *symbol); err != nil {
			log.Fatalf("cancel order failed: %v", err)
		}
		fmt.Printf("-> sent cancel for order %d\n", *orderId)
	case "watch":
		watchOrderUpdates(*busAddr, *userId)
	default:
		log.Fatalf("unknown action: %s", *action)
	}
}

// newClientOrderId mints an order id for callers that don't track their
// own sequence. The wire protocol carries order ids as plain uint64s, so
// a fresh UUID is folded down to 64 bits rather than sent as-is.
func newClientOrderId() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[:8])
}

func sendPlaceOrder(addr string, userId, orderId uint64, symbol, sideStr, typeStr string, price, qty uint64) error {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	side := domain.Buy
	if strings.ToLower(sideStr) == "sell" {
		side = domain.Sell
	}
	orderType := domain.Limit
	if strings.ToLower(typeStr) == "market" {
		orderType = domain.Market
	}

	buf := clobnet.EncodeNewOrder(domain.PlaceOrderCommand{
		OrderId:   orderId,
		UserId:    userId,
		Symbol:    symbol,
		Side:      side,
		OrderType: orderType,
		Quantity:  qty,
		Price:     price,
	})
	_, err = conn.Write(buf)
	return err
}

func sendCancelOrder(addr string, userId, orderId uint64, symbol string) error {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	buf := clobnet.EncodeCancelOrder(domain.CancelOrderCommand{
		OrderId: orderId,
		UserId:  userId,
		Symbol:  symbol,
	})
	_, err = conn.Write(buf)
	return err
}

// watchOrderUpdates subscribes to this user's private channel and
// prints every OrderUpdate as it arrives, until interrupted.
func watchOrderUpdates(busAddr string, userId uint64) {
	client := redis.NewClient(&redis.Options{Addr: busAddr})
	defer client.Close()

	channel := "market:order:user:" + strconv.FormatUint(userId, 10)
	sub := client.Subscribe(context.Background(), channel)
	defer sub.Close()

	fmt.Printf("watching %s (Ctrl+C to exit)\n", channel)
	for msg := range sub.Channel() {
		var update domain.OrderUpdate
		if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
			log.Printf("error decoding order update: %v", err)
			continue
		}
		fmt.Printf("%+v\n", update)
	}
}

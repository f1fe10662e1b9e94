package net

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/domain"
	"clob/internal/workerpool"
)

const (
	maxRecvSize        = 4 * 1024
	defaultWorkers     = 10
	defaultConnTimeout = time.Second
)

// Server is the TCP order-entry ingress: it accepts connections, reads
// one wire message per read, decodes it, and forwards the resulting
// OrderCommand onto the engine's command channel. It holds no
// per-client session state — order acknowledgements are not written
// back on this connection, they are delivered by the publisher fan-out
// over the market-data bus.
type Server struct {
	addr     string
	commands chan<- domain.OrderCommand
	pool     *workerpool.Pool
}

// New builds a Server listening on addr and forwarding decoded commands
// onto commands.
func New(addr string, commands chan<- domain.OrderCommand, workers int) *Server {
	if workers <= 0 {
		workers = defaultWorkers
	}
	s := &Server{addr: addr, commands: commands}
	s.pool = workerpool.New(workers, workers*4, s.handleConnection)
	return s
}

// Run starts the listener and worker pool under t.
func (s *Server) Run(t *tomb.Tomb) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("net: listen %s: %w", s.addr, err)
	}
	defer listener.Close()

	s.pool.Run(t)

	t.Go(func() error {
		<-t.Dying()
		return listener.Close()
	})

	log.Info().Str("addr", s.addr).Msg("order-entry listener running")
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-t.Dying():
				return nil
			default:
				log.Error().Err(err).Msg("error accepting connection")
				continue
			}
		}
		s.pool.AddTask(conn)
	}
}

func (s *Server) handleConnection(task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return fmt.Errorf("net: unexpected task type %T", task)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Msg("failed setting connection deadline")
		return nil
	}

	buf := make([]byte, maxRecvSize)
	n, err := conn.Read(buf)
	if err != nil {
		log.Error().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("error reading connection")
		return nil
	}

	cmd, err := ParseCommand(buf[:n])
	if err != nil {
		log.Error().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("error parsing message")
		return nil
	}
	if cmd.PlaceOrder == nil && cmd.CancelOrder == nil && cmd.GetDepth == nil {
		return nil // heartbeat
	}

	s.commands <- cmd
	return nil
}

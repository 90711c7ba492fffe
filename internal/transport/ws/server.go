// Package ws serves one table hub over websocket connections.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"est8.games/internal/protocol"
	"est8.games/internal/sim/session"
)

// Table is the channel surface of a session.Hub.
type Table interface {
	Join() chan<- session.JoinRequest
	Inbox() chan<- session.ActEnvelope
	Leave() chan<- string
}

type Server struct {
	table Table
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(t Table, logger *log.Logger) *Server {
	return &Server{
		table: t,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, out := s.handshake(conn)
		if playerID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				continue
			}
			if err := protocol.Validate(protocol.TypeAct, msg); err != nil {
				s.reject(out, msg, err)
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				s.reject(out, msg, errBadVersion)
				continue
			}
			s.table.Inbox() <- session.ActEnvelope{PlayerID: playerID, Act: act}
		}

		s.table.Leave() <- playerID
	}
}

type protoError string

func (e protoError) Error() string { return string(e) }

const errBadVersion = protoError("bad protocol_version")

// reject answers a malformed ACT without involving the hub.
func (s *Server) reject(out chan []byte, raw []byte, err error) {
	var seq struct {
		Seq uint64 `json:"seq"`
	}
	_ = json.Unmarshal(raw, &seq)
	b, _ := json.Marshal(protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		AckFor:          seq.Seq,
		Code:            protocol.ErrProtoBadRequest,
		Message:         err.Error(),
	})
	select {
	case out <- b:
	default:
	}
}

func (s *Server) handshake(conn *websocket.Conn) (playerID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}
	if err := protocol.Validate(protocol.TypeHello, msg); err != nil {
		closeWith(conn, "bad HELLO")
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}
	if hello.PlayerName == "" {
		hello.PlayerName = "player"
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	respCh := make(chan session.JoinResponse, 1)
	s.table.Join() <- session.JoinRequest{Name: hello.PlayerName, Out: out, Resp: respCh}
	resp := <-respCh

	if resp.Code != "" {
		s.printf("join %q refused: %s", hello.PlayerName, resp.Code)
		_ = writeJSON(conn, protocol.ResultMsg{
			Type:            protocol.TypeResult,
			ProtocolVersion: protocol.Version,
			Code:            resp.Code,
			Message:         resp.Message,
		})
		closeWith(conn, resp.Code)
		return "", nil
	}
	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.table.Leave() <- resp.Welcome.PlayerID
		return "", nil
	}
	return resp.Welcome.PlayerID, out
}

func (s *Server) printf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

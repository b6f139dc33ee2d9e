package server

import (
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"bitcore/internal/dispatch"
	"bitcore/internal/logchannel"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

const (
	wsMaxPayloadBytes   = 1 << 20
	wsWriteWait         = 10 * time.Second
	wsPongWait          = 60 * time.Second
	wsPingInterval      = 25 * time.Second
	wsCommandQueueDepth = 32

	// defaultPromptTimeout bounds an interactive prompt round-trip.
	defaultPromptTimeout = 2 * time.Minute
)

// clientSession owns one WebSocket connection: its read loop, its write
// loop, the per-connection FIFO dispatch queue, and the pending prompt
// table. The session record lives exactly as long as the connection.
type clientSession struct {
	dispatcher *dispatch.Dispatcher
	conn       *websocket.Conn
	session    *bittypes.Session
	logger     *logchannel.Logger

	send    chan []byte
	queue   chan Frame
	closing atomic.Bool
	done    chan struct{}

	promptMu sync.Mutex
	prompts  map[string]chan string
}

func newClientSession(dispatcher *dispatch.Dispatcher, conn *websocket.Conn) *clientSession {
	session := bittypes.NewSession(bittypes.DefaultUser())
	return &clientSession{
		dispatcher: dispatcher,
		conn:       conn,
		session:    session,
		logger:     logchannel.Source("server.session").WithMeta(map[string]any{"session": session.ID}),
		send:       make(chan []byte, 64),
		queue:      make(chan Frame, wsCommandQueueDepth),
		done:       make(chan struct{}),
		prompts:    make(map[string]chan string),
	}
}

// run drives the session until the connection drops. Dispatches are
// serialised on the dispatch loop; reads and writes each get their own
// goroutine so a slow handler cannot stall prompt responses.
func (s *clientSession) run() {
	defer s.close()

	go s.writeLoop()
	go s.dispatchLoop()
	s.readLoop()
}

func (s *clientSession) close() {
	if s.closing.Swap(true) {
		return
	}
	close(s.done)
	_ = s.conn.Close()
	s.logger.Info("session closed", nil)
}

func (s *clientSession) readLoop() {
	s.conn.SetReadLimit(wsMaxPayloadBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.safeSend(errorFrame("invalid frame"))
			continue
		}

		switch frame.Type {
		case "command":
			select {
			case s.queue <- frame:
			default:
				s.safeSend(errorFrame("command queue full"))
			}
		case "prompt_response":
			s.resolvePrompt(frame.ID, frame.Value)
		default:
			s.safeSend(errorFrame("unsupported frame type: " + frame.Type))
		}
	}
}

func (s *clientSession) writeLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatchLoop serialises command execution: one dispatch completes,
// acknowledgement included, before the next begins.
func (s *clientSession) dispatchLoop() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.queue:
			s.dispatchFrame(frame)
		}
	}
}

// dispatchFrame executes one inbound command frame. In chat mode, plain
// text is routed through /chat so the browser terminal behaves like a
// conversation.
func (s *clientSession) dispatchFrame(frame Frame) {
	opts := dispatch.Options{
		Session:     s.session,
		IsWebSocket: true,
		Output: func(value any) {
			s.safeSend(outputFrame(dispatch.Serialize(value)))
		},
		Error: func(value any) {
			s.safeSend(errorFrame(dispatch.Serialize(value)))
		},
		WSPrompt: s.wsPrompt,
		Acknowledge: func(keepDisabled bool) {
			s.safeSend(ackFrame(keepDisabled))
		},
		ModeChange: func(mode, prompt string) {
			s.session.Mode = mode
			s.safeSend(modeChangeFrame(mode, prompt))
		},
	}
	opts.Telemetry = services.NewSinkTelemetry(opts.Output, "server.telemetry")

	if frame.Line == "" && frame.Name != "" {
		parsed := &bittypes.ParsedCommand{
			Name:           strings.ToLower(strings.TrimPrefix(frame.Name, "/")),
			PositionalArgs: frame.PositionalArgs,
			Flags:          parseStructuredFlags(frame.Flags),
		}
		opts.Action = frame.Action
		s.dispatcher.Dispatch(parsed, opts)
		return
	}

	line := frame.Line
	if s.session.Mode == "chat" && !strings.HasPrefix(strings.TrimSpace(line), "/") {
		line = "/chat " + line
	}
	s.dispatcher.DispatchLine(line, opts)
}

// safeSend marshals and queues a frame for the write loop. Frames are
// dropped once the session enters the closing state or when the client
// cannot drain the buffer; it never blocks a handler and never errors.
func (s *clientSession) safeSend(frame Frame) {
	if s.closing.Load() {
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		s.logger.Error("cannot marshal frame", map[string]any{"error": err.Error()})
		return
	}
	select {
	case s.send <- data:
	case <-s.done:
	}
}

// wsPrompt round-trips an interactive prompt to the client. Expiry or
// disconnect resolves to the empty string with no error.
func (s *clientSession) wsPrompt(req bittypes.PromptRequest) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultPromptTimeout
	}

	id := uuid.NewString()
	answer := make(chan string, 1)
	s.promptMu.Lock()
	s.prompts[id] = answer
	s.promptMu.Unlock()
	defer func() {
		s.promptMu.Lock()
		delete(s.prompts, id)
		s.promptMu.Unlock()
	}()

	s.safeSend(Frame{
		Type:      "prompt",
		ID:        id,
		Text:      req.Text,
		Hidden:    req.Hidden,
		TimeoutMs: timeout.Milliseconds(),
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value := <-answer:
		return value, nil
	case <-timer.C:
		s.logger.Warn("prompt timed out", map[string]any{"prompt": id})
		return "", nil
	case <-s.done:
		return "", nil
	}
}

func (s *clientSession) resolvePrompt(id, value string) {
	s.promptMu.Lock()
	answer, ok := s.prompts[id]
	delete(s.prompts, id)
	s.promptMu.Unlock()
	if ok {
		answer <- value
	}
}

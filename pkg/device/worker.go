package device

import (
	"context"
	"encoding/binary"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	canbadger "github.com/noelscher/canbadger-go"
)

// StatusEvent is posted by the worker on its status queue to report
// connection lifecycle changes to the device handle.
type StatusEvent int

const (
	StatusConnected StatusEvent = iota
	StatusShutdown
)

const (
	minListenPort = 10000
	maxListenPort = 13369
)

// Worker owns the UDP rendezvous and the TCP steady-state connection to one
// device. It runs its reader and writer as independent goroutines sharing
// one net.Conn under a mutex, mirroring the virtual CAN bus's
// handleReception/Send split, generalized to a bidirectional framed stream
// instead of one frame-at-a-time RPC.
type Worker struct {
	deviceIP    string
	controlPort int

	Command *Queue[canbadger.WireMessage]
	Data    *Queue[canbadger.WireMessage]
	Ack     *Queue[canbadger.WireMessage]
	Status  *Queue[StatusEvent]

	mu        sync.Mutex
	conn      net.Conn
	listener  net.Listener
	abort     chan struct{}
	abortOnce sync.Once
	wg        sync.WaitGroup
}

// NewWorker builds a worker targeting a device at deviceIP, rendezvousing on
// controlPort. No default is applied here; New substitutes ControlPort for a
// zero port before building its worker.
func NewWorker(deviceIP string, controlPort int) *Worker {
	return &Worker{
		deviceIP:    deviceIP,
		controlPort: controlPort,
		Command:     NewQueue[canbadger.WireMessage](64),
		Data:        NewQueue[canbadger.WireMessage](256),
		Ack:         NewQueue[canbadger.WireMessage](64),
		Status:      NewQueue[StatusEvent](8),
		abort:       make(chan struct{}),
	}
}

// reuseAddrControl sets SO_REUSEADDR on the listening socket so a worker
// restarted right after a Reset doesn't fail to bind while the old port is
// in TIME_WAIT.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// Start binds a TCP listener on a random port, sends the UDP rendezvous
// datagram, and blocks until the device connects back or timeout elapses.
func (w *Worker) Start(timeout time.Duration) error {
	lc := net.ListenConfig{Control: reuseAddrControl}

	var listener net.Listener
	var err error
	port := minListenPort + rand.Intn(maxListenPort-minListenPort+1)
	listener, err = lc.Listen(context.Background(), "tcp4", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		log.Errorf("[WORKER] failed to listen on port %d: %v", port, err)
		return err
	}
	w.listener = listener
	log.Debugf("[WORKER] listening on %s", listener.Addr())

	if err := w.sendConnectDatagram(port); err != nil {
		listener.Close()
		return err
	}

	type acceptResult struct {
		conn net.Conn
		err  error
	}
	accepted := make(chan acceptResult, 1)
	go func() {
		conn, err := listener.Accept()
		accepted <- acceptResult{conn, err}
	}()

	select {
	case res := <-accepted:
		if res.err != nil {
			log.Errorf("[WORKER] accept failed: %v", res.err)
			return res.err
		}
		w.conn = res.conn
	case <-time.After(timeout):
		listener.Close()
		return ErrConnectTimeout
	}

	w.Status.Put(StatusConnected)
	w.wg.Add(2)
	go w.readLoop()
	go w.writeLoop()
	return nil
}

func (w *Worker) sendConnectDatagram(tcpPort int) error {
	raddr := &net.UDPAddr{IP: net.ParseIP(w.deviceIP), Port: w.controlPort}
	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, uint32(tcpPort))
	msg := canbadger.NewWireMessage(canbadger.MsgConnect, canbadger.ActionNoType, payload)
	_, err = conn.Write(msg.Encode())
	return err
}

func (w *Worker) readLoop() {
	defer w.wg.Done()
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)

	for {
		select {
		case <-w.abort:
			return
		default:
		}

		w.mu.Lock()
		_ = w.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, err := w.conn.Read(chunk)
		w.mu.Unlock()

		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			log.Warnf("[WORKER][RX] connection closed: %v", err)
			w.triggerAbort()
			return
		}

		buf = append(buf, chunk[:n]...)
		for {
			msg, consumed, derr := canbadger.Decode(buf)
			if derr != nil {
				break
			}
			buf = buf[consumed:]
			w.dispatch(msg)
		}
	}
}

func (w *Worker) dispatch(msg canbadger.WireMessage) {
	switch msg.MsgType {
	case canbadger.MsgAck, canbadger.MsgNack:
		w.Ack.Put(msg)
	default:
		w.Data.Put(msg)
	}
}

func (w *Worker) writeLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.abort:
			return
		case msg := <-w.Command.ch:
			if msg.MsgType == canbadger.MsgConnect {
				log.Warnf("[WORKER][TX] dropping CONNECT sent over an established connection")
				continue
			}
			w.mu.Lock()
			_ = w.conn.SetWriteDeadline(time.Now().Add(time.Second))
			_, err := w.conn.Write(msg.Encode())
			w.mu.Unlock()
			if err != nil {
				log.Errorf("[WORKER][TX] write failed: %v", err)
				w.triggerAbort()
				return
			}
			if msg.MsgType == canbadger.MsgAction && msg.ActionType == canbadger.ActionReset {
				w.triggerAbort()
				return
			}
		}
	}
}

func (w *Worker) triggerAbort() {
	w.abortOnce.Do(func() {
		close(w.abort)
		w.mu.Lock()
		if w.conn != nil {
			w.conn.Close()
		}
		if w.listener != nil {
			w.listener.Close()
		}
		w.mu.Unlock()
		w.Status.Put(StatusShutdown)
	})
}

// Stop tears the worker down and waits for its goroutines to exit.
func (w *Worker) Stop() {
	w.triggerAbort()
	w.wg.Wait()
}

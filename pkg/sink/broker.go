package sink

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/ja7ad/sonar/pkg/rng"
)

// Fatal is posted to FatalEvents when the broker connection fails
// unrecoverably; the control loop treats this as a shutdown trigger.
type Fatal struct {
	Err error
}

// BrokerSink owns the broker connection and a FIFO backlog on a dedicated
// goroutine. Each inbound record arms a one-shot jitter timer if one isn't
// already armed; when it fires, the whole backlog is flushed in order.
type BrokerSink struct {
	conn  *nats.Conn
	topic string

	mu      sync.Mutex
	backlog []pendingRecord
	armed   bool

	rng *rng.Xorshift32

	inbound chan Record
	done    chan struct{}

	FatalEvents chan Fatal
}

type pendingRecord struct {
	rec   Record
	id    string
	stamp time.Time
}

// NewBrokerSink dials host and starts the producer goroutine. sendingWindow
// bounds the jitter in seconds.
func NewBrokerSink(host, topic string, sendingWindowSec uint32) (*BrokerSink, error) {
	conn, err := nats.Connect(host)
	if err != nil {
		return nil, err
	}
	s := &BrokerSink{
		conn:        conn,
		topic:       topic,
		rng:         rng.New(uint32(time.Now().UnixNano())),
		inbound:     make(chan Record, 256),
		done:        make(chan struct{}),
		FatalEvents: make(chan Fatal, 1),
	}
	go s.run(sendingWindowSec)
	return s, nil
}

func (s *BrokerSink) Post(rec Record) error {
	select {
	case s.inbound <- rec:
		return nil
	case <-s.done:
		return nil
	}
}

func (s *BrokerSink) Stop() {
	close(s.done)
	s.flush()
	s.conn.Close()
}

func (s *BrokerSink) run(sendingWindowSec uint32) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case rec, ok := <-s.inbound:
			if !ok {
				return
			}
			s.mu.Lock()
			s.backlog = append(s.backlog, pendingRecord{rec: rec, id: uuid.NewString(), stamp: rec.Timestamp})
			if !s.armed {
				s.armed = true
				jitter := time.Duration(s.rng.Mod(sendingWindowSec+1)) * time.Second
				timer = time.NewTimer(jitter)
				timerC = timer.C
			}
			s.mu.Unlock()
		case <-timerC:
			s.mu.Lock()
			s.armed = false
			s.mu.Unlock()
			s.flush()
		case <-s.done:
			return
		}
	}
}

// flush synchronously attempts delivery of the whole backlog, in order, and
// clears it; deliverOne appends records whose publish failed transiently
// back onto the backlog, so they go out with a later flush.
func (s *BrokerSink) flush() {
	s.mu.Lock()
	batch := s.backlog
	s.backlog = nil
	s.mu.Unlock()

	for _, p := range batch {
		s.deliverOne(p)
	}
}

func (s *BrokerSink) deliverOne(p pendingRecord) {
	err := s.conn.Publish(s.topic+"."+p.rec.Tag, p.rec.Payload)
	class := classify(err, p.stamp)
	switch class {
	case deliverySuccess, deliveryReject, deliveryTimeout:
		// dropped either way: success needs no further action, reject and
		// timeout are both terminal for this record.
	case deliveryTransient:
		s.mu.Lock()
		s.backlog = append(s.backlog, p)
		s.mu.Unlock()
	case deliveryFatal:
		select {
		case s.FatalEvents <- Fatal{Err: err}:
		default:
		}
	}
}

type deliveryClass int

const (
	deliverySuccess deliveryClass = iota
	deliveryTransient
	deliveryTimeout
	deliveryReject
	deliveryFatal
)

// classify maps a publish error (and record age) onto the delivery outcome
// taxonomy: success, transient (retry), timeout (drop if older
// than 30 minutes), reject (drop immediately), fatal (terminate producer).
func classify(err error, stamp time.Time) deliveryClass {
	if err == nil {
		return deliverySuccess
	}
	if time.Since(stamp) > 30*time.Minute {
		return deliveryTimeout
	}
	switch err {
	case nats.ErrConnectionClosed, nats.ErrConnectionDraining:
		return deliveryFatal
	case nats.ErrNoResponders:
		return deliveryReject
	default:
		return deliveryTransient
	}
}

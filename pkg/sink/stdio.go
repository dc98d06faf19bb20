package sink

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// StdioSink writes each record as a line-delimited JSON envelope to an
// output writer; a companion goroutine reads an input reader for control
// messages of the form "<topic> <key> <value...>" and forwards matching
// ones to Messages.
type StdioSink struct {
	clientID     string
	controlTopic string
	out          io.Writer
	mu           sync.Mutex

	Messages chan ControlMessage
}

// NewStdioSink starts the control-message reader goroutine over in and
// returns a sink that writes to out.
func NewStdioSink(clientID, controlTopic string, in io.Reader, out io.Writer) *StdioSink {
	s := &StdioSink{
		clientID:     clientID,
		controlTopic: controlTopic,
		out:          out,
		Messages:     make(chan ControlMessage, 16),
	}
	go s.readControl(in)
	return s
}

func (s *StdioSink) Post(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "{\"topic\":%q,\"key\":%q,\"client\":%q,\"value\":%s}\n",
		rec.Tag, rec.Key, s.clientID, rec.Payload)
	return err
}

// Stop does not attempt to kill the control-reader goroutine; like the
// original, there's no clean signal to interrupt a blocking stdin read, and
// the process is exiting anyway.
func (s *StdioSink) Stop() {}

func (s *StdioSink) readControl(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != s.controlTopic {
			continue
		}
		key := fields[1]
		value := strings.Join(fields[2:], " ")
		s.Messages <- ControlMessage{Key: key, Value: value}
	}
}

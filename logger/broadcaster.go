package logger

import (
	"io"
	"os"
	"sync"
)

// Broadcaster is an io.Writer that copies every log line to an underlying
// writer and to all subscribed channels. The admin log websocket is the
// only subscriber.
type Broadcaster struct {
	out         io.Writer
	mu          sync.Mutex
	subscribers map[chan string]struct{}
}

var Instance = NewBroadcaster(os.Stdout)

func NewBroadcaster(out io.Writer) *Broadcaster {
	return &Broadcaster{
		out:         out,
		subscribers: make(map[chan string]struct{}),
	}
}

func (b *Broadcaster) Write(p []byte) (n int, err error) {
	n, err = b.out.Write(p)

	msg := string(p)
	b.mu.Lock()
	for ch := range b.subscribers {
		// a subscriber that is not keeping up drops lines
		select {
		case ch <- msg:
		default:
		}
	}
	b.mu.Unlock()

	return n, err
}

func (b *Broadcaster) Subscribe() chan string {
	ch := make(chan string, 100)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan string) {
	b.mu.Lock()
	_, ok := b.subscribers[ch]
	delete(b.subscribers, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

func GetWriter() io.Writer {
	return Instance
}

package hub

import (
	"net"
	"sync"

	"github.com/yanun0323/logs"
)

// channel owns one broadcast stream's subscriber set.
type channel struct {
	name string
	mu   sync.Mutex
	subs map[net.Conn]struct{}
}

func newChannel(name string) *channel {
	return &channel{name: name, subs: make(map[net.Conn]struct{})}
}

// add registers a subscriber connection.
func (c *channel) add(conn net.Conn) {
	c.mu.Lock()
	c.subs[conn] = struct{}{}
	total := len(c.subs)
	c.mu.Unlock()
	logs.Infof("%s subscriber connected: %s (total %d)", c.name, conn.RemoteAddr(), total)
}

func (c *channel) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// broadcast writes payload to every subscriber. A failed send prunes
// only that subscriber. The set lock is not held during writes.
func (c *channel) broadcast(payload []byte) (delivered, pruned int) {
	c.mu.Lock()
	conns := make([]net.Conn, 0, len(c.subs))
	for conn := range c.subs {
		conns = append(conns, conn)
	}
	c.mu.Unlock()

	for _, conn := range conns {
		if err := writeFull(conn, payload); err != nil {
			c.remove(conn)
			logs.Warnf("%s subscriber dropped: %s: %v", c.name, conn.RemoteAddr(), err)
			pruned++
			continue
		}
		delivered++
	}
	return delivered, pruned
}

func (c *channel) remove(conn net.Conn) {
	c.mu.Lock()
	delete(c.subs, conn)
	c.mu.Unlock()
	_ = conn.Close()
}

// closeAll disconnects every subscriber and empties the set.
func (c *channel) closeAll() {
	c.mu.Lock()
	conns := make([]net.Conn, 0, len(c.subs))
	for conn := range c.subs {
		conns = append(conns, conn)
	}
	c.subs = make(map[net.Conn]struct{})
	c.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}

func writeFull(conn net.Conn, buf []byte) error {
	for len(buf) > 0 {
		n, err := conn.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

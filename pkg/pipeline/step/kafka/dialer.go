package kafka

import (
	"fmt"
	"net"

	"github.com/IBM/sarama"
	"golang.org/x/net/proxy"
)

// sendBufferDialer applies send.buffer.bytes to every broker connection.
// sarama has no socket buffer option, so it is installed as the Net.Proxy dialer.
type sendBufferDialer struct {
	dialer     net.Dialer
	sendBuffer int
}

var _ proxy.Dialer = (*sendBufferDialer)(nil)

func newSendBufferDialer(conf *sarama.Config, sendBuffer int) *sendBufferDialer {
	return &sendBufferDialer{
		dialer: net.Dialer{
			Timeout:   conf.Net.DialTimeout,
			KeepAlive: conf.Net.KeepAlive,
			LocalAddr: conf.Net.LocalAddr,
		},
		sendBuffer: sendBuffer,
	}
}

func (d *sendBufferDialer) Dial(network, addr string) (net.Conn, error) {
	conn, err := d.dialer.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetWriteBuffer(d.sendBuffer); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set send buffer on %s: %w", addr, err)
		}
	}
	return conn, nil
}

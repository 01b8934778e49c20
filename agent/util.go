package agent

import (
	"net"
	"strconv"
	"strings"

	"github.com/curol/agentnet/httpwire"
)

func parseListenAddr(addr string) httpwire.ListenAddress {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return httpwire.ListenAddress{}
	}
	port, _ := strconv.ParseUint(portStr, 10, 16)
	return httpwire.ListenAddress{Host: host, Port: uint16(port)}
}

func isClosedListener(err error) bool {
	return strings.Contains(err.Error(), "use of closed network connection")
}

package util

import (
	"net"
	"strconv"
)

// HostPort joins host and port, bracketing IPv6 literals.
func HostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// ValidPort reports whether p fits a TCP port.
func ValidPort(p int) bool { return p > 0 && p <= 65535 }

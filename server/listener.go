package server

import (
	"fmt"
	"net"

	"github.com/mdlayher/vsock"
)

// Listen opens the stream listener. network is "tcp" (address is host:port)
// or "vsock" (the server listens on vsockPort of the local context ID).
func Listen(network, address string, vsockPort uint32) (net.Listener, error) {
	switch network {
	case "tcp", "":
		listener, err := net.Listen("tcp", address)
		if err != nil {
			return nil, fmt.Errorf("failed to create tcp listener on %s: %w", address, err)
		}
		return listener, nil
	case "vsock":
		listener, err := vsock.Listen(vsockPort, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create vsock listener on port %d: %w", vsockPort, err)
		}
		return listener, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}

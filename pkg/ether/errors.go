package ether

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrConnectivity marks failures to reach the node at all: refused
	// connections, DNS errors, timeouts.
	//
	ErrConnectivity = errors.New("connectivity error")

	// ErrProtocol marks replies that could not be used: JSON-RPC error
	// objects, non-2xx HTTP statuses, undecodable results.
	//
	ErrProtocol = errors.New("protocol error")
)

// classify wraps err with exactly one of ErrConnectivity or ErrProtocol so
// that callers can tell them apart with errors.Is while keeping the original
// cause in the chain.
//
func classify(method string, err error) error {
	if err == nil {
		return nil
	}

	var (
		rpcErr  rpc.Error
		httpErr rpc.HTTPError
		netErr  net.Error
	)

	switch {
	case errors.As(err, &rpcErr), errors.As(err, &httpErr):
		return fmt.Errorf("%s: %w: %w", method, ErrProtocol, err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr):
		return fmt.Errorf("%s: %w: %w", method, ErrConnectivity, err)
	default:
		return fmt.Errorf("%s: %w: %w", method, ErrProtocol, err)
	}
}

package gateway

import "context"

//go:generate mockgen -source=dispatcher.go -destination=mocks/dispatcher.go -package=mocks

// Dispatcher sends one command to a backend service and decodes the reply.
// Satisfied by rpc.Client; mocked in handler tests.
type Dispatcher interface {
	Send(ctx context.Context, service, command string, payload, reply any) error
}

// Logical service names resolved by the dispatcher.
const (
	MupService   = "mup-service"
	ZavodService = "zavod-service"
)

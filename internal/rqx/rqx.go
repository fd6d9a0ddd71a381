package rqx

import (
	"context"
	"os"

	"github.com/oklog/ulid/v2"
)

// RequestContext identifies a single invocation of the converter.
type RequestContext struct {
	Ctx    context.Context
	RunID  ulid.ULID
	Client Client
}

type Client struct {
	Type     string
	Hostname string
	Version  string
}

// New starts a request context for a fresh run.
func New(ctx context.Context, clientType, version string) *RequestContext {
	hostname, _ := os.Hostname()
	return &RequestContext{
		Ctx:   ctx,
		RunID: ulid.Make(),
		Client: Client{
			Type:     clientType,
			Hostname: hostname,
			Version:  version,
		},
	}
}

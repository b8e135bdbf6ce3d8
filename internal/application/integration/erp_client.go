package integration

import (
	"context"
	"net/url"

	"github.com/erp/connector/internal/infrastructure/sapb1"
)

// ERPClient is the transport contract the sync handlers need from the
// Service Layer client. Retry and session handling stay behind it.
type ERPClient interface {
	Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error)
	Post(ctx context.Context, endpoint string, body any) ([]byte, error)
	Patch(ctx context.Context, endpoint string, body any) ([]byte, error)
	Delete(ctx context.Context, endpoint string) ([]byte, error)
}

// Ensure the Service Layer client satisfies the contract
var _ ERPClient = (*sapb1.Client)(nil)

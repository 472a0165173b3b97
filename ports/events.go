package ports

import (
	"context"

	"github.com/layer-3/nftgate/core"
)

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishLogin(ctx context.Context, event core.LoginEvent) error
}

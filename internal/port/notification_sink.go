package port

import (
	"context"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
)

type NotificationSink interface {
	// Send delivers one notification, a non-nil error means it was not delivered
	Send(ctx context.Context, n domain.Notification) error
}

package repository

import (
	"context"

	"github.com/user/illust-harvester/internal/entity"
)

// Authenticator logs a browser session into the remote site.
type Authenticator interface {
	Login(ctx context.Context, b Browser, creds entity.Credentials) error
}

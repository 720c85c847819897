package ports

import (
	"context"

	"github.com/bnema/partage-cli/internal/domain"
)

// Signer returns domain.ErrNoSigner when nobody is signed in.
type Signer interface {
	Credentials(ctx context.Context) (domain.Credentials, error)
}

// CredentialStore persists the raw access token per network.
type CredentialStore interface {
	Load(ctx context.Context, network string) (string, error)
	Save(ctx context.Context, network string, token string) error
	Remove(ctx context.Context, network string) error
}

// CredentialLocator reports the backend that currently holds the token
// for network. Stores that are not locators hold it themselves.
type CredentialLocator interface {
	Locate(ctx context.Context, network string) (string, error)
}

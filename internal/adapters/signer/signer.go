// Package signer turns the stored node access token into signer
// credentials. Tokens are issued and verified by the node; the client only
// reads their claims.
package signer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/logging"
	"github.com/bnema/partage-cli/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	claimAccountID = "account_id"
	claimContextID = "context_id"
)

var errTokenExpired = errors.New("access token expired")

type Signer struct {
	store   ports.CredentialStore
	network string
	clock   ports.Clock
	log     *logrus.Entry
}

var _ ports.Signer = (*Signer)(nil)

func New(store ports.CredentialStore, network string, clock ports.Clock, log *logrus.Entry) *Signer {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Signer{
		store:   store,
		network: network,
		clock:   clock,
		log:     logging.OrDiscard(log).WithField("network", network),
	}
}

// Credentials loads the stored token. A missing, unreadable, malformed or
// expired token all mean nobody is signed in and wrap domain.ErrNoSigner.
func (s *Signer) Credentials(ctx context.Context) (domain.Credentials, error) {
	token, err := s.store.Load(ctx, s.network)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Credentials{}, ctxErr
		}
		if !errors.Is(err, domain.ErrCredentialNotFound) {
			s.log.WithError(err).Warn("access token unreadable")
		}
		return domain.Credentials{}, fmt.Errorf("%w: %w", domain.ErrNoSigner, err)
	}

	creds, err := ParseToken(token)
	if err != nil {
		s.log.WithError(err).Warn("stored access token rejected")
		return domain.Credentials{}, fmt.Errorf("%w: %w", domain.ErrNoSigner, err)
	}

	if creds.Expired(s.clock.Now()) {
		s.log.WithField("expired_at", creds.ExpiresAt).Info("access token expired")
		return domain.Credentials{}, fmt.Errorf("%w: %w", domain.ErrNoSigner, errTokenExpired)
	}

	return creds, nil
}

// Attach stores token after checking it names an account and is not
// already expired.
func (s *Signer) Attach(ctx context.Context, token string) (domain.Credentials, error) {
	token = strings.TrimSpace(token)

	creds, err := ParseToken(token)
	if err != nil {
		return domain.Credentials{}, err
	}
	if creds.Expired(s.clock.Now()) {
		return domain.Credentials{}, errTokenExpired
	}

	if err := s.store.Save(ctx, s.network, token); err != nil {
		return domain.Credentials{}, fmt.Errorf("save access token: %w", err)
	}

	return creds, nil
}

func (s *Signer) Detach(ctx context.Context) error {
	if err := s.store.Remove(ctx, s.network); err != nil {
		return fmt.Errorf("remove access token: %w", err)
	}
	return nil
}

// ParseToken reads sub (or account_id), context_id and exp without
// verifying the signature.
func ParseToken(token string) (domain.Credentials, error) {
	if token == "" {
		return domain.Credentials{}, errors.New("access token is empty")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return domain.Credentials{}, fmt.Errorf("parse access token: %w", err)
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read subject claim: %w", err)
	}
	if subject == "" {
		subject = stringClaim(claims, claimAccountID)
	}
	if subject == "" {
		return domain.Credentials{}, errors.New("access token names no account")
	}

	creds := domain.Credentials{
		AccountID:   domain.AccountID(subject),
		AccessToken: token,
		ContextID:   stringClaim(claims, claimContextID),
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp != nil {
		creds.ExpiresAt = exp.Time.UTC()
	}

	return creds, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	value, _ := claims[name].(string)
	return strings.TrimSpace(value)
}

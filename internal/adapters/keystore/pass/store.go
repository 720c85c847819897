package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/partage-cli/internal/domain"
	"github.com/bnema/partage-cli/internal/ports"
)

const (
	entryPrefix = "partage"

	// BackendName identifies this store when a chain reports where a token lives.
	BackendName = "pass"
)

var ErrUnavailable = errors.New("pass command unavailable")

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

// Store keeps access tokens in the user's password-store under
// partage/<network>/access_token.
type Store struct {
	run runFunc
}

var (
	_ ports.CredentialStore   = (*Store)(nil)
	_ ports.CredentialLocator = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{run: runPassCommand}
}

func (s *Store) Save(ctx context.Context, network string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	token, err := domain.CheckAccessToken(token)
	if err != nil {
		return fmt.Errorf("save access token for %q: %w", network, err)
	}

	entry := entryName(network)
	_, stderr, err := s.run(ctx, token+"\n", "insert", "-m", "-f", entry)
	if err != nil {
		return formatError("save", entry, err, stderr)
	}

	return nil
}

func (s *Store) Load(ctx context.Context, network string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry := entryName(network)
	stdout, stderr, err := s.run(ctx, "", "show", entry)
	if err != nil {
		if strings.Contains(stderr, "is not in the password store") {
			return "", fmt.Errorf("pass entry %q: %w", entry, domain.ErrCredentialNotFound)
		}
		return "", formatError("load", entry, err, stderr)
	}

	// multiline entries keep the token on the first line
	token, _, _ := strings.Cut(stdout, "\n")
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("pass entry %q: %w", entry, domain.ErrCredentialNotFound)
	}

	return token, nil
}

func (s *Store) Locate(ctx context.Context, network string) (string, error) {
	if _, err := s.Load(ctx, network); err != nil {
		return "", err
	}
	return BackendName, nil
}

func (s *Store) Remove(ctx context.Context, network string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := entryName(network)
	_, stderr, err := s.run(ctx, "", "rm", "-f", entry)
	if err != nil {
		return formatError("remove", entry, err, stderr)
	}

	return nil
}

func entryName(network string) string {
	return entryPrefix + "/" + strings.TrimSpace(network) + "/access_token"
}

func runPassCommand(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, entry string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, entry, err)
	}

	return fmt.Errorf("pass %s %q: %w: %s", op, entry, err, stderr)
}

// Package credentials stores Jira API tokens in the system keyring
// (macOS Keychain, Windows Credential Manager, Linux Secret Service).
package credentials

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/Sternrassler/jira-data-client/pkg/config"
)

// DefaultService is the keyring service name tokens are stored under.
const DefaultService = "jira-data-client"

var (
	// ErrNotFound is returned when no token is stored for an account.
	ErrNotFound = config.ErrTokenNotFound

	// ErrEmptyAccount is returned when the account email is empty.
	ErrEmptyAccount = errors.New("account email is required")
)

// Keyring reads and writes API tokens keyed by account email.
type Keyring struct {
	service string
}

// NewKeyring creates a Keyring using DefaultService.
func NewKeyring() *Keyring {
	return &Keyring{service: DefaultService}
}

// NewKeyringWithService creates a Keyring under a custom service name.
func NewKeyringWithService(service string) *Keyring {
	return &Keyring{service: service}
}

// Token returns the stored token for email.
// It satisfies config.TokenSource.
func (k *Keyring) Token(email string) (string, error) {
	account, err := normalize(email)
	if err != nil {
		return "", err
	}

	token, err := keyring.Get(k.service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w for %s", ErrNotFound, account)
	}
	if err != nil {
		return "", fmt.Errorf("reading keyring: %w", err)
	}
	return token, nil
}

// SetToken stores token for email, replacing any previous value.
func (k *Keyring) SetToken(email, token string) error {
	account, err := normalize(email)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is required")
	}
	if err := keyring.Set(k.service, account, token); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}

// DeleteToken removes the token for email.
func (k *Keyring) DeleteToken(email string) error {
	account, err := normalize(email)
	if err != nil {
		return err
	}

	err = keyring.Delete(k.service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w for %s", ErrNotFound, account)
	}
	if err != nil {
		return fmt.Errorf("deleting from keyring: %w", err)
	}
	return nil
}

// Description names the backing store for the current platform.
func (k *Keyring) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

func normalize(email string) (string, error) {
	account := strings.ToLower(strings.TrimSpace(email))
	if account == "" {
		return "", ErrEmptyAccount
	}
	return account, nil
}

package credentials

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ErrNotFound is returned when a provider has no value for a key.
var ErrNotFound = errors.New("credential not found")

// Provider defines the interface for credential providers
type Provider interface {
	GetCredential(key string) (string, error)
}

// EnvProvider retrieves credentials from environment variables
type EnvProvider struct{}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

func (p *EnvProvider) GetCredential(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

// DotenvProvider retrieves credentials from a .env file.
// The file is read once, when the provider is created.
type DotenvProvider struct {
	values map[string]string
}

// NewDotenvProvider reads the given .env files. A missing file yields an empty provider.
func NewDotenvProvider(filenames ...string) (*DotenvProvider, error) {
	values := make(map[string]string)
	for _, name := range filenames {
		env, err := godotenv.Read(name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		for k, v := range env {
			values[k] = v
		}
	}
	return &DotenvProvider{values: values}, nil
}

func (p *DotenvProvider) GetCredential(key string) (string, error) {
	value, ok := p.values[key]
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

// StaticProvider for testing with hardcoded credentials
type StaticProvider struct {
	credentials map[string]string
}

func NewStaticProvider(creds map[string]string) *StaticProvider {
	return &StaticProvider{
		credentials: creds,
	}
}

func (p *StaticProvider) GetCredential(key string) (string, error) {
	value, ok := p.credentials[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

// Chain asks each provider in turn and returns the first value found.
type Chain []Provider

func (c Chain) GetCredential(key string) (string, error) {
	for _, p := range c {
		value, err := p.GetCredential(key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, key)
}

// Lookup returns the first of keys that p can resolve.
// It is used for credentials that are known under several names.
func Lookup(p Provider, keys ...string) (string, error) {
	for _, key := range keys {
		value, err := p.GetCredential(key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %v", ErrNotFound, keys)
}

// Package export collects every record of an application and saves them as
// one JSON document.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Sternrassler/workshop-collector/pkg/sink"
	"github.com/go-playground/validator/v10"
)

const (
	// DefaultFilename is used when no output name is given.
	DefaultFilename = "workshopItems"

	// Extension is appended to names that lack it.
	Extension = ".json"
)

// Validation errors, checked in this order.
var (
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrMissingAppID    = errors.New("missing app id")
	ErrInvalidAppID    = errors.New("invalid app id")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrInvalidMinify   = errors.New("invalid minify value")
)

var validate = validator.New()

// Options are the raw export inputs as they arrive from flags or the
// environment.
type Options struct {
	APIKey   string
	AppID    string
	Filename string
	Minify   string
}

// Config is a validated export request.
type Config struct {
	APIKey      string `validate:"required"`
	AppID       uint32 `validate:"required"`
	Destination string `validate:"required"`
	Minify      bool
}

// Parse validates o and applies defaults. It performs no network activity.
func (o Options) Parse() (Config, error) {
	apiKey := strings.TrimSpace(o.APIKey)
	if validate.Var(apiKey, "required") != nil {
		return Config{}, ErrMissingAPIKey
	}

	appIDRaw := strings.TrimSpace(o.AppID)
	if validate.Var(appIDRaw, "required") != nil {
		return Config{}, ErrMissingAppID
	}
	appID, err := strconv.ParseUint(appIDRaw, 10, 32)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidAppID, o.AppID)
	}
	if appID == 0 {
		return Config{}, ErrMissingAppID
	}

	dest, err := destination(o.Filename)
	if err != nil {
		return Config{}, err
	}

	minify := true
	if raw := strings.TrimSpace(o.Minify); raw != "" {
		minify, err = strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %q", ErrInvalidMinify, o.Minify)
		}
	}

	cfg := Config{
		APIKey:      apiKey,
		AppID:       uint32(appID),
		Destination: dest,
		Minify:      minify,
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("export config validation error: %w", err)
	}
	return cfg, nil
}

// destination applies the default name and extension and rejects names
// that cannot be written.
func destination(filename string) (string, error) {
	name := strings.TrimSpace(filename)
	if name == "" {
		name = DefaultFilename
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: contains NUL byte", ErrInvalidFilename)
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q names a directory", ErrInvalidFilename, filename)
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}

	loc, err := sink.Parse(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFilename, err)
	}
	if loc.Scheme == sink.SchemeFile {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			return "", fmt.Errorf("%w: %q names a directory", ErrInvalidFilename, name)
		}
	}
	return name, nil
}

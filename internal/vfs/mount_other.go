//go:build !windows

package vfs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/scriptkitz/eelua/internal/config"
)

// Mount is unavailable off Windows.
func Mount(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	return ErrUnsupportedPlatform
}

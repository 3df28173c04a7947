//go:build windows

package vfs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stirante/dokan-go"

	"github.com/scriptkitz/eelua/internal/config"
)

// Mount serves cfg.PhysicalPath at cfg.MountPoint until ctx is done.
func Mount(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	filter := NewFilter(cfg.AllowedProcesses, cfg.AllowedExtensions)
	fs := NewProxyFS(cfg.PhysicalPath, filter, cfg.SniffSize, logger)

	logger.Info().Str("mount_point", cfg.MountPoint).Msg("Starting mount using Dokany 1.x")
	m, err := dokan.Mount(&dokan.Config{
		Path:       cfg.MountPoint,
		FileSystem: fs,
	})
	if err != nil {
		return fmt.Errorf("mount %s (is the Dokany 1.x driver installed and DOKAN1.DLL on PATH?): %w", cfg.MountPoint, err)
	}
	logger.Info().Str("physical_path", cfg.PhysicalPath).Str("mount_point", cfg.MountPoint).Msg("Mounted")

	go func() {
		<-ctx.Done()
		logger.Info().Msg("Unmounting")
		m.Close()
	}()

	return m.BlockTillDone()
}

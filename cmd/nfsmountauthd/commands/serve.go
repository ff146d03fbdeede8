package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gluster/nfs-mountauthd/internal/logger"
	"github.com/gluster/nfs-mountauthd/internal/protocol/mount/handlers"
	"github.com/gluster/nfs-mountauthd/pkg/config"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/authcache"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/authorizer"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/exports"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/netgroups"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/registry"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/resolver"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/syntheticvolume"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mount authorization daemon",
	Long: `Load the exports and netgroups configuration, start the
periodic revalidation loop, and serve the NFSv3 MOUNT protocol until
interrupted.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Info("nfsmountauthd starting", "version", Version, "config_source", getConfigSource())

	knownVolumes := make(map[string]bool, len(cfg.NFS3))
	for name := range cfg.NFS3 {
		knownVolumes[name] = true
	}

	if err := config.CheckFileSize(cfg.NFS.ExportsFile, cfg.NFS.MaxExportsFileSize, "exports file"); err != nil {
		return err
	}
	if err := config.CheckFileSize(cfg.NFS.NetgroupsFile, cfg.NFS.MaxExportsFileSize, "netgroups file"); err != nil {
		return err
	}
	if err := config.CheckFileSize(cfg.NFS.MountRmtab, cfg.NFS.MaxRmtabFileSize, "rmtab file"); err != nil {
		return err
	}

	ef, err := exports.Parse(cfg.NFS.ExportsFile, knownVolumes)
	if err != nil {
		return fmt.Errorf("parse exports file %q: %w", cfg.NFS.ExportsFile, err)
	}
	if err := config.ApplyVolumeExportDirs(ef, cfg.NFS3); err != nil {
		return fmt.Errorf("apply nfs3 export_dir entries: %w", err)
	}

	nf, err := netgroups.Parse(cfg.NFS.NetgroupsFile)
	if err != nil {
		return fmt.Errorf("parse netgroups file %q: %w", cfg.NFS.NetgroupsFile, err)
	}

	cache := authcache.New(time.Duration(cfg.NFS.AuthCacheTTLSec) * time.Second)
	az := authorizer.New(ef, nf, cache)
	reg := registry.New(cfg.NFS.MountRmtab)
	volumes := syntheticvolume.New(knownVolumes)
	res := resolver.New(az, reg, volumes)

	refreshInterval := time.Duration(cfg.NFS.AuthRefreshIntervalSec) * time.Second
	revalidator := resolver.NewRevalidator(res, cfg.NFS.ExportsFile, cfg.NFS.NetgroupsFile, knownVolumes, refreshInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	revalidator.Start(ctx)
	defer revalidator.Stop()

	ln, err := net.Listen("tcp", cfg.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.ListenAddress, err)
	}
	logger.Info("mount rpc listening", "address", ln.Addr().String())

	srv := handlers.NewServer(handlers.New(res))

	serverDone := make(chan error, 1)
	go func() { serverDone <- srv.Serve(ctx, ln) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("nfsmountauthd is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("server shutdown error", "error", err)
			return err
		}
		logger.Info("nfsmountauthd stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("nfsmountauthd stopped")
	}

	return nil
}

func getConfigSource() string {
	if GetConfigFile() != "" {
		return GetConfigFile()
	}
	return "defaults"
}

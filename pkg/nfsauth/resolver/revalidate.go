package resolver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gluster/nfs-mountauthd/internal/logger"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/authorizer"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/exports"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/netgroups"
	"github.com/gluster/nfs-mountauthd/pkg/nfsauth/registry"
)

// Revalidator periodically checks the exports and netgroups files for
// changes and, on a change, reparses them, swaps them into the
// Authorizer atomically, purges the auth cache, and re-authorizes
// every live entry in the Mount Registry — removing any that are no
// longer authorized (spec §4.G "periodic revalidation"). Its
// ticker/stopCh/stopped shape follows the donor's SettingsWatcher.
type Revalidator struct {
	mu sync.Mutex

	resolver      *Resolver
	exportsPath   string
	netgroupsPath string
	knownVolumes  map[string]bool
	interval      time.Duration

	exportsModTime   time.Time
	netgroupsModTime time.Time

	stopCh  chan struct{}
	stopped chan struct{}
}

// NewRevalidator constructs a Revalidator. interval corresponds to
// nfs.auth-refresh-interval-sec (spec §6, default 2s).
func NewRevalidator(res *Resolver, exportsPath, netgroupsPath string, knownVolumes map[string]bool, interval time.Duration) *Revalidator {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Revalidator{
		resolver:      res,
		exportsPath:   exportsPath,
		netgroupsPath: netgroupsPath,
		knownVolumes:  knownVolumes,
		interval:      interval,
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
}

// Start begins the background polling goroutine. It stops when ctx is
// cancelled or Stop is called, whichever comes first (spec §5: "the
// revalidation sleep is interruptible by the stop flag at most once
// per period", bounding staleness by interval).
//
// Alongside the mtime-poll ticker, Start also watches the exports and
// netgroups files' parent directories with fsnotify so an edit is
// usually picked up immediately rather than waiting for the next
// tick; the ticker remains the source of truth (editors that save via
// rename-over, or an fsnotify watch that silently drops an event on a
// busy filesystem, still get caught within one interval).
func (rv *Revalidator) Start(ctx context.Context) {
	watcher, watchErr := rv.startWatcher()
	if watchErr != nil {
		logger.Warn("revalidator: fsnotify watch unavailable, relying on mtime polling only", logger.Err(watchErr))
	}

	go func() {
		defer close(rv.stopped)
		if watcher != nil {
			defer watcher.Close()
		}

		ticker := time.NewTicker(rv.interval)
		defer ticker.Stop()

		var events <-chan fsnotify.Event
		if watcher != nil {
			events = watcher.Events
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-rv.stopCh:
				return
			case <-ticker.C:
				rv.tick(ctx)
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if rv.eventMatchesWatchedFile(ev.Name) {
					rv.tick(ctx)
				}
			}
		}
	}()
}

// startWatcher sets up an fsnotify watch on the parent directories of
// the exports and netgroups files (fsnotify watches directories, not
// individual files that may be replaced via rename). Returns a nil
// watcher, not an error, when neither path is configured.
func (rv *Revalidator) startWatcher() (*fsnotify.Watcher, error) {
	dirs := map[string]bool{}
	if rv.exportsPath != "" {
		dirs[filepath.Dir(rv.exportsPath)] = true
	}
	if rv.netgroupsPath != "" {
		dirs[filepath.Dir(rv.netgroupsPath)] = true
	}
	if len(dirs) == 0 {
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	return watcher, nil
}

func (rv *Revalidator) eventMatchesWatchedFile(name string) bool {
	return name == rv.exportsPath || name == rv.netgroupsPath
}

// Stop signals the goroutine to exit and waits for it to do so.
func (rv *Revalidator) Stop() {
	select {
	case <-rv.stopCh:
		return
	default:
		close(rv.stopCh)
	}
	<-rv.stopped
}

func (rv *Revalidator) tick(ctx context.Context) {
	exportsChanged, err := rv.fileChanged(rv.exportsPath, &rv.exportsModTime)
	if err != nil {
		logger.Warn("revalidator: failed to stat exports file", logger.Err(err))
	}
	netgroupsChanged, err := rv.fileChanged(rv.netgroupsPath, &rv.netgroupsModTime)
	if err != nil {
		logger.Warn("revalidator: failed to stat netgroups file", logger.Err(err))
	}

	if !exportsChanged && !netgroupsChanged {
		return
	}

	if netgroupsChanged && rv.netgroupsPath != "" {
		nf, err := netgroups.Parse(rv.netgroupsPath)
		if err != nil {
			logger.Warn("revalidator: failed to reparse netgroups file, keeping last-good snapshot", logger.Err(err))
		} else {
			rv.resolver.Authorizer.SetNetgroups(nf)
		}
	}

	if exportsChanged && rv.exportsPath != "" {
		ef, err := exports.Parse(rv.exportsPath, rv.knownVolumes)
		if err != nil {
			logger.Warn("revalidator: failed to reparse exports file, keeping last-good snapshot", logger.Err(err))
		} else {
			rv.resolver.Authorizer.SetExports(ef)
		}
	}

	rv.resolver.Authorizer.PurgeCache()
	rv.revokeStaleMounts(ctx)
}

// revokeStaleMounts re-authorizes every live registry entry against
// the freshly swapped-in exports/netgroups files and removes any that
// no longer pass (spec §4.G, scenario S6).
func (rv *Revalidator) revokeStaleMounts(ctx context.Context) {
	for _, e := range rv.resolver.Registry.List() {
		verdict, _, _ := rv.resolver.Authorizer.Authorize(ctx, authorizer.Request{
			Host: e.Hostname,
			Path: exportPathForEntry(e),
		})
		if verdict == authorizer.Denied {
			if err := rv.resolver.Registry.Remove(e.ExportName, e.Hostname); err != nil {
				logger.Warn("revalidator: failed to remove revoked mount", logger.Err(err))
			} else {
				logger.Info("revalidator: revoked mount no longer authorized", "export", e.ExportName, "host", e.Hostname)
			}
		}
	}
}

func exportPathForEntry(e registry.Entry) string {
	if e.FullPath != "" {
		return e.FullPath
	}
	return e.ExportName
}

func (rv *Revalidator) fileChanged(path string, lastModTime *time.Time) (bool, error) {
	if path == "" {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	rv.mu.Lock()
	defer rv.mu.Unlock()

	if info.ModTime().Equal(*lastModTime) {
		return false, nil
	}
	*lastModTime = info.ModTime()
	return true, nil
}

package roster

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/utils"
)

// Watch reloads the roster whenever its file is written and hands the new
// sites to onChange. It runs until ctx is cancelled.
//
// A reload that fails to parse or validate is logged and skipped: the
// previous roster stays active.
func Watch(ctx context.Context, loader *Loader, log logger.Logger, onChange func([]domain.Site)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer utils.CloseLogged(watcher, log, "roster watcher")

	// Watch the directory: editors save atomically by rename, which drops
	// a watch placed on the file itself.
	path := filepath.Clean(loader.Path())
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	log.Info("watching roster for changes", logger.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			sites, err := loader.Load()
			if err != nil {
				log.Error("roster reload failed, keeping previous roster",
					logger.String("path", path),
					logger.Error(err))
				continue
			}

			log.Info("roster reloaded",
				logger.String("path", path),
				logger.Int("sites", len(sites)))
			onChange(sites)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("roster watcher error", logger.Error(err))
		}
	}
}

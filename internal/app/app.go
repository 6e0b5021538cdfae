package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"drivecache/internal/config"
	"drivecache/internal/database"
	"drivecache/internal/drive"
	"drivecache/internal/resolve"
	"drivecache/internal/sync"
)

// Metadata keys written after each applied change set.
const (
	checkpointKey = "checkpoint"
	lastSyncKey   = "last_sync"
)

// App is the application layer between the CLI and the sync engine.
// It constructs all dependencies from config, migrates the schema on
// startup, and manages store and log-file lifecycle on Close.
type App struct {
	cfg     *config.Config
	store   *database.Store
	cache   *resolve.Cache
	engine  *sync.Engine
	logger  drive.Logger
	logFile *os.File
}

// NewApp opens the mirror described by cfg and brings its schema to the
// current version. operation identifies the CLI command being run.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	store, err := database.NewStoreFromConfig(cfg.Database, cfg.CacheID)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if err := store.Init(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	var logger drive.Logger = drive.NewNopLogger()
	var logFile *os.File
	if cfg.LogDir != "" {
		opID := time.Now().UTC().Format("20060102T150405Z")
		slogger, f, err := newLogger(cfg.LogDir, opID)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("creating logger: %w", err)
		}
		logFile = f
		logger = &slogAdapter{l: slogger}
		logger.Info("operation started", "operation", operation)
	}

	cache := resolve.New()
	engine := sync.NewEngine(store, cache, logger, drive.RealClock{})

	return &App{
		cfg:     cfg,
		store:   store,
		cache:   cache,
		engine:  engine,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// Engine exposes the sync engine for callers that feed it directly.
func (a *App) Engine() *sync.Engine { return a.engine }

// ChangeStats summarizes one applied change set.
type ChangeStats struct {
	Nodes      int
	Purged     int
	Reset      bool
	Checkpoint string
}

// ApplyChangeSet decodes a JSON change set and reconciles it against the
// mirror. A reset batch flushes the resolve cache and rebuilds parent
// edges additively; an incremental batch replaces each child's parent
// set. The checkpoint and the sync time are recorded in the metadata
// table afterwards.
func (a *App) ApplyChangeSet(r io.Reader) (*ChangeStats, error) {
	var cs drive.ChangeSet
	if err := json.NewDecoder(r).Decode(&cs); err != nil {
		return nil, fmt.Errorf("decoding change set: %w", err)
	}

	if cs.Reset {
		if err := a.engine.InsertNodes(cs.Nodes, false, true); err != nil {
			return nil, err
		}
	} else {
		if err := a.engine.InsertNodes(cs.Nodes, true, false); err != nil {
			return nil, err
		}
	}

	if err := a.engine.RemovePurged(cs.PurgedNodes); err != nil {
		return nil, err
	}

	stamps := map[string]string{
		lastSyncKey: time.Now().UTC().Format(time.RFC3339),
	}
	if cs.Checkpoint != "" {
		stamps[checkpointKey] = cs.Checkpoint
	}
	if err := a.store.KeyValue().SetAll(stamps); err != nil {
		return nil, err
	}

	return &ChangeStats{
		Nodes:      len(cs.Nodes),
		Purged:     len(cs.PurgedNodes),
		Reset:      cs.Reset,
		Checkpoint: cs.Checkpoint,
	}, nil
}

// Purge removes the full footprint of permanently deleted nodes.
func (a *App) Purge(ids []string) error {
	return a.engine.RemovePurged(ids)
}

// Status describes the state of the mirror.
type Status struct {
	SchemaVersion uint
	Nodes         int64
	Files         int64
	Edges         int64
	Content       int64
	Checkpoint    string
	LastSync      string
}

// GetStatus reports schema version, row counts and sync stamps.
func (a *App) GetStatus() (*Status, error) {
	version, err := a.store.SchemaVersion()
	if err != nil {
		return nil, err
	}

	st := &Status{SchemaVersion: version}
	counts := []struct {
		table string
		dst   *int64
	}{
		{"nodes", &st.Nodes},
		{"files", &st.Files},
		{"parentage", &st.Edges},
		{"content", &st.Content},
	}
	for _, c := range counts {
		if err := a.store.DB().QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}

	if st.Checkpoint, err = a.store.KeyValue().GetDefault(checkpointKey, ""); err != nil {
		return nil, err
	}
	if st.LastSync, err = a.store.KeyValue().GetDefault(lastSyncKey, ""); err != nil {
		return nil, err
	}
	return st, nil
}

// Setting returns a metadata value; absent keys surface ErrKeyNotFound.
func (a *App) Setting(key string) (string, error) {
	return a.store.KeyValue().Get(key)
}

// SetSetting upserts a metadata value.
func (a *App) SetSetting(key, value string) error {
	return a.store.KeyValue().Set(key, value)
}

// Drop destroys every table in the mirror. Destructive reset path only.
func (a *App) Drop() error {
	a.cache.Flush()
	return a.store.DropAll()
}

// Close closes the store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

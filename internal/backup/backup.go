// Package backup writes point-in-time snapshots of the chorewheel database to
// a local directory, optionally encrypted, and prunes old ones.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix   = "chorewheel-"
	plainSuffix  = ".db"
	sealedSuffix = ".db.enc"
	stampLayout  = "20060102T150405Z"
)

// Config controls where snapshots go and how many are kept. An empty Dir
// disables the manager.
type Config struct {
	Dir        string
	Passphrase string
	Keep       int
	Interval   time.Duration
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	LastFile   string     `json:"last_file,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Snapshot describes one file in the backup directory.
type Snapshot struct {
	Path      string    `json:"path"`
	TakenAt   time.Time `json:"taken_at"`
	Encrypted bool      `json:"encrypted"`
	Size      int64     `json:"size"`
}

// Manager takes snapshots on demand and on a ticker.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	db     *sql.DB
	status Status
	logger *slog.Logger
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	if cfg.Keep <= 0 {
		cfg.Keep = 7
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	m := &Manager{
		cfg:    cfg,
		db:     db,
		logger: logger,
		now:    time.Now,
		status: Status{State: StateDisabled},
	}
	if cfg.Dir != "" {
		m.status.State = StateIdle
	}
	return m
}

func (m *Manager) Enabled() bool {
	return m.cfg.Dir != ""
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Start runs a snapshot every interval until ctx is cancelled or Stop is
// called. It does nothing when the manager is disabled.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		return
	}
	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunNow(ctx); err != nil {
					m.logger.Error("scheduled backup", "error", err)
				}
			}
		}
	}()
}

func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.status.State = StateError
	m.status.Error = err.Error()
	m.mu.Unlock()
	return err
}

// RunNow writes one snapshot and prunes the directory down to Keep files.
func (m *Manager) RunNow(ctx context.Context) (Snapshot, error) {
	if !m.Enabled() {
		return Snapshot{}, errors.New("backup disabled: no directory configured")
	}

	m.mu.Lock()
	if m.status.State == StateRunning {
		m.mu.Unlock()
		return Snapshot{}, errors.New("backup already running")
	}
	m.status.State = StateRunning
	m.mu.Unlock()

	if err := os.MkdirAll(m.cfg.Dir, 0o700); err != nil {
		return Snapshot{}, m.fail(fmt.Errorf("create backup dir: %w", err))
	}

	taken := m.now().UTC()
	tmp := filepath.Join(m.cfg.Dir, fmt.Sprintf(".tmp-%d.db", taken.UnixNano()))
	defer os.Remove(tmp)

	// VACUUM INTO gives a consistent copy without pausing writers.
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", tmp); err != nil {
		return Snapshot{}, m.fail(fmt.Errorf("vacuum into: %w", err))
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return Snapshot{}, m.fail(fmt.Errorf("read snapshot: %w", err))
	}

	suffix := plainSuffix
	if m.cfg.Passphrase != "" {
		if data, err = Seal(data, m.cfg.Passphrase); err != nil {
			return Snapshot{}, m.fail(fmt.Errorf("encrypt snapshot: %w", err))
		}
		suffix = sealedSuffix
	}

	path := filepath.Join(m.cfg.Dir, filePrefix+taken.Format(stampLayout)+suffix)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Snapshot{}, m.fail(fmt.Errorf("write snapshot: %w", err))
	}

	snap := Snapshot{Path: path, TakenAt: taken, Encrypted: suffix == sealedSuffix, Size: int64(len(data))}

	removed, err := m.prune()
	if err != nil {
		m.logger.Warn("prune backups", "error", err)
	}

	m.mu.Lock()
	m.status = Status{State: StateIdle, LastBackup: &taken, LastFile: path}
	m.mu.Unlock()

	m.logger.Info("backup written", "path", path, "bytes", snap.Size, "encrypted", snap.Encrypted, "pruned", removed)
	return snap, nil
}

// List returns the snapshots in dir, newest first.
func List(dir string) ([]Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var snaps []Snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		encrypted := strings.HasSuffix(name, sealedSuffix)
		stamp := strings.TrimPrefix(name, filePrefix)
		if encrypted {
			stamp = strings.TrimSuffix(stamp, sealedSuffix)
		} else if strings.HasSuffix(stamp, plainSuffix) {
			stamp = strings.TrimSuffix(stamp, plainSuffix)
		} else {
			continue
		}
		taken, err := time.Parse(stampLayout, stamp)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		snaps = append(snaps, Snapshot{
			Path:      filepath.Join(dir, name),
			TakenAt:   taken,
			Encrypted: encrypted,
			Size:      info.Size(),
		})
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].TakenAt.After(snaps[j].TakenAt) })
	return snaps, nil
}

func (m *Manager) prune() (int, error) {
	snaps, err := List(m.cfg.Dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, s := range snaps[min(len(snaps), m.cfg.Keep):] {
		if err := os.Remove(s.Path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", s.Path, err)
		}
		removed++
	}
	return removed, nil
}

// Restore writes the database contained in snapshot src to dst, decrypting it
// when needed. dst must not exist yet.
func Restore(src, dst, passphrase string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if IsSealed(data) {
		if passphrase == "" {
			return errors.New("snapshot is encrypted: passphrase required")
		}
		if data, err = Unseal(data, passphrase); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return f.Close()
}

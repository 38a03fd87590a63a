package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
	"watchtime/internal/providers"
	"watchtime/internal/storage/interfaces"
)

// FileStore serves reads and writes from memory and snapshots to a single
// compressed file when persisted.
type FileStore struct {
	*MemoryStore
	path        string
	fileManager *FileManager
	logger      providers.Logger

	persistMu sync.Mutex
	persisted uint64
	// blocked is set while an unreadable snapshot still sits at path.
	blocked bool
}

var ErrSnapshotUnreadable = errors.New("snapshot could not be loaded and was not moved aside")

func NewFileStore(path string, fileManager *FileManager, logger providers.Logger) *FileStore {
	return &FileStore{
		MemoryStore: NewMemoryStore(),
		path:        path,
		fileManager: fileManager,
		logger:      logger,
	}
}

// Persist writes a snapshot unless nothing changed since the last one.
func (s *FileStore) Persist() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if s.blocked {
		return fmt.Errorf("%w: %s", ErrSnapshotUnreadable, s.path)
	}
	entries, version := s.Snapshot()
	if version == s.persisted && version != 0 {
		return nil
	}
	if err := s.fileManager.SaveToFile(s.path, entries); err != nil {
		return err
	}
	s.persisted = version
	return nil
}

func (s *FileStore) Load() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	entries, err := s.fileManager.LoadFromFile(s.path)
	if err != nil {
		s.quarantineLocked()
		return err
	}
	s.blocked = false
	s.Replace(entries)
	_, s.persisted = s.Snapshot()
	s.logger.Infof(providers.TypeApp, "Loaded %d keys from %s", len(entries), s.path)
	return nil
}

// quarantineLocked renames an unreadable snapshot so the next Persist cannot
// overwrite it. If the rename fails, Persist stays disabled.
func (s *FileStore) quarantineLocked() {
	aside := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, aside); err != nil {
		s.blocked = true
		s.logger.Errorf(providers.TypeApp, "Unreadable snapshot %s left in place, persistence disabled: %s", s.path, err)
		return
	}
	s.blocked = false
	s.logger.Errorf(providers.TypeApp, "Unreadable snapshot moved to %s", aside)
}

// Close writes a final snapshot.
func (s *FileStore) Close() error {
	err := s.Persist()
	s.fileManager.Close()
	return err
}

var (
	_ interfaces.StoreInterface     = (*FileStore)(nil)
	_ interfaces.PersisterInterface = (*FileStore)(nil)
)

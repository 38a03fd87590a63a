package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"watchtime/internal/providers"
	"watchtime/internal/storage/interfaces"

	json "github.com/goccy/go-json"
)

const snapshotVersion = 2

// snapshot is the on-disk envelope. Version 1 files are a bare JSON object
// mapping keys to JSON values, as produced by a browser storage export.
type snapshot struct {
	Version int               `json:"version"`
	Entries map[string][]byte `json:"entries"`
}

type FileManager struct {
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		logger:     logger,
	}
}

// SaveToFile writes entries through a temp file and rename so a crash never
// leaves a half-written snapshot behind.
func (f *FileManager) SaveToFile(fileName string, entries map[string][]byte) error {
	jsonData, err := json.Marshal(&snapshot{Version: snapshotVersion, Entries: entries})
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(fileName); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// LoadFromFile returns an empty map when the file does not exist yet.
func (f *FileManager) LoadFromFile(fileName string) (map[string][]byte, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string][]byte), nil
		}
		return nil, err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return nil, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(decompressedData, &doc); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", fileName, err)
	}

	if _, ok := doc["entries"]; ok {
		var s snapshot
		if err := json.Unmarshal(decompressedData, &s); err == nil && s.Version >= snapshotVersion {
			if s.Entries == nil {
				s.Entries = make(map[string][]byte)
			}
			return s.Entries, nil
		}
	}

	f.logger.Warnf(providers.TypeApp, "Snapshot %s has no version envelope, importing as a plain key/value export", fileName)
	entries := make(map[string][]byte, len(doc))
	for k, v := range doc {
		entries[k] = []byte(v)
	}
	f.logger.Warnf(providers.TypeApp, "Imported %d keys from v1 snapshot", len(entries))
	return entries, nil
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

package storage

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brian-scardina/spyspotter/pkg/models"
)

// LocalStorage persists scan results as JSON files under
// <base>/results/<host>/, one file per scan, with optional gzip compression
// and age-based retention. Writes are atomic: temp file, fsync, rename.
type LocalStorage struct {
	baseDir     string
	logger      *logrus.Logger
	mu          sync.RWMutex
	compression bool
	retention   time.Duration
}

func NewLocalStorage(baseDir string, compression bool, retention time.Duration, logger *logrus.Logger) (*LocalStorage, error) {
	if logger == nil {
		logger = logrus.New()
	}

	if err := os.MkdirAll(filepath.Join(baseDir, "results"), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	ls := &LocalStorage{
		baseDir:     baseDir,
		logger:      logger,
		compression: compression,
		retention:   retention,
	}

	if retention > 0 {
		go ls.cleanupOldFiles()
	}

	return ls, nil
}

// hostDir returns the per-host directory a result belongs in. Results whose
// URL never parsed get grouped under "unknown".
func hostDir(result *models.ScanResult) string {
	host := result.SourceHost()
	if host == "" {
		return "unknown"
	}
	return host
}

func (ls *LocalStorage) SaveResult(result *models.ScanResult) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	resultDir := filepath.Join(ls.baseDir, "results", hostDir(result))
	if err := os.MkdirAll(resultDir, 0o755); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}

	timestamp := result.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	finalPath := filepath.Join(resultDir, fmt.Sprintf("scan_%s.json", timestamp.UTC().Format("20060102_150405.000")))

	tmpFile, err := os.CreateTemp(resultDir, ".scan_*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	enc := json.NewEncoder(tmpFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("encode result: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), finalPath); err != nil {
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("atomic rename: %w", err)
	}

	logPath := finalPath
	if ls.compression {
		if err := ls.compressFile(finalPath); err != nil {
			ls.logger.Warnf("Failed to compress result file: %v", err)
		} else {
			_ = os.Remove(finalPath)
			logPath = finalPath + ".gz"
		}
	}

	ls.logger.Debugf("Result saved to %s", logPath)
	return nil
}

// LoadResults reads every stored result for one host, oldest first by file
// name. Unreadable files are skipped with a warning rather than failing the
// whole load.
func (ls *LocalStorage) LoadResults(host string) ([]models.ScanResult, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.loadDir(filepath.Join(ls.baseDir, "results", host))
}

// LoadAllResults reads every stored result across all hosts.
func (ls *LocalStorage) LoadAllResults() ([]models.ScanResult, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	resultsDir := filepath.Join(ls.baseDir, "results")
	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		return nil, fmt.Errorf("read results directory: %w", err)
	}

	var results []models.ScanResult
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		hostResults, err := ls.loadDir(filepath.Join(resultsDir, entry.Name()))
		if err != nil {
			ls.logger.Warnf("Failed to load results for %s: %v", entry.Name(), err)
			continue
		}
		results = append(results, hostResults...)
	}
	return results, nil
}

func (ls *LocalStorage) loadDir(dir string) ([]models.ScanResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read result directory: %w", err)
	}

	results := make([]models.ScanResult, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".json.gz") {
			continue
		}

		result, err := ls.readResultFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			ls.logger.Warnf("Failed to parse result %s: %v", entry.Name(), err)
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

func (ls *LocalStorage) readResultFile(path string) (*models.ScanResult, error) {
	var reader io.Reader

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reader = f

	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gzr.Close()
		reader = gzr
	}

	var result models.ScanResult
	if err := json.NewDecoder(reader).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}

// Hosts lists the hosts that have stored results.
func (ls *LocalStorage) Hosts() ([]string, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(ls.baseDir, "results"))
	if err != nil {
		return nil, fmt.Errorf("read results directory: %w", err)
	}
	hosts := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			hosts = append(hosts, entry.Name())
		}
	}
	return hosts, nil
}

func (ls *LocalStorage) GetStorageStats() (map[string]interface{}, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	stats := make(map[string]interface{})

	var totalSize int64
	fileCount := 0
	err := filepath.Walk(ls.baseDir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			totalSize += info.Size()
			fileCount++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk storage directory: %w", err)
	}

	stats["total_size_bytes"] = totalSize
	stats["file_count"] = fileCount
	stats["compression_enabled"] = ls.compression
	stats["retention_period"] = ls.retention.String()

	return stats, nil
}

func (ls *LocalStorage) compressFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open for compress: %w", err)
	}
	defer in.Close()

	outPath := path + ".gz"
	tmpPath := outPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create gzip temp: %w", err)
	}

	gzw, err := gzip.NewWriterLevel(out, gzip.DefaultCompression)
	if err != nil {
		out.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("gzip writer: %w", err)
	}

	_, copyErr := io.Copy(gzw, in)
	closeErr1 := gzw.Close()
	closeErr2 := out.Close()

	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("gzip copy: %w", copyErr)
	}
	if closeErr1 != nil || closeErr2 != nil {
		_ = os.Remove(tmpPath)
		if closeErr1 != nil {
			return fmt.Errorf("close gzip: %w", closeErr1)
		}
		return fmt.Errorf("close file: %w", closeErr2)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename gzip file: %w", err)
	}
	return nil
}

func (ls *LocalStorage) cleanupOldFiles() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ls.mu.Lock()
		retention := ls.retention
		base := ls.baseDir
		ls.mu.Unlock()

		if retention == 0 {
			return
		}
		ls.cleanupDirectory(filepath.Join(base, "results"), time.Now().Add(-retention))
	}
}

func (ls *LocalStorage) cleanupDirectory(path string, cutoffTime time.Time) {
	err := filepath.Walk(path, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !info.IsDir() && info.ModTime().Before(cutoffTime) {
			if err := os.Remove(p); err != nil {
				ls.logger.Warnf("Failed to remove old file %s: %v", p, err)
			} else {
				ls.logger.Debugf("Removed old result file: %s", p)
			}
		}
		return nil
	})
	if err != nil {
		ls.logger.Warnf("Failed to cleanup directory %s: %v", path, err)
	}
}

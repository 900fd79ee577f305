package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Auditor writes raw request payloads to disk so an import can be replayed
// or inspected later.
type Auditor struct {
	AuditDir string
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// SaveJSON saves data as indented JSON to "<uuid>.json" and returns the
// file name.
func (a *Auditor) SaveJSON(data any) (string, error) {
	return a.save("", data)
}

// SaveImport saves an import payload as "<method>-<uuid>.json".
func (a *Auditor) SaveImport(method string, data any) (string, error) {
	return a.save(method, data)
}

func (a *Auditor) save(prefix string, data any) (string, error) {
	if err := a.ensureAuditDir(); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	filename := uuid.New().String() + ".json"
	if prefix != "" {
		filename = prefix + "-" + filename
	}
	path := filepath.Join(a.AuditDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	log.Printf("Saved audit file: %s", path)
	return filename, nil
}

// PruneFiles removes audit JSON files last modified before cutoff and
// returns how many were removed.
func (a *Auditor) PruneFiles(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(a.AuditDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read audit directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(a.AuditDir, e.Name())); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
			}
			removed++
		}
	}
	return removed, nil
}

// ensureAuditDir creates the audit directory if it doesn't exist
func (a *Auditor) ensureAuditDir() error {
	if _, err := os.Stat(a.AuditDir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.AuditDir, 0755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	return nil
}

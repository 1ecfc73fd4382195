// Package host reads facts about the machine the daemon runs on.
package host

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const deviceIDFile = "device-id"

// DeviceID returns the stable identifier of this machine. A configured id
// wins; otherwise the id saved under dataDir is reused, and on first use
// the hostname (or a random UUID when there is none) is saved there.
func DeviceID(configured, dataDir string) (string, error) {
	if id := strings.TrimSpace(configured); id != "" {
		return id, nil
	}

	path := filepath.Join(dataDir, deviceIDFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}

	id := hostnameID()
	if id == "" {
		id = uuid.NewString()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0644); err != nil {
		return "", fmt.Errorf("failed to save device id: %w", err)
	}
	return id, nil
}

var hostname = os.Hostname

func hostnameID() string {
	name, err := hostname()
	if err != nil {
		return ""
	}
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, ".local")
	return name
}

package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Settings is the persisted shop configuration. It is read wholesale at
// startup and rewritten wholesale on every save.
type Settings struct {
	CompanyName   string `json:"company_name"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	ReportsFolder string `json:"reports_folder"`
	BackupFolder  string `json:"backup_folder"`
	Theme         string `json:"theme"`
	FontSize      string `json:"font_size"`
	AutoBackup    bool   `json:"auto_backup"`
}

func Defaults() Settings {
	return Settings{
		CompanyName:   "AL FOURQANE",
		Address:       "",
		Phone:         "",
		ReportsFolder: "rapports",
		BackupFolder:  "backup",
		Theme:         "Clair",
		FontSize:      "12",
		AutoBackup:    true,
	}
}

type Manager struct {
	mu      sync.RWMutex
	path    string
	current Settings
}

// NewManager loads settings from path, falling back to defaults when the file
// is missing. Unknown keys in the file are ignored; missing keys keep their
// default values.
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path, current: Defaults()}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read settings file")
	}

	loaded := Defaults()
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, errors.Wrap(err, "parse settings file")
	}
	m.current = normalize(loaded)
	return m, nil
}

func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Save validates, persists and applies the new settings. The reports and
// backup folders are created so exports never fail on a missing directory.
func (m *Manager) Save(s Settings) error {
	s = normalize(s)
	if s.CompanyName == "" {
		return errors.New("company name is required")
	}

	for _, dir := range []string{s.ReportsFolder, s.BackupFolder} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create folder %s", dir)
		}
	}

	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode settings")
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create settings folder")
		}
	}
	if err := os.WriteFile(m.path, payload, 0o644); err != nil {
		return errors.Wrap(err, "write settings file")
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

func normalize(s Settings) Settings {
	s.CompanyName = strings.TrimSpace(s.CompanyName)
	s.Address = strings.TrimSpace(s.Address)
	s.Phone = strings.TrimSpace(s.Phone)
	s.ReportsFolder = strings.TrimSpace(s.ReportsFolder)
	s.BackupFolder = strings.TrimSpace(s.BackupFolder)
	if s.ReportsFolder == "" {
		s.ReportsFolder = Defaults().ReportsFolder
	}
	if s.BackupFolder == "" {
		s.BackupFolder = Defaults().BackupFolder
	}
	if s.Theme == "" {
		s.Theme = Defaults().Theme
	}
	if s.FontSize == "" {
		s.FontSize = Defaults().FontSize
	}
	return s
}

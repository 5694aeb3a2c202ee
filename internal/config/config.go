package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "quest.db"
	DefaultAgendaLimit    = 7

	envConfigPath = "QUEST_CONFIG"
	appDirName    = "quest"
)

type Keymap struct {
	Quit       string `toml:"quit"`
	Add        string `toml:"add"`
	Schedule   string `toml:"schedule"`
	Up         string `toml:"up"`
	Down       string `toml:"down"`
	Toggle     string `toml:"toggle"`
	Repetition string `toml:"repetition"`
	Delete     string `toml:"delete"`
	Skip       string `toml:"skip"`
	SwitchView string `toml:"switch_view"`
	Confirm    string `toml:"confirm"`
	Cancel     string `toml:"cancel"`
}

type Config struct {
	DBPath      string `toml:"db_path"`
	LogPath     string `toml:"log_path"`
	AgendaLimit int    `toml:"agenda_limit"`
	// HorizonDays caps how far ahead the agenda scans; 0 picks it per rule.
	HorizonDays int    `toml:"horizon_days"`
	Keys        Keymap `toml:"keys"`
}

// ResolveConfigPath returns $QUEST_CONFIG if set, else config.toml in the
// user config directory, else config.toml in the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv(envConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(path), DefaultDBName)
	}
	if cfg.AgendaLimit <= 0 {
		cfg.AgendaLimit = DefaultAgendaLimit
	}
	if cfg.HorizonDays < 0 {
		cfg.HorizonDays = 0
	}
	cfg.Keys = cfg.Keys.withDefaults()
	return cfg, nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(dir string) Config {
	return Config{
		DBPath:      filepath.Join(dir, DefaultDBName),
		AgendaLimit: DefaultAgendaLimit,
		Keys:        defaultKeymap(),
	}
}

func defaultKeymap() Keymap {
	return Keymap{
		Quit:       "q",
		Add:        "a",
		Schedule:   "n",
		Up:         "k",
		Down:       "j",
		Toggle:     " ",
		Repetition: "+",
		Delete:     "d",
		Skip:       "s",
		SwitchView: "tab",
		Confirm:    "enter",
		Cancel:     "esc",
	}
}

// withDefaults fills keys missing from older config files.
func (k Keymap) withDefaults() Keymap {
	def := defaultKeymap()
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&k.Quit, def.Quit)
	fill(&k.Add, def.Add)
	fill(&k.Schedule, def.Schedule)
	fill(&k.Up, def.Up)
	fill(&k.Down, def.Down)
	fill(&k.Toggle, def.Toggle)
	fill(&k.Repetition, def.Repetition)
	fill(&k.Delete, def.Delete)
	fill(&k.Skip, def.Skip)
	fill(&k.SwitchView, def.SwitchView)
	fill(&k.Confirm, def.Confirm)
	fill(&k.Cancel, def.Cancel)
	return k
}

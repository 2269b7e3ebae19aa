package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"rtapmon/pkg/logging"
	"rtapmon/pkg/radiotap"
)

const DefaultConfigPath = "rtapd.toml"

type Config struct {
	Log        logging.Config `toml:"log"`
	RTAPD      RTAPDConfig    `toml:"rtapd"`
	Vendors    []VendorDef    `toml:"vendors"`
	configPath string         `toml:"-"`
}

type RTAPDConfig struct {
	Server   ServerConfig   `toml:"server"`
	Foxglove FoxgloveConfig `toml:"foxglove"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

type ServerConfig struct {
	Addr        string `toml:"addr"`
	Buf         int    `toml:"buf"`
	ReaderBuf   int    `toml:"reader_buf"`
	ReadTimeout string `toml:"read_timeout"`
}

type FoxgloveConfig struct {
	Enabled bool   `toml:"enabled"`
	WSAddr  string `toml:"ws_addr"`
	Topic   string `toml:"topic"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// VendorDef describes one vendor namespace, keyed by OUI and sub-namespace.
type VendorDef struct {
	Name   string     `toml:"name"`
	OUI    string     `toml:"oui"`
	SubNS  int        `toml:"sub_ns"`
	Fields []FieldDef `toml:"fields"`
}

type FieldDef struct {
	Bit   int    `toml:"bit"`
	Name  string `toml:"name"`
	Align int    `toml:"align"`
	Size  int    `toml:"size"`
}

func Default() Config {
	return Config{
		Log: logging.DefaultConfig(),
		RTAPD: RTAPDConfig{
			Server: ServerConfig{
				Addr:        "127.0.0.1:19021",
				Buf:         256,
				ReaderBuf:   64 * 1024,
				ReadTimeout: "0s",
			},
			Foxglove: FoxgloveConfig{
				Enabled: true,
				WSAddr:  "127.0.0.1:8765",
				Topic:   "radiotap/frame",
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Addr:    "127.0.0.1:9108",
			},
		},
		Vendors: []VendorDef{},
	}
}

func Load(path string) (Config, error) {
	cfg, exists, err := LoadOrDefault(path)
	if err != nil {
		return Config{}, err
	}
	if !exists {
		return Config{}, os.ErrNotExist
	}
	return cfg, nil
}

// LoadOrDefault reads path, falling back to Default when the file does not
// exist. The bool reports whether the file was found.
func LoadOrDefault(path string) (Config, bool, error) {
	cfg := Default()
	cfg.configPath = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.normalize(path)
			return cfg, false, nil
		}
		return Config{}, false, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, true, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize(path)

	if err := cfg.Validate(); err != nil {
		return Config{}, true, err
	}
	return cfg, true, nil
}

func (cfg *Config) Save(path string) error {
	cfg.normalize(path)
	if err := cfg.Validate(); err != nil {
		return err
	}

	sort.SliceStable(cfg.Vendors, func(i, j int) bool {
		if cfg.Vendors[i].OUI != cfg.Vendors[j].OUI {
			return cfg.Vendors[i].OUI < cfg.Vendors[j].OUI
		}
		return cfg.Vendors[i].SubNS < cfg.Vendors[j].SubNS
	})

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (cfg *Config) ConfigPath() string {
	return cfg.configPath
}

// ReadTimeout parses rtapd.server.read_timeout. Zero disables the deadline.
func (cfg *Config) ReadTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(cfg.RTAPD.Server.ReadTimeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("rtapd.server.read_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("rtapd.server.read_timeout is negative: %s", raw)
	}
	return d, nil
}

func (cfg *Config) Validate() error {
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log.level unknown: %q", cfg.Log.Level)
	}
	if err := logging.ValidateFormat(cfg.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	if _, err := cfg.ReadTimeout(); err != nil {
		return err
	}

	seen := make(map[radiotap.VendorKey]string, len(cfg.Vendors))
	for i, v := range cfg.Vendors {
		label := v.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		oui, err := radiotap.ParseOUI(v.OUI)
		if err != nil {
			return fmt.Errorf("vendor %s: %w", label, err)
		}
		if v.SubNS < 0 || v.SubNS > 0xFF {
			return fmt.Errorf("vendor %s: sub_ns out of range: %d", label, v.SubNS)
		}
		key := radiotap.VendorKey{OUI: oui, SubNS: uint8(v.SubNS)}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("vendor %s: duplicate namespace %s/%d (also %s)", label, oui, v.SubNS, prev)
		}
		seen[key] = label
		if _, err := v.table(); err != nil {
			return fmt.Errorf("vendor %s: %w", label, err)
		}
	}
	return nil
}

// BuildRegistry registers every configured vendor namespace on top of the
// standard table.
func (cfg *Config) BuildRegistry() (*radiotap.Registry, error) {
	reg := radiotap.NewRegistry()
	for _, v := range cfg.Vendors {
		oui, err := radiotap.ParseOUI(v.OUI)
		if err != nil {
			return nil, fmt.Errorf("vendor %s: %w", v.Name, err)
		}
		table, err := v.table()
		if err != nil {
			return nil, fmt.Errorf("vendor %s: %w", v.Name, err)
		}
		if err := reg.RegisterVendor(oui, uint8(v.SubNS), table); err != nil {
			return nil, fmt.Errorf("vendor %s: %w", v.Name, err)
		}
	}
	return reg, nil
}

func (v VendorDef) table() (*radiotap.Table, error) {
	entries := make(map[int]radiotap.Entry, len(v.Fields))
	for _, f := range v.Fields {
		if _, ok := entries[f.Bit]; ok {
			return nil, fmt.Errorf("duplicate field bit %d", f.Bit)
		}
		entries[f.Bit] = radiotap.Entry{Align: f.Align, Size: f.Size, Name: f.Name}
	}
	return radiotap.NewTable(v.Name, entries)
}

func (cfg *Config) normalize(path string) {
	def := Default()

	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = def.Log.Level
	}
	if strings.TrimSpace(cfg.Log.Format) == "" {
		cfg.Log.Format = def.Log.Format
	}

	if cfg.RTAPD.Server.Addr == "" {
		cfg.RTAPD.Server.Addr = def.RTAPD.Server.Addr
	}
	if cfg.RTAPD.Server.Buf <= 0 {
		cfg.RTAPD.Server.Buf = def.RTAPD.Server.Buf
	}
	if cfg.RTAPD.Server.ReaderBuf <= 0 {
		cfg.RTAPD.Server.ReaderBuf = def.RTAPD.Server.ReaderBuf
	}
	if cfg.RTAPD.Server.ReadTimeout == "" {
		cfg.RTAPD.Server.ReadTimeout = def.RTAPD.Server.ReadTimeout
	}

	if cfg.RTAPD.Foxglove.WSAddr == "" {
		cfg.RTAPD.Foxglove.WSAddr = def.RTAPD.Foxglove.WSAddr
	}
	if cfg.RTAPD.Foxglove.Topic == "" {
		cfg.RTAPD.Foxglove.Topic = def.RTAPD.Foxglove.Topic
	}
	if cfg.RTAPD.Metrics.Addr == "" {
		cfg.RTAPD.Metrics.Addr = def.RTAPD.Metrics.Addr
	}

	for i := range cfg.Vendors {
		cfg.Vendors[i].OUI = strings.ToLower(strings.TrimSpace(cfg.Vendors[i].OUI))
	}

	if path == "" {
		path = cfg.configPath
	}
	if path == "" {
		path = DefaultConfigPath
	}
	cfg.configPath = path
}

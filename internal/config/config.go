package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Telnet output modes.
const (
	OutputUTF8  = "utf8"
	OutputCP437 = "cp437"
)

// ServerConfig defines node-wide settings loaded from config.json.
type ServerConfig struct {
	BoardName string `json:"boardName"`
	NodeName  string `json:"nodeName"`
	Version   string `json:"version"`
	Debug     bool   `json:"debug"`

	SSHEnabled          bool   `json:"sshEnabled"`
	SSHHost             string `json:"sshHost"`
	SSHPort             int    `json:"sshPort"`
	SSHHostKeyPath      string `json:"sshHostKeyPath"`
	LegacySSHAlgorithms bool   `json:"legacySSHAlgorithms"`

	TelnetEnabled    bool   `json:"telnetEnabled"`
	TelnetHost       string `json:"telnetHost"`
	TelnetPort       int    `json:"telnetPort"`
	TelnetOutputMode string `json:"telnetOutputMode"`

	HTTPEnabled bool   `json:"httpEnabled"`
	HTTPAddr    string `json:"httpAddr"`

	FeedPath           string `json:"feedPath"`
	FortunesPath       string `json:"fortunesPath"`
	RefreshSchedule    string `json:"refreshSchedule"`
	FeedReloadSchedule string `json:"feedReloadSchedule"`
	HistoryPath        string `json:"historyPath"`

	MaxNodes            int    `json:"maxNodes"`
	MaxConnectionsPerIP int    `json:"maxConnectionsPerIP"`
	LogFile             string `json:"logFile"`
}

// DefaultServerConfig returns the settings used for anything config.json
// leaves out.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		BoardName:           "tecnoter.io",
		NodeName:            "node",
		SSHEnabled:          true,
		SSHHost:             "0.0.0.0",
		SSHPort:             2222,
		SSHHostKeyPath:      "ssh_host_ed25519_key",
		TelnetEnabled:       false,
		TelnetHost:          "0.0.0.0",
		TelnetPort:          2323,
		TelnetOutputMode:    OutputUTF8,
		HTTPEnabled:         false,
		HTTPAddr:            "127.0.0.1:8080",
		FeedPath:            "feed.json",
		FortunesPath:        "fortunes.dat",
		RefreshSchedule:     "@every 30s",
		HistoryPath:         "event_history.json",
		MaxNodes:            10,
		MaxConnectionsPerIP: 3,
	}
}

// LoadServerConfig loads the server configuration from config.json in
// configPath. Relative file paths in the result are resolved against
// configPath.
func LoadServerConfig(configPath string) (ServerConfig, error) {
	filePath := filepath.Join(configPath, "config.json")
	log.Printf("INFO: Loading server configuration from %s", filePath)

	defaultConfig := DefaultServerConfig()
	defaultConfig.Normalise(configPath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("WARN: config.json not found at %s. Using default settings.", filePath)
			return defaultConfig, nil
		}
		return defaultConfig, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	config := DefaultServerConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		log.Printf("ERROR: Failed to parse config JSON from %s: %v. Using default settings.", filePath, err)
		return defaultConfig, fmt.Errorf("failed to parse config JSON from %s: %w", filePath, err)
	}
	config.Normalise(configPath)

	log.Printf("INFO: Successfully loaded server configuration from %s", filePath)
	return config, nil
}

// Normalise fixes out-of-range values and anchors relative paths at baseDir.
func (cfg *ServerConfig) Normalise(baseDir string) {
	mode := strings.ToLower(strings.TrimSpace(cfg.TelnetOutputMode))
	if mode != OutputCP437 {
		mode = OutputUTF8
	}
	cfg.TelnetOutputMode = mode

	if strings.TrimSpace(cfg.NodeName) == "" {
		cfg.NodeName = "node"
	}
	if strings.TrimSpace(cfg.RefreshSchedule) == "" {
		cfg.RefreshSchedule = "@every 30s"
	}
	if cfg.MaxNodes < 1 {
		cfg.MaxNodes = 1
	}
	if cfg.MaxConnectionsPerIP < 0 {
		cfg.MaxConnectionsPerIP = 0
	}

	for _, p := range []*string{&cfg.SSHHostKeyPath, &cfg.FeedPath, &cfg.FortunesPath, &cfg.HistoryPath, &cfg.LogFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}
}

// LoadFortunes loads fortune lines from a plain text file, one per line.
// A missing file yields no fortunes.
func LoadFortunes(filePath string) ([]string, error) {
	log.Printf("INFO: Loading fortunes from %s", filePath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("WARN: fortunes file not found at %s. No fortunes loaded.", filePath)
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read fortunes file %s: %w", filePath, err)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	fortunes := []string{}
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			fortunes = append(fortunes, line)
		}
	}

	log.Printf("INFO: Successfully loaded %d fortunes.", len(fortunes))
	return fortunes, nil
}

// Package config stores user configuration for bdctl: device aliases, the
// default device, and request preferences. The web-interface password is
// never stored; it is a flag or a prompt, every time.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "bdctl"
	configFile = "config.yaml"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// Registry represents the entire user configuration file.
type Registry struct {
	Version int `yaml:"version"`
	// DefaultDevice is the alias used when no --device flag is given
	DefaultDevice string `yaml:"default_device,omitempty"`
	// Devices maps a user-chosen alias to device details
	Devices     map[string]*Device `yaml:"devices,omitempty"`
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents a known device under a user-chosen alias.
type Device struct {
	Host     string    `yaml:"host"`                // IP, hostname, or URL
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last successful connection
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	// RequestTimeout is the HTTP timeout in seconds (0 = client default)
	RequestTimeout int `yaml:"request_timeout,omitempty"`
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Devices:     make(map[string]*Device),
		Preferences: &Preferences{},
	}
}

// GetConfigDir returns the OS-appropriate configuration directory.
//   - Linux: $XDG_CONFIG_HOME/bdctl or $HOME/.config/bdctl
//   - macOS: $HOME/.config/bdctl (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\bdctl
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		// Linux and other Unix-like systems
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

func ensureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// Load loads the registry from disk. A missing file yields a new default
// registry rather than an error.
func Load() (*Registry, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return NewRegistry(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if registry.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", registry.Version)
	}

	if registry.Devices == nil {
		registry.Devices = make(map[string]*Device)
	}
	if registry.Preferences == nil {
		registry.Preferences = &Preferences{}
	}

	return &registry, nil
}

// Save saves the registry to disk with an atomic write to prevent
// corruption on crash.
func (r *Registry) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := ensureConfigDir(); err != nil {
		return err
	}
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# bdctl configuration file
# Stores device aliases and preferences.
#
# Security note: the device web-interface password is NEVER stored here.
# Pass it with --password or let bdctl prompt for it.

`)
	data = append(header, data...)

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Resolve turns a --device argument into a device host. An alias from the
// registry resolves to its stored host; anything else is taken as a literal
// host. An empty argument falls back to the default device.
func (r *Registry) Resolve(deviceArg string) (string, error) {
	if deviceArg == "" {
		if r.DefaultDevice == "" {
			return "", fmt.Errorf("no device given and no default device configured (see 'bdctl device')")
		}
		deviceArg = r.DefaultDevice
	}
	if device, ok := r.Devices[deviceArg]; ok {
		return device.Host, nil
	}
	return deviceArg, nil
}

// AddDevice registers a device alias. The first registered device becomes
// the default.
func (r *Registry) AddDevice(alias, host string) {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	r.Devices[alias] = &Device{Host: host}
	if r.DefaultDevice == "" {
		r.DefaultDevice = alias
	}
}

// RemoveDevice removes a device alias. Removing the default device clears
// the default.
func (r *Registry) RemoveDevice(alias string) bool {
	if _, ok := r.Devices[alias]; !ok {
		return false
	}
	delete(r.Devices, alias)
	if r.DefaultDevice == alias {
		r.DefaultDevice = ""
	}
	return true
}

// SetDefault marks an existing alias as the default device.
func (r *Registry) SetDefault(alias string) error {
	if _, ok := r.Devices[alias]; !ok {
		return fmt.Errorf("unknown device alias %q", alias)
	}
	r.DefaultDevice = alias
	return nil
}

// Aliases returns the registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	aliases := make([]string, 0, len(r.Devices))
	for alias := range r.Devices {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// MarkSeen records a successful connection to the aliased device.
func (r *Registry) MarkSeen(alias string) {
	if device, ok := r.Devices[alias]; ok {
		device.LastSeen = time.Now()
	}
}

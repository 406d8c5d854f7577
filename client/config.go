package main

import (
	"encoding/json"
	"os"
)

// Config is the client's local configuration, persisted as JSON next to the
// binary and auto-created with defaults on first run. Environment variables
// (optionally from a .env file) override the file.
type Config struct {
	ServerHost string `json:"server_host"`
	LogFile    string `json:"log_file"`

	configFile string
}

func NewConfig(filename string) *Config {
	if filename == "" {
		filename = "corddisc.json"
	}
	return &Config{
		configFile: filename,
		// Defaults
		ServerHost: "localhost:8999",
		LogFile:    "corddisc.log",
	}
}

func (c *Config) Load() error {
	if _, err := os.Stat(c.configFile); os.IsNotExist(err) {
		// Create default config if not exists
		if err := c.save(); err != nil {
			return err
		}
	} else {
		data, err := os.ReadFile(c.configFile)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, c); err != nil {
			return err
		}
		// Auto-update config file with any missing fields (defaults)
		if err := c.save(); err != nil {
			return err
		}
	}

	if host := os.Getenv("CORDDISC_SERVER"); host != "" {
		c.ServerHost = host
	}
	if logFile := os.Getenv("CORDDISC_LOG"); logFile != "" {
		c.LogFile = logFile
	}
	return nil
}

func (c *Config) save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.configFile, data, 0644)
}

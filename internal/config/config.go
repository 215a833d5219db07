// Package config is used to load the configuration file
package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

type tools struct {
	Img4     string `mapstructure:"img4"`
	Xpwntool string `mapstructure:"xpwntool"`
}

type decrypt struct {
	Wait bool `mapstructure:"wait"`
}

type batch struct {
	Jobs int `mapstructure:"jobs"`
}

// Config is the configuration struct
type Config struct {
	Tools   tools   `mapstructure:"tools"`
	Decrypt decrypt `mapstructure:"decrypt"`
	Batch   batch   `mapstructure:"batch"`
	Verbose bool    `mapstructure:"verbose"`
	Color   bool    `mapstructure:"color"`
}

// SetDefaults registers the default values with viper
func SetDefaults(v *viper.Viper) {
	v.SetDefault("tools.img4", "img4")
	v.SetDefault("tools.xpwntool", "xpwntool")
	v.SetDefault("decrypt.wait", false)
	v.SetDefault("batch.jobs", runtime.NumCPU())
}

func (c *Config) verify() error {
	if c.Tools.Img4 == "" {
		c.Tools.Img4 = "img4"
	}
	if c.Tools.Xpwntool == "" {
		c.Tools.Xpwntool = "xpwntool"
	}
	if c.Batch.Jobs < 0 {
		return fmt.Errorf("config: batch.jobs must not be negative (got %d)", c.Batch.Jobs)
	} else if c.Batch.Jobs == 0 {
		c.Batch.Jobs = runtime.NumCPU()
	}
	return nil
}

// LoadConfig loads the configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load loads the configuration from v
func Load(v *viper.Viper) (*Config, error) {
	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %v", err)
	}

	if err := c.verify(); err != nil {
		return nil, fmt.Errorf("config: failed to verify: %v", err)
	}

	return &c, nil
}

// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReaderConfig stores the read-ahead entry reader's own tunables.
type ReaderConfig struct {
	// ReadAheadMaxRecords bounds how many entries may sit in the cache ahead of the consumer.
	ReadAheadMaxRecords int `yaml:"readAheadMaxRecords"`
	// ReadAheadBatchSize is the number of entries requested per ReadNext call against a segment.
	ReadAheadBatchSize int `yaml:"readAheadBatchSize"`
	// IdleWarnThreshold is how long the reader may go without adding an entry to its cache before the idle detector force-refreshes metadata.
	IdleWarnThreshold DurationMilliseconds `yaml:"readerIdleWarnThresholdMillis"`
	// IdleCheckInterval is how often the idle detector probes.
	IdleCheckInterval DurationMilliseconds `yaml:"idleCheckIntervalMillis"`
	// IgnoreTruncationStatus disables AlreadyTruncated rejection on positioning.
	IgnoreTruncationStatus bool `yaml:"ignoreTruncationStatus"`
	// AlertWhenPositioningOnTruncated logs a warning (rather than silently complying) when a position lands inside a partially-truncated segment.
	AlertWhenPositioningOnTruncated bool `yaml:"alertWhenPositioningOnTruncated"`
}

// EtcdSslConfig stores the ETCD SSL configuration.
type EtcdSslConfig struct {
	Enabled       bool   `yaml:"enabled"`
	TlsCert       string `yaml:"tlsCert"`
	TlsKey        string `yaml:"tlsKey"`
	TlsCACert     string `yaml:"tlsCACert"`
	TlsMinVersion string `yaml:"tlsMinVersion"`
}

// EtcdUseConfig stores the ETCD usage configuration.
type EtcdUseConfig struct {
	Embed bool `yaml:"embed"`
}

// EtcdLogConfig stores the ETCD log configuration.
type EtcdLogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// EtcdConfig stores the ETCD metadata-source configuration.
type EtcdConfig struct {
	Endpoints      string        `yaml:"endpoints"`
	RootPath       string        `yaml:"rootPath"`
	MetaSubPath    string        `yaml:"metaSubPath"`
	Log            EtcdLogConfig `yaml:"log"`
	Ssl            EtcdSslConfig `yaml:"ssl"`
	RequestTimeout int           `yaml:"requestTimeout"`
	Use            EtcdUseConfig `yaml:"use"`
}

func (etcdCfg *EtcdConfig) GetEndpoints() []string {
	if len(etcdCfg.Endpoints) == 0 {
		return []string{}
	}
	return strings.Split(etcdCfg.Endpoints, ",")
}

// StoreConfig stores the gRPC entry-store client configuration.
type StoreConfig struct {
	DialTimeout DurationMilliseconds `yaml:"dialTimeoutMillis"`
	CallTimeout DurationMilliseconds `yaml:"callTimeoutMillis"`
	MaxRetries  int                  `yaml:"maxRetries"`
}

// LogFileConfig stores the log file configuration.
type LogFileConfig struct {
	RootPath   string `yaml:"rootPath"`
	MaxSize    int    `yaml:"maxSize"`
	MaxAge     int    `yaml:"maxAge"`
	MaxBackups int    `yaml:"maxBackups"`
}

// LogConfig stores the logger configuration.
type LogConfig struct {
	Level  string        `yaml:"level"`
	File   LogFileConfig `yaml:"file"`
	Format string        `yaml:"format"`
	Stdout bool          `yaml:"stdout"`
}

// MetricsConfig stores the Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// Configuration is the complete reader process configuration.
type Configuration struct {
	Reader  ReaderConfig  `yaml:"reader"`
	Log     LogConfig     `yaml:"log"`
	Etcd    EtcdConfig    `yaml:"etcd"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// NewConfiguration builds a Configuration from defaults, then layers each
// YAML file in order (later files override earlier ones and the defaults).
func NewConfiguration(files ...string) (*Configuration, error) {
	cfg := &Configuration{
		Reader:  getDefaultReaderConfig(),
		Log:     getDefaultLoggerConfig(),
		Etcd:    getDefaultEtcdConfig(),
		Store:   getDefaultStoreConfig(),
		Metrics: getDefaultMetricsConfig(),
	}
	if len(files) == 0 {
		return cfg, nil
	}

	for _, filePath := range files {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func getDefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		ReadAheadMaxRecords:             1000,
		ReadAheadBatchSize:              10,
		IdleWarnThreshold:               NewDurationMillisecondsFromInt(5000),
		IdleCheckInterval:               NewDurationMillisecondsFromInt(1000),
		IgnoreTruncationStatus:          false,
		AlertWhenPositioningOnTruncated: true,
	}
}

func getDefaultLoggerConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
		Stdout: true,
		File: LogFileConfig{
			RootPath:   "./logs",
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
		},
	}
}

func getDefaultEtcdConfig() EtcdConfig {
	return EtcdConfig{
		Endpoints:      "localhost:2379",
		RootPath:       "dlreader",
		MetaSubPath:    "meta",
		Log:            EtcdLogConfig{Level: "info", Path: "./logs"},
		Ssl:            EtcdSslConfig{Enabled: false},
		RequestTimeout: 10,
		Use:            EtcdUseConfig{Embed: false},
	}
}

func getDefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DialTimeout: NewDurationMillisecondsFromInt(3000),
		CallTimeout: NewDurationMillisecondsFromInt(5000),
		MaxRetries:  3,
	}
}

func getDefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: true,
		Port:    9599,
		Path:    "/metrics",
	}
}

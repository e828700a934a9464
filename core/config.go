package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/signatory-io/bls-core/crypto/bls"
	"github.com/signatory-io/bls-core/crypto/bls/coord"
	"github.com/signatory-io/bls-core/crypto/keystore"
	"github.com/signatory-io/bls-core/logger"
	"github.com/signatory-io/bls-core/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type BLSConfig struct {
	DST           string     `yaml:"dst"`
	BlindingBytes int        `yaml:"blinding_bytes"`
	Form          coord.Form `yaml:"form"` // coordinate form of decoded points: [jacobian, affine]
}

type KeystoreConfig struct {
	KDF     string `yaml:"kdf"` // [scrypt, pbkdf2]
	ScryptN int    `yaml:"scrypt_n,omitempty"`
	PBKDF2C int    `yaml:"pbkdf2_c,omitempty"`
}

type Config struct {
	BasePath string         `yaml:"base_path"`
	LogLevel logger.Level   `yaml:"log_level"`
	Workers  int            `yaml:"workers"` // 0 means GOMAXPROCS
	BLS      BLSConfig      `yaml:"bls"`
	Keystore KeystoreConfig `yaml:"keystore"`
}

const DefaultConfigFile = "config.yaml"

func (c *Config) Default() {
	*c = Config{
		LogLevel: logger.LevelInfo,
		BLS: BLSConfig{
			DST:           bls.DST,
			BlindingBytes: bls.DefaultRandBytes,
			Form:          coord.Jacobian,
		},
		Keystore: KeystoreConfig{
			KDF:     keystore.DefaultOptions.KDF,
			ScryptN: keystore.DefaultOptions.ScryptN,
			PBKDF2C: keystore.DefaultOptions.PBKDF2C,
		},
	}
	if dir, err := os.UserHomeDir(); err == nil {
		c.BasePath = filepath.Join(dir, ".bls-cli")
	}
}

func LoadConfig[T any](conf T, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(buf, conf)
}

func (c *Config) RegisterFlags(f *pflag.FlagSet, cmd *cobra.Command) {
	f.StringP("base-dir", "b", c.BasePath, "Base directory")
	f.StringP("config-file", "c", DefaultConfigFile, "Configuration file path (absolute or relative to the base directory)")
	f.TextVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Log level: [error, warn, info, debug, trace]")
	f.IntVarP(&c.Workers, "workers", "w", c.Workers, "Maximum number of concurrent operations, 0 means the number of CPUs")
	f.StringVar(&c.BLS.DST, "dst", c.BLS.DST, "Hash to curve domain separation tag")
	f.IntVar(&c.BLS.BlindingBytes, "blinding-bytes", c.BLS.BlindingBytes, fmt.Sprintf("Size of batch verification blinding scalars in bytes [%d..%d]", bls.MinRandBytes, bls.MaxRandBytes))

	cmd.MarkFlagFilename("config-file")
	cmd.MarkFlagDirname("base-dir")
}

// FromCmdline loads the configuration file, if requested and present, and
// applies explicitly set flags on top of it
func (c *Config) FromCmdline(loadFromFile bool, f *pflag.FlagSet) error {
	baseDir, err := f.GetString("base-dir")
	if err != nil {
		panic(err)
	}
	// flags are bound to the struct fields, keep them across the file load
	override := *c
	if loadFromFile {
		confPath, err := f.GetString("config-file")
		if err != nil {
			panic(err)
		}
		if err := LoadConfig(c, GetPath(confPath, baseDir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if f.Changed("base-dir") {
		c.BasePath = baseDir
	}
	if f.Changed("log-level") {
		c.LogLevel = override.LogLevel
	}
	if f.Changed("workers") {
		c.Workers = override.Workers
	}
	if f.Changed("dst") {
		c.BLS.DST = override.BLS.DST
	}
	if f.Changed("blinding-bytes") {
		c.BLS.BlindingBytes = override.BLS.BlindingBytes
	}
	return nil
}

// NewBLSConfig returns the validated immutable library configuration
func (c *Config) NewBLSConfig() (*bls.Config, error) {
	return bls.NewConfig(c.BLS.DST, c.BLS.BlindingBytes)
}

func (c *Config) NewLogger(out io.Writer) logger.Logger {
	return logger.NewLogrus(out, c.LogLevel)
}

func (c *Config) NewEngine(log logger.Logger) (*bls.Engine, error) {
	conf, err := c.NewBLSConfig()
	if err != nil {
		return nil, err
	}
	return bls.NewEngine(conf, worker.NewPool(c.Workers), log)
}

func (c *Config) KeystoreOptions() *keystore.Options {
	return &keystore.Options{
		KDF:     c.Keystore.KDF,
		ScryptN: c.Keystore.ScryptN,
		PBKDF2C: c.Keystore.PBKDF2C,
	}
}

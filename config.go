package paranoia

import (
	"fmt"

	"github.com/spf13/viper"
)

// TableConfig is the file representation of one table's marker configuration.
type TableConfig struct {
	Table      string `mapstructure:"table"`
	Column     string `mapstructure:"column"`
	ColumnType string `mapstructure:"column_type"`
}

// FileConfig is the file representation of a soft delete setup.
type FileConfig struct {
	Tables []TableConfig `mapstructure:"tables"`
}

// LoadConfig reads a soft delete configuration file (YAML, with environment
// overrides) from path/filename.
func LoadConfig(path string, filename string) (*FileConfig, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg FileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MarkerConfig converts the file entry into a registry Config. An unknown
// column type fails with ErrConfiguration.
func (c TableConfig) MarkerConfig() (Config, error) {
	scheme, err := ParseScheme(c.ColumnType)
	if err != nil {
		return Config{}, err
	}
	return Config{Column: c.Column, ColumnType: scheme}, nil
}

// RegisterFromConfig registers record type T using the file entry for table.
func RegisterFromConfig[T any](r *Registry, fc *FileConfig, table string) error {
	for _, tc := range fc.Tables {
		if tc.Table != table {
			continue
		}
		cfg, err := tc.MarkerConfig()
		if err != nil {
			return err
		}
		return Register[T](r, cfg)
	}
	return fmt.Errorf("%w: table %q not present in configuration", ErrConfiguration, table)
}

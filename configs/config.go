package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Prettify bool   `mapstructure:"prettify"`
}

type EthRPCConfig struct {
	URL string `mapstructure:"url"`
}

type ChainRPCConfig struct {
	URL string `mapstructure:"url"`
}

type RPCConfig struct {
	Eth   EthRPCConfig   `mapstructure:"eth"`
	Chain ChainRPCConfig `mapstructure:"chain"`
}

type ExecutorConfig struct {
	URL string `mapstructure:"url"`
}

type RuntimeConfig struct {
	// Path to a tracing-capable runtime wasm build. Production runtimes do
	// not expose the tracing entry points, so this is mandatory.
	WasmPath string `mapstructure:"wasmPath"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type CacheConfig struct {
	// Directory for the badger-backed remote storage read cache. Caching is
	// disabled when empty.
	Dir string `mapstructure:"dir"`
}

type APIConfig struct {
	Host string `mapstructure:"host"`
}

type Config struct {
	RPC      RPCConfig      `mapstructure:"rpc"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Runtime  RuntimeConfig  `mapstructure:"runtime"`
	Output   OutputConfig   `mapstructure:"output"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
	API      APIConfig      `mapstructure:"api"`
}

var Cfg Config

func LoadConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")

		// a config file is optional, everything can come from flags and env
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading config file, %s", err)
			}
		}
	}

	// sets e.g. RPC_ETH_URL to rpc.eth.url
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}

	return nil
}

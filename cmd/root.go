package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	configs "github.com/tracelabs/evmtracer/configs"
	customLogger "github.com/tracelabs/evmtracer/internal/log"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "evmtracer",
		Short: "Replay a historical block and trace an EVM transaction",
		Long:  "evmtracer forks chain state at a transaction's parent block, replays the preceding extrinsics through a tracing-capable runtime build and emits the transaction's call trace.",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yml)")
	rootCmd.PersistentFlags().String("rpc-eth-url", "", "eth-compatible RPC url used to look up the target transaction")
	rootCmd.PersistentFlags().String("rpc-chain-url", "", "chain RPC url used to resolve blocks and storage")
	rootCmd.PersistentFlags().String("executor-url", "", "websocket url of the wasm executor sidecar")
	rootCmd.PersistentFlags().String("runtime-wasm-path", "", "path to a tracing-capable runtime wasm build")
	rootCmd.PersistentFlags().String("output-dir", "", "directory to write trace artifacts to (default is the working directory)")
	rootCmd.PersistentFlags().String("cache-dir", "", "directory for the storage read cache (disabled when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	rootCmd.PersistentFlags().String("api-host", "", "Address for the API server to listen on")
	viper.BindPFlag("rpc.eth.url", rootCmd.PersistentFlags().Lookup("rpc-eth-url"))
	viper.BindPFlag("rpc.chain.url", rootCmd.PersistentFlags().Lookup("rpc-chain-url"))
	viper.BindPFlag("executor.url", rootCmd.PersistentFlags().Lookup("executor-url"))
	viper.BindPFlag("runtime.wasmPath", rootCmd.PersistentFlags().Lookup("runtime-wasm-path"))
	viper.BindPFlag("output.dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	viper.BindPFlag("cache.dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.prettify", rootCmd.PersistentFlags().Lookup("log-prettify"))
	viper.BindPFlag("api.host", rootCmd.PersistentFlags().Lookup("api-host"))
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	configs.LoadConfig(cfgFile)
	customLogger.InitLogger()
}

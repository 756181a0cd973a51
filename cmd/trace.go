package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	config "github.com/tracelabs/evmtracer/configs"
	"github.com/tracelabs/evmtracer/internal/chain"
	"github.com/tracelabs/evmtracer/internal/replayer"
)

var (
	traceTxHash string

	traceCmd = &cobra.Command{
		Use:   "trace",
		Short: "Replay and trace a single transaction",
		Long:  "Runs one trace session: locates the transaction, forks at its parent block, replays the preceding extrinsics and writes the call trace artifact.",
		Run: func(cmd *cobra.Command, args []string) {
			RunTrace(cmd, args)
		},
	}
)

func init() {
	traceCmd.Flags().StringVar(&traceTxHash, "tx", "", "hash of the transaction to trace")
	traceCmd.MarkFlagRequired("tx")
}

func RunTrace(cmd *cobra.Command, args []string) {
	if len(traceTxHash) != 66 || !strings.HasPrefix(traceTxHash, "0x") {
		log.Fatal().Str("tx", traceTxHash).Msg("Invalid transaction hash")
	}
	txHash := common.HexToHash(traceTxHash)

	var cache *chain.Cache
	if config.Cfg.Cache.Dir != "" {
		var err error
		cache, err = chain.NewCache(config.Cfg.Cache.Dir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open storage cache")
		}
		defer cache.Close()
	}

	session, cleanup, err := replayer.NewSessionFromConfig(cache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare trace session")
	}
	defer cleanup()

	path, err := session.Run(context.Background(), txHash)
	if err != nil {
		log.Fatal().Err(err).Str("tx", txHash.Hex()).Msg("Trace session aborted")
	}

	log.Info().Str("tx", txHash.Hex()).Str("path", path).Msg("Trace complete")
	os.Exit(0)
}

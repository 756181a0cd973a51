package handlers

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tracelabs/evmtracer/api"
	config "github.com/tracelabs/evmtracer/configs"
	"github.com/tracelabs/evmtracer/internal/chain"
	"github.com/tracelabs/evmtracer/internal/replayer"
)

var (
	storageCache     *chain.Cache
	storageCacheErr  error
	storageCacheOnce sync.Once
)

// getStorageCache opens the shared badger cache at most once per process;
// badger holds an exclusive directory lock.
func getStorageCache() (*chain.Cache, error) {
	storageCacheOnce.Do(func() {
		if config.Cfg.Cache.Dir == "" {
			return
		}
		storageCache, storageCacheErr = chain.NewCache(config.Cfg.Cache.Dir)
	})
	return storageCache, storageCacheErr
}

func parseTxHash(c *gin.Context) (common.Hash, error) {
	param := strings.ToLower(c.Param("txHash"))
	if !strings.HasPrefix(param, "0x") || len(param) != 66 {
		return common.Hash{}, fmt.Errorf("invalid transaction hash %q", c.Param("txHash"))
	}
	return common.HexToHash(param), nil
}

// TraceTransaction replays the transaction's block and responds with the
// decoded call trace array. Each request runs as an independent session.
func TraceTransaction(c *gin.Context) {
	txHash, err := parseTxHash(c)
	if err != nil {
		api.BadRequestErrorHandler(c, err)
		return
	}

	cache, err := getStorageCache()
	if err != nil {
		log.Error().Err(err).Msg("Error opening storage cache")
		api.InternalErrorHandler(c)
		return
	}

	session, cleanup, err := replayer.NewSessionFromConfig(cache)
	if err != nil {
		log.Error().Err(err).Msg("Error preparing trace session")
		api.InternalErrorHandler(c)
		return
	}
	defer cleanup()

	path, err := session.Run(c.Request.Context(), txHash)
	if err != nil {
		api.NotFoundErrorHandler(c, err)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Msg("Error reading trace artifact")
		api.InternalErrorHandler(c)
		return
	}
	c.Data(200, "application/json", data)
}

package limits

// The externally visible gas value of an EVM transaction on the chain packs
// both runtime resource limits into its low decimal digits:
//
//	gas % 100000 = encodedGasLimit*100 + encodedStorageLimit
//
// where the real gas limit is encodedGasLimit*30000 and the storage limit is
// 2^encodedStorageLimit bytes. The exponent is capped at log2 of the block
// storage quota. Traces only reproduce real execution when this decomposition
// matches the runtime's bit for bit, so none of it is configurable.
const (
	gasLimitStep = 30_000

	// log2(BLOCK_STORAGE_LIMIT), a protocol constant
	maxStorageLimitLog2 = 21
)

// Derive splits a reported gas value into the (gasLimit, storageLimit) pair
// consumed by runtime calls. It is a pure function of its input.
func Derive(gas uint64) (gasLimit uint64, storageLimit uint32) {
	packed := gas % 100_000
	encodedGasLimit := packed / 100
	encodedStorageLimit := packed % 100

	gasLimit = encodedGasLimit * gasLimitStep
	if encodedStorageLimit > maxStorageLimitLog2 {
		encodedStorageLimit = maxStorageLimitLog2
	}
	storageLimit = uint32(1) << encodedStorageLimit
	return gasLimit, storageLimit
}

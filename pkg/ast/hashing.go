package ast

import (
	"encoding/binary"
	"sync"

	"github.com/minio/highwayhash"
)

// hashKey is a fixed 32-byte HighwayHash key. Using a fixed key (rather than
// a random one) is what makes ErrorNode.ErrorID and DataNode.FileHash stable
// across compiles.
var hashKey = []byte("flint-lang-stable-id-key-0000000")

var hasherPool = sync.Pool{
	New: func() interface{} {
		h, err := highwayhash.New64(hashKey)
		if err != nil {
			// hashKey is a compile-time constant of the required length;
			// New64 can only fail on a malformed key.
			panic("ast: invalid HighwayHash key: " + err.Error())
		}
		return h
	},
}

// stableHash64 computes a deterministic 64-bit hash of name qualified by an
// ordinal (e.g. declaration order within the file), so that identical
// inputs, such as the same entity recompiled, always hash identically.
func stableHash64(name string, ordinal uint64) uint64 {
	h := hasherPool.Get().(interface {
		Write([]byte) (int, error)
		Sum64() uint64
		Reset()
	})
	defer func() {
		h.Reset()
		hasherPool.Put(h)
	}()

	var ordBuf [8]byte
	binary.LittleEndian.PutUint64(ordBuf[:], ordinal)

	_, _ = h.Write([]byte(name))
	_, _ = h.Write(ordBuf[:])
	return h.Sum64()
}

// ComputeFileHash computes DataNode.FileHash: a stable hash of the data
// type's name and the path of the file it was declared in.
func ComputeFileHash(dataName, filePath string) uint64 {
	return stableHash64(dataName+"\x00"+filePath, 0)
}

// ComputeErrorID computes ErrorNode.ErrorID: a stable hash of the error
// set's name, distinguished from any DataNode of the same name by a fixed
// namespace ordinal.
func ComputeErrorID(errorSetName string) uint64 {
	const errorNamespace uint64 = 0x5f45525230 // "_ERR0"; namespaces error ids away from file hashes
	return stableHash64(errorSetName, errorNamespace)
}

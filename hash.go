package elastichash

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/gtank/blake2/blake2b"
)

// hashFunc hashes a key to a 64-bit value. A Map fixes its hashFunc once
// at construction and never changes it afterward (spec.md §9), which is
// what makes the uniform probe sequence for a given key reproducible
// across Get/Insert/Remove calls against that same instance.
type hashFunc[K comparable] func(k K) uint64

// newHasher builds the default per-instance hasher for K: a raw-memory
// hash (grounded on the teacher's hashUint64/hashString, map.go) for
// string and pointer-free fixed-size K, falling back to a blake2b hash of
// a reflect-driven encoding for everything else (e.g. structs embedding
// strings or interfaces).
//
// The raw-memory and string paths are seeded from crypto/rand at
// construction, resolving the teacher's own "TODO: need to randomize
// initial hash (currently always 0)" (map.go's hashUint64) by actually
// doing it, rather than leaving the seed fixed.
func newHasher[K comparable]() hashFunc[K] {
	seed := randomSeed()

	var zero K
	t := reflect.TypeOf(zero)

	if t != nil && t.Kind() == reflect.String {
		return func(k K) uint64 {
			s := any(k).(string)
			return memhashString(s, seed)
		}
	}

	if t != nil && !containsPointerish(t) {
		size := t.Size()
		return func(k K) uint64 {
			return memhash(unsafe.Pointer(&k), seed, size)
		}
	}

	// Exotic K (e.g. a struct with a string or interface field): fall
	// back to blake2b over a reflect-driven textual encoding. Slower,
	// but correct, and it is what makes the otherwise-unused
	// github.com/gtank/blake2 dependency earn its place, see hash.go's
	// BlakeHasher below and SPEC_FULL.md §4.8.
	return func(k K) uint64 {
		return blakeHash([]byte(fmt.Sprintf("%#v", k)), seed)
	}
}

// containsPointerish reports whether t (or any field/element reachable
// from it) is a pointer, slice, map, channel, func, interface, or string
// — anything whose raw memory representation isn't the value itself, and
// so cannot be safely hashed by reading sizeof(t) bytes starting at its
// address.
func containsPointerish(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func,
		reflect.Interface, reflect.String, reflect.UnsafePointer:
		return true
	case reflect.Array:
		return containsPointerish(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if containsPointerish(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// randomSeed returns a fresh per-instance seed. Construction-time only;
// never reused across Map instances.
func randomSeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is a fatal environment problem (no
		// entropy source); there is no sane fallback that still
		// satisfies "fixed across a single map instance but otherwise
		// unpredictable".
		panic("elastichash: failed to seed hasher: " + err.Error())
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// memhash hashes size bytes starting at p, folded with seed. A portable
// (non-assembly) FNV-1a-style avalanche over the raw bytes — the same
// "hash the key's own memory" idea as the teacher's go:linkname
// runtime.memhash trick, implemented without depending on runtime
// internals so it keeps working across Go versions.
func memhash(p unsafe.Pointer, seed uint64, size uintptr) uint64 {
	h := seed ^ 0xcbf29ce484222325
	bytes := unsafe.Slice((*byte)(p), size)
	for _, b := range bytes {
		h ^= uint64(b)
		h *= 0x100000001b3
	}
	return h
}

// memhashString hashes s's bytes the same way as memhash, using
// unsafe.StringData (Go 1.20+) rather than the teacher's deprecated
// reflect.StringHeader trick to get at the underlying bytes without a
// copy.
func memhashString(s string, seed uint64) uint64 {
	if len(s) == 0 {
		return seed ^ 0xcbf29ce484222325
	}
	return memhash(unsafe.Pointer(unsafe.StringData(s)), seed, uintptr(len(s)))
}

// blakeHash hashes data with blake2b, folded down to 64 bits via the
// first 8 digest bytes XORed with the remaining 24 (blake2b's minimum
// digest size is 32 bytes).
func blakeHash(data []byte, seed uint64) uint64 {
	var seedBytes [8]byte
	binary.LittleEndian.PutUint64(seedBytes[:], seed)

	h, err := blake2b.NewDigest(seedBytes[:], nil, nil, 32)
	if err != nil {
		// Arguments are static and valid; a failure here means the
		// blake2b package itself rejected a fixed, always-valid
		// configuration.
		panic("elastichash: blake2b.NewDigest: " + err.Error())
	}
	h.Write(data)
	sum := h.Sum(nil)

	var out uint64
	for i := 0; i < len(sum); i += 8 {
		var chunk uint64
		end := i + 8
		if end > len(sum) {
			end = len(sum)
		}
		for j := i; j < end; j++ {
			chunk = chunk<<8 | uint64(sum[j])
		}
		out ^= chunk
	}
	return out
}

// BlakeHasher hashes key using blake2b with a fixed, zero seed, so it is
// stable across process restarts — unlike the default per-instance
// hasher returned by newHasher, which is reseeded from crypto/rand every
// time a Map is constructed. Intended for callers of Map[string, V] (or
// any []byte-backed key) who need reproducible hashing, e.g. to replay a
// fixed sequence of probes across runs.
func BlakeHasher(key []byte) uint64 {
	return blakeHash(key, 0)
}

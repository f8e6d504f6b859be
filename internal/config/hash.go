package config

import (
	"encoding/json"
	"hash/maphash"
)

// fingerprintSeed is per process; fingerprints are never persisted.
var fingerprintSeed = maphash.MakeSeed()

// fingerprint identifies the content of cfg, secrets included, so a reload
// that only rotates a token is still published. It returns 0 for nil or
// unencodable configs, which never match.
func fingerprint(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	b, err := json.Marshal(cfg)
	if err != nil || len(b) == 0 {
		return 0
	}
	return maphash.Bytes(fingerprintSeed, b)
}

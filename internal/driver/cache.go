package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// cacheSchemaVersion invalidates on-disk payloads when the format changes.
const cacheSchemaVersion uint16 = 1

// Digest identifies one (content, options) combination.
type Digest [sha256.Size]byte

// DiskCache remembers formatting results keyed by content digest, so a
// second run over an unchanged tree skips the pipeline entirely. Safe for
// concurrent use; a nil *DiskCache is a no-op.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// cachePayload is the msgpack-encoded cache entry.
type cachePayload struct {
	Schema    uint16
	Formatted []byte
}

// OpenDiskCache initializes the cache under dir, or under the conventional
// user cache location when dir is empty.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "flowfmt")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "files", hexKey+".mp")
}

// Lookup returns the cached formatted output for key.
func (c *DiskCache) Lookup(key Digest) (bool, []byte) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		return false, nil
	}
	defer f.Close()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return false, nil
	}
	if payload.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, payload.Formatted
}

// Store writes the formatted output for key, atomically.
func (c *DiskCache) Store(key Digest, formatted []byte) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return
	}
	payload := cachePayload{Schema: cacheSchemaVersion, Formatted: formatted}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return
	}
	if err := os.Rename(f.Name(), p); err != nil {
		os.Remove(f.Name())
	}
}

// DropAll clears the cache directory.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(filepath.Join(c.dir, "files")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// cacheKey digests the source content together with every option that
// affects output, so config changes invalidate naturally.
func cacheKey(content []byte, opt Options) Digest {
	h := sha256.New()
	h.Write(content)

	var nums [8]byte
	binary.LittleEndian.PutUint32(nums[0:4], uint32(opt.Config.Format.LineLength))
	binary.LittleEndian.PutUint32(nums[4:8], uint32(opt.Config.Format.IndentWidth))
	h.Write(nums[:])

	h.Write([]byte(buildEngine(opt).Name()))
	for _, a := range opt.Config.Engine.Args {
		h.Write([]byte(a))
		h.Write([]byte{0})
	}

	var key Digest
	h.Sum(key[:0])
	return key
}

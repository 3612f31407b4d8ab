package manifest

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/freyafs/freyafs/internal/ferrors"
)

// salt is the fixed 16-byte Argon2id salt spec.md §6 mandates, so the
// same password always derives the same key for a given manifest.
var salt = []byte{0xD0, 0xE1, 0x03, 0xC2, 0x5A, 0x3C, 0x52, 0xAF, 0x5D, 0xFE, 0xD5, 0xBF, 0xF8, 0x75, 0x7C, 0x8F}

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	keySize      = 32
)

// DeriveKey derives the manifest AEAD key from password via Argon2id.
func DeriveKey(password []byte) *[32]byte {
	derived := argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, keySize)
	var key [32]byte
	copy(key[:], derived)
	return &key
}

// Load reads and decrypts the manifest at filename, returning
// (nil, nil) if the file does not exist yet — the fresh-mount case.
func Load(filename string, key *[32]byte) (*Manifest, error) {
	raw, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	enc, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, ferrors.New(ferrors.Corruption, "manifest.load", err)
	}
	if len(enc) < 24 {
		return nil, ferrors.New(ferrors.Corruption, "manifest.load", nil)
	}

	var nonce [24]byte
	copy(nonce[:], enc[:24])

	plain, ok := secretbox.Open(nil, enc[24:], &nonce, key)
	if !ok {
		return nil, ferrors.New(ferrors.AuthFailure, "manifest.load", nil)
	}

	return Unmarshal(plain)
}

// Save encrypts m under key with a fresh random nonce and atomically
// replaces filename (write to a temp file, then rename).
func Save(filename string, key *[32]byte, m *Manifest) error {
	plain, err := Marshal(m)
	if err != nil {
		return err
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return err
	}

	enc := secretbox.Seal(nonce[:], plain, &nonce, key)
	encoded := base64.StdEncoding.EncodeToString(enc)

	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, ".freyafs-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, filename)
}

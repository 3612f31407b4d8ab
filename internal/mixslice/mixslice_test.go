package mixslice

import (
	"bytes"
	"context"
	"crypto/rand"
	"testing"

	"github.com/freyafs/freyafs/internal/blockstore"
	"github.com/freyafs/freyafs/internal/mix"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, mix.MiniSize)
	iv := make([]byte, mix.MiniSize)
	rand.Read(key)
	rand.Read(iv)

	plain := make([]byte, mix.MacroSize*2+123)
	rand.Read(plain)

	store := blockstore.NewMemStore()
	ctx := context.Background()

	kept, cids, err := Encrypt(ctx, plain, key, iv, store)
	if err != nil {
		t.Fatal(err)
	}
	if len(kept)%SizeToKeep != 0 {
		t.Fatalf("kept length %d is not a multiple of SizeToKeep", len(kept))
	}
	if len(cids) != len(kept)/SizeToKeep {
		t.Fatalf("cid count %d does not match macroblock count %d", len(cids), len(kept)/SizeToKeep)
	}

	got, err := Decrypt(ctx, kept, key, iv, cids, store)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatal("decrypt(encrypt(x)) != x")
	}
}

func TestKeptPrefixAloneDoesNotRecoverPlaintext(t *testing.T) {
	key := make([]byte, mix.MiniSize)
	iv := make([]byte, mix.MiniSize)
	rand.Read(key)
	rand.Read(iv)

	plain := make([]byte, mix.MacroSize)
	rand.Read(plain)

	store := blockstore.NewMemStore()
	ctx := context.Background()

	kept, cids, err := Encrypt(ctx, plain, key, iv, store)
	if err != nil {
		t.Fatal(err)
	}

	emptyStore := blockstore.NewMemStore()
	if _, err := Decrypt(ctx, kept, key, iv, cids, emptyStore); err == nil {
		t.Fatal("decrypt should fail without the remote remainder")
	}
}

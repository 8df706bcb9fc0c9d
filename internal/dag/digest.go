package dag

import (
	"encoding/hex"
	"fmt"
	"strings"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

// DigestLen is the length of a full hex digest.
const DigestLen = 64

// Digest is the hex-encoded SHA2-256 of an object's serialized content.
// The empty Digest means "no object".
type Digest string

// Short returns the first n characters of the digest.
func (d Digest) Short(n int) string {
	if len(d) <= n {
		return string(d)
	}
	return string(d[:n])
}

func (d Digest) String() string {
	return string(d)
}

// Kind selects one of the object subareas.
type Kind int

const (
	KindBlob Kind = iota
	KindCommit
)

func (k Kind) String() string {
	if k == KindCommit {
		return "commit"
	}
	return "blob"
}

func (k Kind) dir() string {
	if k == KindCommit {
		return "commits"
	}
	return "blobs"
}

// codec is the multicodec recorded in the object's CID.
func (k Kind) codec() uint64 {
	if k == KindCommit {
		return gocid.DagJSON
	}
	return gocid.Raw
}

// HashBytes computes the digest of data without storing it.
func HashBytes(data []byte) Digest {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// SHA2_256 is always registered
		panic(fmt.Sprintf("multihash sha2-256: %v", err))
	}
	d, err := digestFromMultihash(mh)
	if err != nil {
		panic(err)
	}
	return d
}

func digestFromMultihash(mh multihash.Multihash) (Digest, error) {
	dec, err := multihash.Decode(mh)
	if err != nil {
		return "", fmt.Errorf("decode multihash: %w", err)
	}
	if dec.Code != multihash.SHA2_256 {
		return "", fmt.Errorf("unexpected hash function %s", dec.Name)
	}
	return Digest(hex.EncodeToString(dec.Digest)), nil
}

// CID returns the CIDv1 that addresses d as an object of the given kind.
func (d Digest) CID(kind Kind) (gocid.Cid, error) {
	raw, err := hex.DecodeString(string(d))
	if err != nil || len(raw) != DigestLen/2 {
		return gocid.Undef, fmt.Errorf("malformed digest %q", string(d))
	}
	mh, err := multihash.Encode(raw, multihash.SHA2_256)
	if err != nil {
		return gocid.Undef, fmt.Errorf("encode multihash: %w", err)
	}
	return gocid.NewCidV1(kind.codec(), mh), nil
}

// CIDToFilename returns the base32lower encoding of a CID for use as a filename.
func CIDToFilename(c gocid.Cid) string {
	encoded, _ := multibase.Encode(multibase.Base32, c.Bytes())
	return encoded
}

// ParseFilename recovers the digest from an object filename and checks that
// it was written for the expected kind.
func ParseFilename(name string, kind Kind) (Digest, error) {
	_, raw, err := multibase.Decode(strings.TrimSpace(name))
	if err != nil {
		return "", fmt.Errorf("decode object name %q: %w", name, err)
	}
	c, err := gocid.Cast(raw)
	if err != nil {
		return "", fmt.Errorf("cast object name %q: %w", name, err)
	}
	if c.Prefix().Codec != kind.codec() {
		return "", fmt.Errorf("object %q is not a %s", name, kind)
	}
	return digestFromMultihash(c.Hash())
}

// ValidPrefix reports whether s could be an abbreviation of a digest.
func ValidPrefix(s string) bool {
	if s == "" || len(s) > DigestLen {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

package protocol

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"slices"
	"sync"
)

// IdentitySize is the length of every BuildIdentity produced by Identity.
const IdentitySize = sha256.Size

//go:embed types.go command.go codec.go record.go errors.go identity.go
var definingSource embed.FS

// BuildIdentity is an opaque token naming the protocol revision a binary was
// built from. Equality is the only meaningful operation.
type BuildIdentity []byte

var buildIdentity = sync.OnceValue(func() BuildIdentity {
	entries, err := fs.ReadDir(definingSource, ".")
	if err != nil {
		panic(fmt.Sprintf("protocol: read embedded source: %v", err))
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	slices.Sort(names)

	sum := sha256.New()
	for _, name := range names {
		data, err := definingSource.ReadFile(name)
		if err != nil {
			panic(fmt.Sprintf("protocol: read embedded %s: %v", name, err))
		}
		sum.Write([]byte(name))
		sum.Write([]byte{0})
		sum.Write(data)
	}
	return BuildIdentity(sum.Sum(nil))
})

// Identity returns this build's identity. Callers receive their own copy.
func Identity() BuildIdentity {
	return slices.Clone(buildIdentity())
}

// Equal reports whether both identities have the same length and bytes.
func (b BuildIdentity) Equal(other BuildIdentity) bool {
	return bytes.Equal(b, other)
}

func (b BuildIdentity) String() string {
	if len(b) == 0 {
		return "<empty>"
	}
	return hex.EncodeToString(b)
}

// MarshalJSON encodes the identity as an array of byte values rather than
// the base64 string encoding/json uses for []byte.
func (b BuildIdentity) MarshalJSON() ([]byte, error) {
	values := make([]uint16, len(b))
	for i, v := range b {
		values[i] = uint16(v)
	}
	return json.Marshal(values)
}

// UnmarshalJSON accepts only a JSON array of integers in 0..255.
func (b *BuildIdentity) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return newDecodeError("BuildIdentity", "unexpected null", nil)
	}
	var values []json.RawMessage
	if err := json.Unmarshal(data, &values); err != nil {
		return newDecodeError("BuildIdentity", "expected array of byte values", err)
	}
	out := make(BuildIdentity, len(values))
	for i, raw := range values {
		if isNull(raw) {
			return newDecodeError("BuildIdentity", fmt.Sprintf("null byte value at index %d", i), nil)
		}
		var v uint8
		if err := json.Unmarshal(raw, &v); err != nil {
			return newDecodeError("BuildIdentity", fmt.Sprintf("byte value at index %d", i), err)
		}
		out[i] = v
	}
	*b = out
	return nil
}

package repositories

import (
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding so the same record always
// produces the same bytes on disk.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("repositories: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("repositories: CBOR decoder initialization failed: " + err.Error())
	}
}

func marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// keySep never appears in validated emails, property ids or uuids.
const keySep = "\x00"

// key builds "prefix:part1\x00part2..." keys.
func key(prefix string, parts ...string) []byte {
	return []byte(prefix + ":" + strings.Join(parts, keySep))
}

// scanPrefix is key() terminated by a separator, so that "a@x.com" does not
// also match "a@x.com.au".
func scanPrefix(prefix string, parts ...string) []byte {
	return append(key(prefix, parts...), keySep...)
}

// lastPart returns the trailing segment of an index key, the record id.
func lastPart(k []byte) string {
	s := string(k)
	if i := strings.LastIndex(s, keySep); i >= 0 {
		return s[i+len(keySep):]
	}
	return s
}

package contract

import (
	"encoding/hex"
	"reflect"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Normalize orders decoded outputs by name and canonicalizes binary and
// address values to text. The result depends only on the map's contents.
func Normalize(decoded map[string]interface{}) []interface{} {
	names := make([]string, 0, len(decoded))
	for name := range decoded {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]interface{}, 0, len(names))
	for _, name := range names {
		result = append(result, canonicalize(decoded[name]))
	}
	return result
}

func canonicalize(v interface{}) interface{} {
	switch value := v.(type) {
	case []byte:
		return hex.EncodeToString(value)
	case common.Address:
		return value.Hex()
	case *common.Address:
		if value == nil {
			return nil
		}
		return value.Hex()
	}

	// fixed-size byte arrays (bytes1..bytes32, common.Hash)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		for i := range b {
			b[i] = byte(rv.Index(i).Uint())
		}
		return hex.EncodeToString(b)
	}
	return v
}

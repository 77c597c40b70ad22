package contract

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
)

// hexPrefix marks hex-encoded binary data on the wire.
const hexPrefix = "0x"

// Codec packs call parameters and unpacks return data for a Function.
type Codec interface {
	Encode(fn *Function, params []Param) ([]byte, error)
	Decode(fn *Function, data []byte) (map[string]interface{}, error)
}

// ABICodec implements Codec with go-ethereum's ABI packing rules.
type ABICodec struct{}

// Encode returns the method selector followed by the packed arguments.
func (ABICodec) Encode(fn *Function, params []Param) ([]byte, error) {
	inputs := fn.Method.Inputs
	if len(inputs) != len(params) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(inputs), len(params))
	}

	args := make([]interface{}, len(params))
	for i, input := range inputs {
		v, err := params[i].abiValue(input.Type)
		if err != nil {
			return nil, fmt.Errorf("arg %d (%s): %w", i, input.Name, err)
		}
		args[i] = v.Interface()
	}

	packed, err := inputs.Pack(args...)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, fn.Method.ID...), packed...), nil
}

// Decode unpacks data into a map keyed by output name. Unnamed outputs
// are keyed by their position.
func (ABICodec) Decode(fn *Function, data []byte) (map[string]interface{}, error) {
	values, err := fn.Method.Outputs.Unpack(data)
	if err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, len(values))
	for i, arg := range fn.Method.Outputs {
		if i >= len(values) {
			break
		}
		out[outputKey(arg.Name, i)] = values[i]
	}
	return out, nil
}

func outputKey(name string, index int) string {
	if name == "" {
		return strconv.Itoa(index)
	}
	return name
}

// encodeCallData encodes params for fn into 0x-prefixed lowercase hex.
func encodeCallData(codec Codec, fn *Function, params []Param) (string, error) {
	data, err := codec.Encode(fn, params)
	if err != nil {
		return "", fmt.Errorf("%w: %s with params %v: %v", domainerrors.ErrEncodingFailed, fn.Name, params, err)
	}
	return hexPrefix + hex.EncodeToString(data), nil
}

// decodeCallResult decodes a 0x-prefixed node response for fn.
func decodeCallResult(codec Codec, fn *Function, response string) (map[string]interface{}, error) {
	raw := strings.TrimSpace(response)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, hexPrefix), "0X")

	data, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: response is not hex: %v", domainerrors.ErrDecodingFailed, fn.Name, err)
	}

	decoded, err := codec.Decode(fn, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domainerrors.ErrDecodingFailed, fn.Name, err)
	}
	return decoded, nil
}

// isEmptyResponse reports whether a node response carries no data.
func isEmptyResponse(response string) bool {
	raw := strings.TrimSpace(response)
	return raw == "" || strings.EqualFold(raw, hexPrefix)
}

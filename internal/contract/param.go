package contract

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
)

// ParamKind tags the variant held by a Param.
type ParamKind uint8

const (
	KindAddress ParamKind = iota + 1
	KindUint
	KindInt
	KindBytes
	KindBool
	KindString
	KindArray
)

func (k ParamKind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Param is a loosely typed call argument. It is only checked against the
// function's declared input types when the codec encodes it.
type Param struct {
	kind  ParamKind
	addr  string
	num   *big.Int
	raw   []byte
	flag  bool
	text  string
	elems []Param
}

func Address(hexAddress string) Param { return Param{kind: KindAddress, addr: hexAddress} }

func Uint(v *big.Int) Param { return Param{kind: KindUint, num: v} }

func UintFrom(v uint64) Param { return Uint(new(big.Int).SetUint64(v)) }

func Int(v *big.Int) Param { return Param{kind: KindInt, num: v} }

func IntFrom(v int64) Param { return Int(big.NewInt(v)) }

func Bytes(b []byte) Param { return Param{kind: KindBytes, raw: b} }

func Bool(b bool) Param { return Param{kind: KindBool, flag: b} }

func String(s string) Param { return Param{kind: KindString, text: s} }

func ArrayOf(elems ...Param) Param { return Param{kind: KindArray, elems: elems} }

// Kind reports which variant p holds.
func (p Param) Kind() ParamKind { return p.kind }

func (p Param) String() string {
	switch p.kind {
	case KindAddress:
		return "address(" + p.addr + ")"
	case KindUint, KindInt:
		if p.num == nil {
			return p.kind.String() + "(nil)"
		}
		return p.kind.String() + "(" + p.num.String() + ")"
	case KindBytes:
		return "bytes(0x" + hex.EncodeToString(p.raw) + ")"
	case KindBool:
		return fmt.Sprintf("bool(%t)", p.flag)
	case KindString:
		return fmt.Sprintf("string(%q)", p.text)
	case KindArray:
		parts := make([]string, len(p.elems))
		for i, e := range p.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "invalid"
	}
}

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// abiValue converts p into the Go value go-ethereum expects for t.
func (p Param) abiValue(t abi.Type) (reflect.Value, error) {
	switch t.T {
	case abi.AddressTy:
		if p.kind != KindAddress {
			return reflect.Value{}, p.mismatch(t)
		}
		if !common.IsHexAddress(p.addr) {
			return reflect.Value{}, fmt.Errorf("invalid address %q", p.addr)
		}
		return reflect.ValueOf(common.HexToAddress(p.addr)), nil

	case abi.UintTy, abi.IntTy:
		if p.kind != KindUint && p.kind != KindInt {
			return reflect.Value{}, p.mismatch(t)
		}
		if p.num == nil {
			return reflect.Value{}, fmt.Errorf("missing value for %s", t.String())
		}
		if err := checkIntRange(t, p.num); err != nil {
			return reflect.Value{}, err
		}
		target := t.GetType()
		if target == bigIntType {
			return reflect.ValueOf(new(big.Int).Set(p.num)), nil
		}
		if t.T == abi.UintTy {
			return reflect.ValueOf(p.num.Uint64()).Convert(target), nil
		}
		return reflect.ValueOf(p.num.Int64()).Convert(target), nil

	case abi.BoolTy:
		if p.kind != KindBool {
			return reflect.Value{}, p.mismatch(t)
		}
		return reflect.ValueOf(p.flag), nil

	case abi.StringTy:
		if p.kind != KindString {
			return reflect.Value{}, p.mismatch(t)
		}
		return reflect.ValueOf(p.text), nil

	case abi.BytesTy:
		if p.kind != KindBytes {
			return reflect.Value{}, p.mismatch(t)
		}
		return reflect.ValueOf(append([]byte{}, p.raw...)), nil

	case abi.FixedBytesTy:
		if p.kind != KindBytes {
			return reflect.Value{}, p.mismatch(t)
		}
		if len(p.raw) > t.Size {
			return reflect.Value{}, fmt.Errorf("bytes length %d exceeds %s", len(p.raw), t.String())
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(p.raw))
		return arr, nil

	case abi.SliceTy:
		if p.kind != KindArray {
			return reflect.Value{}, p.mismatch(t)
		}
		slice := reflect.MakeSlice(t.GetType(), len(p.elems), len(p.elems))
		if err := fillElems(slice, *t.Elem, p.elems); err != nil {
			return reflect.Value{}, err
		}
		return slice, nil

	case abi.ArrayTy:
		if p.kind != KindArray {
			return reflect.Value{}, p.mismatch(t)
		}
		if len(p.elems) != t.Size {
			return reflect.Value{}, fmt.Errorf("expected %d elements for %s, got %d", t.Size, t.String(), len(p.elems))
		}
		arr := reflect.New(t.GetType()).Elem()
		if err := fillElems(arr, *t.Elem, p.elems); err != nil {
			return reflect.Value{}, err
		}
		return arr, nil

	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type %s", t.String())
	}
}

func (p Param) mismatch(t abi.Type) error {
	return fmt.Errorf("cannot use %s as %s", p.kind, t.String())
}

func fillElems(dst reflect.Value, elemType abi.Type, elems []Param) error {
	for i, elem := range elems {
		v, err := elem.abiValue(elemType)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		dst.Index(i).Set(v)
	}
	return nil
}

func checkIntRange(t abi.Type, v *big.Int) error {
	if t.T == abi.UintTy {
		if v.Sign() < 0 {
			return fmt.Errorf("negative value %s for %s", v, t.String())
		}
		if v.BitLen() > t.Size {
			return fmt.Errorf("value %s overflows %s", v, t.String())
		}
		return nil
	}
	magnitude := new(big.Int).Set(v)
	if v.Sign() < 0 {
		magnitude.Neg(magnitude).Sub(magnitude, big.NewInt(1))
	}
	if magnitude.BitLen() > t.Size-1 {
		return fmt.Errorf("value %s overflows %s", v, t.String())
	}
	return nil
}

// ParamsFromJSON converts decoded JSON values into Params using the
// declared input types of fn. Numbers may be JSON numbers or decimal/hex
// strings; byte values are hex strings.
func ParamsFromJSON(fn *Function, args []interface{}) ([]Param, error) {
	inputs := fn.Method.Inputs
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", domainerrors.ErrEncodingFailed, fn.Name, len(inputs), len(args))
	}

	params := make([]Param, len(args))
	for i, input := range inputs {
		p, err := paramFromJSON(input.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("%w: arg %d (%s): %v", domainerrors.ErrEncodingFailed, i, input.Name, err)
		}
		params[i] = p
	}
	return params, nil
}

func paramFromJSON(t abi.Type, val interface{}) (Param, error) {
	switch t.T {
	case abi.AddressTy:
		s, ok := val.(string)
		if !ok {
			return Param{}, fmt.Errorf("expected string for address")
		}
		return Address(s), nil
	case abi.UintTy, abi.IntTy:
		n, err := jsonNumber(val)
		if err != nil {
			return Param{}, err
		}
		if t.T == abi.UintTy {
			return Uint(n), nil
		}
		return Int(n), nil
	case abi.BoolTy:
		b, ok := val.(bool)
		if !ok {
			return Param{}, fmt.Errorf("expected boolean")
		}
		return Bool(b), nil
	case abi.StringTy:
		s, ok := val.(string)
		if !ok {
			return Param{}, fmt.Errorf("expected string")
		}
		return String(s), nil
	case abi.BytesTy, abi.FixedBytesTy:
		s, ok := val.(string)
		if !ok {
			return Param{}, fmt.Errorf("expected hex string for %s", t.String())
		}
		b, err := decodeHex(s)
		if err != nil {
			return Param{}, err
		}
		return Bytes(b), nil
	case abi.SliceTy, abi.ArrayTy:
		list, ok := val.([]interface{})
		if !ok {
			return Param{}, fmt.Errorf("expected array for %s", t.String())
		}
		elems := make([]Param, len(list))
		for i, item := range list {
			elem, err := paramFromJSON(*t.Elem, item)
			if err != nil {
				return Param{}, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = elem
		}
		return ArrayOf(elems...), nil
	default:
		return Param{}, fmt.Errorf("unsupported parameter type %s", t.String())
	}
}

func jsonNumber(val interface{}) (*big.Int, error) {
	switch v := val.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-integer number %v", v)
		}
		n, _ := big.NewFloat(v).Int(nil)
		return n, nil
	case json.Number:
		n, ok := new(big.Int).SetString(v.String(), 10)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", v.String())
		}
		return n, nil
	case string:
		n, ok := new(big.Int).SetString(strings.TrimSpace(v), 0)
		if !ok {
			return nil, fmt.Errorf("invalid number string %q", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("invalid number type %T", val)
	}
}

func decodeHex(s string) ([]byte, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q", s)
	}
	return b, nil
}

package contract

import (
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
)

// Function is a callable entry of a contract ABI.
type Function struct {
	Name   string
	Method abi.Method
}

// Signature returns the canonical signature, e.g. balanceOf(address).
func (f *Function) Signature() string { return f.Method.Sig }

// Selector returns the 0x-prefixed 4-byte method id.
func (f *Function) Selector() string { return hexutil.Encode(f.Method.ID) }

// IsConstant reports whether the function does not modify state.
func (f *Function) IsConstant() bool { return f.Method.IsConstant() }

// FunctionTable indexes the callable functions of an ABI by name.
// It is never mutated after ParseFunctionTable returns.
type FunctionTable map[string]*Function

// Lookup returns the function registered under name.
func (t FunctionTable) Lookup(name string) (*Function, bool) {
	fn, ok := t[name]
	return fn, ok
}

// Sorted returns the functions ordered by name.
func (t FunctionTable) Sorted() []*Function {
	out := make([]*Function, 0, len(t))
	for _, fn := range t {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type abiRecord struct {
	Type            string                   `json:"type"`
	Name            string                   `json:"name"`
	Inputs          []abi.ArgumentMarshaling `json:"inputs"`
	Outputs         []abi.ArgumentMarshaling `json:"outputs"`
	StateMutability string                   `json:"stateMutability"`
	Constant        bool                     `json:"constant"`
	Payable         bool                     `json:"payable"`
}

// ParseFunctionTable parses an ABI JSON document and indexes its named
// functions. Constructors, events, errors, fallback and receive entries
// are validated but not indexed. When two functions share a name the
// later entry wins.
func ParseFunctionTable(definition string) (FunctionTable, error) {
	if !utf8.ValidString(definition) {
		return nil, fmt.Errorf("%w: document is not valid UTF-8 text", domainerrors.ErrInvalidAbiEncoding)
	}

	var records []abiRecord
	if err := json.Unmarshal([]byte(definition), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidAbiDocument, err)
	}

	table := make(FunctionTable)
	for i, record := range records {
		fn, err := record.parse()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", domainerrors.ErrInvalidAbiDocument, i, err)
		}
		if fn == nil {
			continue
		}
		table[fn.Name] = fn
	}
	return table, nil
}

// parse returns nil without error for entries that are valid but not
// indexable functions.
func (r abiRecord) parse() (*Function, error) {
	inputs, err := parseArguments(r.Inputs)
	if err != nil {
		return nil, fmt.Errorf("inputs of %q: %v", r.Name, err)
	}
	outputs, err := parseArguments(r.Outputs)
	if err != nil {
		return nil, fmt.Errorf("outputs of %q: %v", r.Name, err)
	}

	switch r.Type {
	case "function", "":
	case "constructor", "event", "error", "fallback", "receive":
		return nil, nil
	default:
		return nil, fmt.Errorf("unrecognized entry type %q", r.Type)
	}

	if r.Name == "" {
		return nil, nil
	}

	isConst := r.Constant || r.StateMutability == "view" || r.StateMutability == "pure"
	isPayable := r.Payable || r.StateMutability == "payable"
	method := abi.NewMethod(r.Name, r.Name, abi.Function, r.StateMutability, isConst, isPayable, inputs, outputs)
	return &Function{Name: r.Name, Method: method}, nil
}

func parseArguments(fields []abi.ArgumentMarshaling) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(fields))
	for _, field := range fields {
		typ, err := abi.NewType(field.Type, field.InternalType, field.Components)
		if err != nil {
			return nil, err
		}
		args = append(args, abi.Argument{Name: field.Name, Type: typ, Indexed: field.Indexed})
	}
	return args, nil
}

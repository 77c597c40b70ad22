package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"smartcontract-gateway.backend/internal/contract"
	"smartcontract-gateway.backend/internal/domain/entities"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
	"smartcontract-gateway.backend/internal/usecases"
)

var (
	readOnlyColor = color.New(color.FgGreen)
	payableColor  = color.New(color.FgYellow)
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		asJSON   bool
		function string
	)

	cmd := &cobra.Command{
		Use:          "abi-inspect <abi.json | ->",
		Short:        "Print the callable functions of a contract ABI",
		Long:         "Reads an ABI document, or a build artifact with an \"abi\" field, and prints its function table.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := readDocument(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			table, err := contract.ParseFunctionTable(document)
			if err != nil {
				return err
			}

			functions := table.Sorted()
			if function != "" {
				fn, ok := table.Lookup(function)
				if !ok {
					return fmt.Errorf("%w: %s", domainerrors.ErrUnknownFunction, function)
				}
				functions = []*contract.Function{fn}
			}

			described := make([]entities.ContractFunction, 0, len(functions))
			for _, fn := range functions {
				described = append(described, usecases.DescribeFunction(fn))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(described)
			}
			return printTable(cmd.OutOrStdout(), described)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the function table as JSON")
	cmd.Flags().StringVarP(&function, "function", "f", "", "only print the named function")
	cmd.SetOut(out)
	return cmd
}

func readDocument(path string, stdin io.Reader) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read abi: %w", err)
	}

	// build artifacts wrap the ABI in an object
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(trimmed, &artifact); err != nil {
			return "", fmt.Errorf("%w: %v", domainerrors.ErrInvalidAbiDocument, err)
		}
		if len(artifact.ABI) == 0 {
			return "", fmt.Errorf("%w: artifact has no abi field", domainerrors.ErrInvalidAbiDocument)
		}
		return string(artifact.ABI), nil
	}
	return string(raw), nil
}

func printTable(out io.Writer, functions []entities.ContractFunction) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SELECTOR\tMUTABILITY\tSIGNATURE\tRETURNS")
	for _, fn := range functions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", fn.Selector, colorMutability(fn.StateMutability), fn.Signature, formatOutputs(fn.Outputs))
	}
	return w.Flush()
}

func colorMutability(mutability string) string {
	switch mutability {
	case "view", "pure":
		return readOnlyColor.Sprint(mutability)
	case "payable":
		return payableColor.Sprint(mutability)
	default:
		return mutability
	}
}

func formatOutputs(outputs []entities.FunctionArgument) string {
	if len(outputs) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if o.Name == "" {
			parts = append(parts, o.Type)
			continue
		}
		parts = append(parts, o.Type+" "+o.Name)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

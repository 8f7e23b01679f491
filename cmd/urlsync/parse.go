package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vango-dev/urlsync/internal/schemafile"
	"github.com/vango-dev/urlsync/pkg/qparam"
)

// ParseResult is the output of the parse command.
type ParseResult struct {
	Scope      string            `json:"scope,omitempty"`
	Query      string            `json:"query"`
	Params     map[string]any    `json:"params"`
	Serialized map[string]string `json:"serialized"`
	Errors     []string          `json:"errors"`
}

func parseCmd() *cobra.Command {
	var (
		schemaPath string
		compact    bool
	)

	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query string against a schema",
		Long: `Parse a query string against a schema file and print the typed
parameters, their raw values, and the keys that failed to parse.

Examples:
  urlsync parse --schema schema.yaml "q=shoes&page=2"
  urlsync parse -f schema.yaml "?page=abc"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, schema, err := schemafile.Load(schemaPath)
			if err != nil {
				return err
			}
			res := parseQuery(schema, args[0])
			res.Scope = doc.Scope

			var data []byte
			if compact {
				data, err = json.Marshal(res)
			} else {
				data, err = json.MarshalIndent(res, "", "  ")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaPath, "schema", "f", "", "Path to the schema file")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print JSON on one line")
	cmd.MarkFlagRequired("schema")

	return cmd
}

// parseQuery builds a store from raw and reports its full state. Undefined
// fields are left out of Params; Null becomes a JSON null.
func parseQuery(schema *qparam.Schema, raw string) ParseResult {
	store := qparam.NewStore(schema, raw)
	state := store.State()
	res := ParseResult{
		Query:      store.Query(),
		Params:     make(map[string]any, len(state.Params)),
		Serialized: state.Serialized,
		Errors:     store.Errors().Keys(),
	}
	if res.Serialized == nil {
		res.Serialized = map[string]string{}
	}
	for k, v := range state.Params {
		switch {
		case v == nil:
		case qparam.IsNull(v):
			res.Params[k] = nil
		default:
			res.Params[k] = v
		}
	}
	return res
}

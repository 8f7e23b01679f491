package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/urlsync/pkg/query"
)

func stringifyCmd() *cobra.Command {
	var (
		params []string
		arrays []string
		unset  []string
		opts   query.Options
	)

	cmd := &cobra.Command{
		Use:   "stringify [url]",
		Short: "Merge parameters into a query string",
		Long: `Merge parameters into a query string or URL.

Without a URL the result is a bare query string. With a URL the
parameters are merged into its query; the path and fragment are kept.

Examples:
  urlsync stringify -p q=shoes -p page=2
  urlsync stringify "/search?q=old#top" -p q=new --unset page
  urlsync stringify -a tags=new,sale --separator "|"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildParams(params, arrays, unset)
			if err != nil {
				return err
			}
			var out string
			if len(args) == 1 {
				out = query.StringifyURL(args[0], p, opts)
			} else {
				out = query.Stringify(p, opts)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Set key=value")
	cmd.Flags().StringArrayVarP(&arrays, "array", "a", nil, "Set key=a,b,c as a list")
	cmd.Flags().StringArrayVarP(&unset, "unset", "u", nil, "Remove key")
	cmd.Flags().BoolVar(&opts.Sort, "sort", false, "Sort keys")
	cmd.Flags().StringVar(&opts.Separator, "separator", ",", "Separator for list items")
	cmd.Flags().BoolVar(&opts.KeepEmptyString, "keep-empty", false, "Keep keys whose value is empty")

	return cmd
}

// buildParams turns flag values into query params. Later flags win.
func buildParams(params, arrays, unset []string) (query.Params, error) {
	p := make(query.Params, len(params)+len(arrays)+len(unset))
	for _, kv := range params {
		k, v, err := splitPair(kv)
		if err != nil {
			return nil, err
		}
		p[k] = v
	}
	for _, kv := range arrays {
		k, v, err := splitPair(kv)
		if err != nil {
			return nil, err
		}
		if v == "" {
			p[k] = []string{}
			continue
		}
		p[k] = strings.Split(v, ",")
	}
	for _, k := range unset {
		p[k] = nil
	}
	return p, nil
}

func splitPair(kv string) (string, string, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || k == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", kv)
	}
	return k, v, nil
}

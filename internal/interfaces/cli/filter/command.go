// Package filter exposes the ticket filter codec offline, for checking what
// a shared URL actually filters on.
package filter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	domain "leadsync/internal/domain/filter"
)

var inputPath string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Ticket filter codec tools",
		Long:  `Decode ticket list query strings into filter sets and encode filter sets back into canonical query strings.`,
	}

	cmd.AddCommand(
		newDecodeCommand(),
		newEncodeCommand(),
	)

	return cmd
}

func newDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <query>",
		Short: "Decode a query string into a filter set",
		Long:  `Decode a query string (with or without the leading '?', or a full URL) and print the filter set as YAML.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd.OutOrStdout(), args[0])
		},
	}
}

func newEncodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a YAML filter set into a canonical query string",
		Long:  `Read a filter set as YAML from --file or stdin and print its canonical query string.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if inputPath != "" {
				f, err := os.Open(inputPath)
				if err != nil {
					return fmt.Errorf("failed to open filter file: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runEncode(cmd.OutOrStdout(), in)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "file", "f", "", "YAML file holding the filter set (default: stdin)")

	return cmd
}

func runDecode(out io.Writer, raw string) error {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	schema := domain.DefaultSchema()
	set := domain.DecodeQuery(raw, schema)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(map[string]any{
		"filter":    map[string]any(set),
		"active":    domain.HasActiveFilters(set),
		"canonical": domain.Canonical(set, schema),
	})
}

func runEncode(out io.Writer, in io.Reader) error {
	var raw map[string]any
	if err := yaml.NewDecoder(in).Decode(&raw); err != nil && err != io.EOF {
		return fmt.Errorf("failed to parse filter set: %w", err)
	}

	schema := domain.DefaultSchema()
	set, err := fromYAML(raw, schema)
	if err != nil {
		return err
	}
	// a round trip drops values the decoder would reject
	set = domain.Decode(domain.Encode(set, schema), schema)
	_, err = fmt.Fprintln(out, domain.Canonical(set, schema))
	return err
}

// fromYAML shapes loosely typed YAML values by the field kinds of schema.
func fromYAML(raw map[string]any, schema domain.Schema) (domain.Set, error) {
	set := domain.Set{}
	for key, v := range raw {
		field, ok := schema.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("unknown filter field %q", key)
		}
		switch field.Kind {
		case domain.KindList, domain.KindNumericList:
			set[key] = toStrings(v)
		case domain.KindBool:
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("field %q must be true or false", key)
			}
			set[key] = b
		case domain.KindDateRange, domain.KindNumberRange:
			m, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("field %q must have from and/or to", key)
			}
			set[key] = domain.Range{From: scalar(m["from"]), To: scalar(m["to"])}
		default:
			set[key] = scalar(v)
		}
	}
	return domain.Prune(set), nil
}

func toStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case nil:
		return nil
	default:
		return []string{scalar(val)}
	}
}

func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		// unquoted YAML dates arrive as timestamps
		return val.Format(time.DateOnly)
	default:
		return fmt.Sprint(val)
	}
}

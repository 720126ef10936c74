package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artpar/basemodel/app"
	"github.com/artpar/basemodel/domain/model"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List configured models",
	RunE:  runModels,
}

var listCmd = &cobra.Command{
	Use:   "list <model>",
	Short: "List the records of a model",
	Long: `List the records of a model as YAML.

Filters are exact matches and are combined with AND. Values are read as
YAML scalars, so --where views=3 matches the number 3.

Examples:
  basemodel list Post
  basemodel list Post --where author=ann --where views=3`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <model> <pk>",
	Short: "Show one record by primary key",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

var listWhere []string

func init() {
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)

	listCmd.Flags().StringArrayVarP(&listWhere, "where", "w", nil, "filter as column=value (repeatable)")
}

func runModels(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	models := a.Config().Models
	if len(models) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No models configured.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBACKEND\tSOURCE\tCOLUMNS")
	for _, m := range models {
		c, err := a.Collection(m.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, m.Backend, m.Source, strings.Join(c.Columns(), ","))
	}
	return w.Flush()
}

func runList(cmd *cobra.Command, args []string) error {
	filters, err := parseFilters(listWhere)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	c, err := a.Collection(args[0])
	if err != nil {
		return err
	}

	return listRecords(cmd, c, filters)
}

func listRecords(cmd *cobra.Command, c app.Collection, filters model.Filters) error {
	items, err := c.Where(cmd.Context(), filters)
	if err != nil {
		return err
	}

	out := make([]model.Values, len(items))
	for i, e := range items {
		out[i] = model.Attributes(e)
	}
	return writeYAML(cmd, out)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	c, err := a.Collection(args[0])
	if err != nil {
		return err
	}

	e, err := findPK(cmd, c, args[1])
	if err != nil {
		return err
	}
	return writeYAML(cmd, model.Attributes(e))
}

// findPK tries the key as typed on the command line, then as a string.
func findPK(cmd *cobra.Command, c app.Collection, raw string) (model.Entity, error) {
	candidates := []any{parseScalar(raw)}
	if _, isString := candidates[0].(string); !isString {
		candidates = append(candidates, raw)
	}

	for _, pk := range candidates {
		e, ok, err := c.FindPK(cmd.Context(), pk)
		if err != nil {
			return nil, err
		}
		if ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", c.Name(), raw, model.ErrNotFound)
}

func parseFilters(pairs []string) (model.Filters, error) {
	filters := make(model.Filters, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q: expected column=value", p)
		}
		filters[k] = parseScalar(v)
	}
	return filters, nil
}

// parseScalar reads s as a YAML scalar, falling back to the raw string.
func parseScalar(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	switch v.(type) {
	case map[string]any, []any, nil:
		return s
	}
	return v
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

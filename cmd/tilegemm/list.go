package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	tg "github.com/LynnColeArt/tilegemm"
	"github.com/LynnColeArt/tilegemm/library"
)

func newListCmd() *cobra.Command {
	var (
		op      string
		types   string
		layouts string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the built-in instances in registration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			insts, err := filterInstances(library.Default(), op, types, layouts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printInstances(out, library.Default(), insts)
			message.NewPrinter(language.English).Fprintf(out, "%d of %d instances\n", len(insts), library.Default().Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&op, "op", "", "only this operation")
	cmd.Flags().StringVar(&types, "types", "", "only these A,B,C types (needs --op and --layouts)")
	cmd.Flags().StringVar(&layouts, "layouts", "", "only these A,B,C layouts")
	return cmd
}

func filterInstances(c *tg.Catalog, op, types, layouts string) ([]*tg.Instance, error) {
	all := c.All()
	if op == "" {
		return all, nil
	}
	kind, err := tg.ParseOpKind(op)
	if err != nil {
		return nil, err
	}
	if types == "" || layouts == "" {
		var out []*tg.Instance
		for _, inst := range all {
			if inst.Op() == kind {
				out = append(out, inst)
			}
		}
		return out, nil
	}
	ts, err := parseTypes(types)
	if err != nil {
		return nil, err
	}
	ls, err := parseLayouts(layouts)
	if err != nil {
		return nil, err
	}
	return c.ListInstances(kind, ts, ls), nil
}

var upper = cases.Upper(language.English)

func printInstances(w io.Writer, c *tg.Catalog, insts []*tg.Instance) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", upper.String("index"), upper.String("instance"), upper.String("specialization"), upper.String("core"))
	for _, inst := range insts {
		_, idx, _ := c.Lookup(inst.Name())
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", idx, inst.Name(), inst.Specialization(), inst.Core())
	}
	tw.Flush()
}

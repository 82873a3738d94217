package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/leengari/tablestore/internal/domain/data"
	"github.com/leengari/tablestore/internal/domain/schema"
	"github.com/leengari/tablestore/internal/engine"
	"github.com/leengari/tablestore/internal/parser"
)

// Start reads commands from in until EOF or exit and writes results to out.
//
//	tables               list table titles
//	schema <title>       show a table's fields
//	<title> [WHERE ...]  query a table
//	exit | \q            quit
func Start(store *engine.Store, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "tablestore %s (%s)\n", store.Name(), store.Dir())
	fmt.Fprintln(out, "Type 'exit' or '\\q' to quit.")

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		if line == "exit" || line == "\\q" {
			break
		}

		if err := Execute(store, line, out); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

// Execute runs a single command line against the store
func Execute(store *engine.Store, line string, out io.Writer) error {
	line = strings.TrimSuffix(strings.TrimSpace(line), ";")
	cmd, arg, _ := strings.Cut(line, " ")

	switch strings.ToLower(cmd) {
	case "tables", "ls":
		PrintTables(out, store)
		return nil
	case "schema":
		title := unquote(strings.TrimSpace(arg))
		if title == "" {
			return fmt.Errorf("usage: schema <title>")
		}
		s, err := store.LoadSchema(title)
		if err != nil {
			return err
		}
		PrintSchema(out, s)
		return nil
	}

	title, conds, err := parser.ParseQuery(line)
	if err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}
	res, err := store.Query(title, conds)
	if err != nil {
		return err
	}
	PrintResult(out, res)
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

func PrintTables(w io.Writer, store *engine.Store) {
	titles := store.Tables()
	if len(titles) == 0 {
		fmt.Fprintln(w, "No tables.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "table\trows")
	fmt.Fprintln(tw, "---\t---")
	for _, title := range titles {
		n, err := store.RowCount(title)
		if err != nil {
			fmt.Fprintf(tw, "%s\t%v\n", title, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\n", title, n)
	}
	tw.Flush()
}

func PrintSchema(w io.Writer, s *schema.TableSchema) {
	fmt.Fprintf(w, "%s (row width %d)\n", s.Name, s.RowWidth)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "field\ttype\twidth\toffset")
	fmt.Fprintln(tw, "---\t---\t---\t---")
	for _, f := range s.Fields {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", f.Name, f.Type, f.Width, f.Offset)
	}
	tw.Flush()
}

func PrintResult(w io.Writer, res *data.QueryResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	// Header with types
	for i, name := range res.Fields {
		if i < len(res.Types) {
			fmt.Fprintf(tw, "%s (%s)", name, res.Types[i])
		} else {
			fmt.Fprintf(tw, "%s", name)
		}
		if i < len(res.Fields)-1 {
			fmt.Fprintf(tw, "\t")
		}
	}
	fmt.Fprintln(tw)

	// Separator
	for i := range res.Fields {
		fmt.Fprintf(tw, "---")
		if i < len(res.Fields)-1 {
			fmt.Fprintf(tw, "\t")
		}
	}
	fmt.Fprintln(tw)

	// Rows
	for _, row := range res.Rows {
		for i, v := range row {
			fmt.Fprintf(tw, "%s", v)
			if i < len(row)-1 {
				fmt.Fprintf(tw, "\t")
			}
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()

	if res.Len() == 1 {
		fmt.Fprintln(w, "(1 row)")
	} else {
		fmt.Fprintf(w, "(%d rows)\n", res.Len())
	}
}

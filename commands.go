package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
	"github.com/docsearch/searchindex-mcp/tools"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagSearchCategories []string
	flagSearchPage       string
	flagSearchLimit      int

	flagExportFormat string
	flagExportPage   string
)

var searchCmd = &cobra.Command{
	Use:   "search <file> <query>",
	Short: "Search a search_index.js for entries containing every query word",
	Example: `  searchindex-mcp search docs/build/search_index.js presamples
  searchindex-mcp search --category function --limit 5 search_index.js "sparse identity"`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate search_index.js files against the schema and structural checks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var pagesCmd = &cobra.Command{
	Use:   "pages <file>",
	Short: "List the pages of a search_index.js with entries per category",
	Args:  cobra.ExactArgs(1),
	RunE:  runPages,
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Re-serialize a search_index.js (or one page of it) as js or json",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	searchCmd.Flags().StringSliceVar(&flagSearchCategories, "category", nil, "only entries of these categories (page, section, function, type, method)")
	searchCmd.Flags().StringVar(&flagSearchPage, "page", "", "only entries of this page")
	searchCmd.Flags().IntVar(&flagSearchLimit, "limit", 20, "max results (0 for all)")

	exportCmd.Flags().StringVar(&flagExportFormat, "format", "js", "output format: js or json")
	exportCmd.Flags().StringVar(&flagExportPage, "page", "", "only export this page")
}

func parseCategories(names []string) ([]searchindex.Category, error) {
	var categories []searchindex.Category
	for _, name := range names {
		c := searchindex.Category(strings.ToLower(strings.TrimSpace(name)))
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q (want page, section, function, type or method)", name)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	categories, err := parseCategories(flagSearchCategories)
	if err != nil {
		return err
	}

	idx, err := searchindex.ParseFile(args[0])
	if err != nil {
		return err
	}

	matches := searchindex.Search(idx, args[1], searchindex.SearchOptions{
		Categories: categories,
		Page:       flagSearchPage,
		Limit:      flagSearchLimit,
	})

	return render(cmd.OutOrStdout(), format, matches, func(w io.Writer) {
		if len(matches) == 0 {
			printMiss(w, "", fmt.Sprintf("No entries match %q", args[1]))
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, m := range matches {
			e := m.Entry
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Category, e.Title, e.Location, firstLine(e.Text, 60))
		}
		tw.Flush()
		fmt.Fprintf(w, "\n%d match(es)\n", len(matches))
	})
}

// fileValidation is the validation result of one file
type fileValidation struct {
	File                            string `json:"file" yaml:"file"`
	tools.ValidateSearchIndexOutput `yaml:",inline"`
}

// validateFiles validates every file concurrently. Results keep the order
// of paths. Unreadable files fail the whole run.
func validateFiles(ctx context.Context, paths []string) ([]fileValidation, error) {
	results := make([]fileValidation, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			results[i] = fileValidation{
				File:                      path,
				ValidateSearchIndexOutput: tools.ValidateSearchIndexData(data),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(outputFlag)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := validateFiles(ctx, args)
	if err != nil {
		return err
	}

	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}

	err = render(cmd.OutOrStdout(), format, results, func(w io.Writer) {
		for _, r := range results {
			if r.Valid {
				printOK(w, r.File, r.Message)
				continue
			}
			printErr(w, r.File, r.Message)
			for _, v := range r.Violations {
				fmt.Fprintf(w, "       %s: %s\n", v.Path, v.Message)
			}
			for _, issue := range r.Issues {
				fmt.Fprintf(w, "       docs[%d].%s: %s\n", issue.Index, issue.Field, issue.Message)
			}
		}
	})
	if err != nil {
		return err
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d file(s) invalid", invalid, len(results))
	}
	return nil
}

// pageRow is one line of the pages listing
type pageRow struct {
	Page    string                       `json:"page" yaml:"page"`
	Path    string                       `json:"path" yaml:"path"`
	Entries int                          `json:"entries" yaml:"entries"`
	Counts  map[searchindex.Category]int `json:"counts" yaml:"counts"`
}

func pageRows(idx *searchindex.Index) []pageRow {
	rows := []pageRow{}
	for _, g := range searchindex.GroupByPage(idx) {
		rows = append(rows, pageRow{
			Page:    g.Page,
			Path:    g.Path,
			Entries: len(g.Entries),
			Counts:  g.Counts(),
		})
	}
	return rows
}

func runPages(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(outputFlag)
	if err != nil {
		return err
	}

	idx, err := searchindex.ParseFile(args[0])
	if err != nil {
		return err
	}
	rows := pageRows(idx)

	return render(cmd.OutOrStdout(), format, rows, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PAGE\tPATH\tENTRIES\tPAGE\tSECTION\tFUNCTION\tTYPE\tMETHOD")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
				r.Page, r.Path, r.Entries,
				r.Counts[searchindex.CategoryPage],
				r.Counts[searchindex.CategorySection],
				r.Counts[searchindex.CategoryFunction],
				r.Counts[searchindex.CategoryType],
				r.Counts[searchindex.CategoryMethod])
		}
		tw.Flush()
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := searchindex.ParseFormat(flagExportFormat)
	if err != nil {
		return err
	}

	idx, err := searchindex.ParseFile(args[0])
	if err != nil {
		return err
	}

	if flagExportPage != "" {
		group, ok := searchindex.FindPage(idx, flagExportPage)
		if !ok {
			return fmt.Errorf("page '%s' not found", flagExportPage)
		}
		idx = &searchindex.Index{Docs: group.Entries}
	}

	return searchindex.Encode(cmd.OutOrStdout(), idx, format)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Version:    %s\n", version)
	fmt.Fprintf(w, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(w, "OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}

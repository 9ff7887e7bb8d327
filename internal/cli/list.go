package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/ce-mcp/pkg/errors"
	"github.com/matzehuels/ce-mcp/pkg/experimental"
	ce "github.com/matzehuels/ce-mcp/pkg/integrations/compilerexplorer"
	"github.com/matzehuels/ce-mcp/pkg/library"
	"github.com/matzehuels/ce-mcp/pkg/tools"
)

// languagesCommand creates the languages command.
func (c *CLI) languagesCommand() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the languages Compiler Explorer supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, _, cleanup, err := c.newService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			prog := newProgress(loggerFromContext(ctx))
			spinner := newSpinnerWithContext(ctx, "Fetching languages...")
			spinner.Start()
			res, err := svc.GetLanguages(ctx, tools.GetLanguagesArgs{SearchText: search})
			spinner.Stop()
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Fetched %d languages", res.Count))

			fmt.Println(languagesTable(res.Languages))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by id or name")

	return cmd
}

// compilersCommand creates the compilers command.
func (c *CLI) compilersCommand() *cobra.Command {
	var (
		language string
		search   string
		proposal string
		exact    bool
		all      bool
		pick     bool
		grouped  bool
	)

	cmd := &cobra.Command{
		Use:   "compilers",
		Short: "List the compilers of a language",
		Example: `  ce-mcp compilers -s "gcc 13"
  ce-mcp compilers --proposal P2996
  ce-mcp compilers --categories
  ce-mcp compilers -l rust --pick`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, client, cleanup, err := c.newService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if grouped {
				compilers, err := client.Compilers(ctx, language, true, false)
				if err != nil {
					return err
				}
				fmt.Println(categoriesTable(experimental.Categorize(compilers)))
				return nil
			}

			spinner := newSpinnerWithContext(ctx, "Fetching compilers...")
			spinner.Start()
			res, err := svc.FindCompilers(ctx, tools.FindCompilersArgs{
				Language:    language,
				SearchText:  search,
				ExactSearch: exact,
				Proposal:    proposal,
				ShowAll:     all,
			})
			spinner.Stop()
			if err != nil {
				return err
			}
			if res.Error != "" {
				printWarning("%s", res.Error)
				for _, s := range res.Suggestions {
					printDetail("%s", s)
				}
				return nil
			}

			compilers := compilerInfos(res.Compilers)
			if pick {
				return pickCompiler(compilers)
			}
			printInfo("%s", res.Summary)
			fmt.Println(compilersTable(compilers))
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "c++", "language id")
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by id or name (e.g. \"gcc 13\", clang17, msvc)")
	cmd.Flags().BoolVar(&exact, "exact", false, "treat --search as an exact compiler id")
	cmd.Flags().StringVar(&proposal, "proposal", "", "only experimental compilers implementing a proposal (e.g. P2996)")
	cmd.Flags().BoolVar(&all, "experimental", false, "only experimental and nightly compilers")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose a compiler interactively and print its id")
	cmd.Flags().BoolVar(&grouped, "categories", false, "count experimental compilers per category")

	return cmd
}

// librariesCommand creates the libraries command.
func (c *CLI) librariesCommand() *cobra.Command {
	var language, search, compiler string

	cmd := &cobra.Command{
		Use:   "libraries [library-id]",
		Short: "List libraries, or show the versions of one library",
		Example: `  ce-mcp libraries -s json
  ce-mcp libraries --compiler g132
  ce-mcp libraries fmt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, client, cleanup, err := c.newService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 1 {
				return showLibrary(ctx, svc, client, language, args[0])
			}

			res, err := svc.GetLibraries(ctx, tools.GetLibrariesArgs{Language: language, SearchText: search})
			if err != nil {
				return err
			}
			libs := res.Libraries
			if compiler != "" {
				support, err := compilerLibrarySupport(ctx, client, language, svc.Config().ResolveCompiler(compiler))
				if err != nil {
					return err
				}
				if !support.SupportsAllLibraries {
					libs = slices.DeleteFunc(libs, func(l library.Summary) bool {
						return !slices.Contains(support.SupportedLibraries, l.ID)
					})
				}
				printInfo("%s can link %d libraries", compiler, support.LibraryCount)
			}
			fmt.Println(librariesTable(libs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "c++", "language id")
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by id or name")
	cmd.Flags().StringVar(&compiler, "compiler", "", "only libraries this compiler can link")

	return cmd
}

// showLibrary prints one library with its versions and how many compilers
// can link it.
func showLibrary(ctx context.Context, svc *tools.Service, client *ce.Client, language, id string) error {
	res, err := svc.GetLibraryDetails(ctx, tools.GetLibraryDetailsArgs{Language: language, LibraryID: id})
	if err != nil {
		return err
	}
	if res.Error != "" {
		printWarning("%s", res.Error)
		for _, s := range res.Suggestions {
			printDetail("did you mean %s (%s)?", s.ID, s.Name)
		}
		return nil
	}

	info := library.Describe(*res.Library)
	printKeyValue("Library", info.Name)
	printKeyValue("ID", info.ID)
	if info.URL != "" {
		printKeyValue("URL", StyleLink.Render(info.URL))
	}
	printKeyValue("Latest", info.LatestVersion)
	printKeyValue("Versions", fmt.Sprintf("%s (%d)", strings.Join(info.Versions, ", "), info.VersionCount))

	compilers, err := client.Compilers(ctx, language, false, false)
	if err != nil {
		loggerFromContext(ctx).Debug("compiler support unavailable", "error", err)
		return nil
	}
	supported := library.FilterCompilersBySupport(compilers, info.ID)
	printKeyValue("Compilers", fmt.Sprintf("%d of %d can link it", len(supported), len(compilers)))
	return nil
}

// compilerLibrarySupport reports which libraries a compiler can link.
func compilerLibrarySupport(ctx context.Context, client *ce.Client, language, compilerID string) (library.Support, error) {
	compilers, err := client.Compilers(ctx, language, false, false)
	if err != nil {
		return library.Support{}, err
	}
	idx := slices.IndexFunc(compilers, func(c ce.Compiler) bool { return c.ID == compilerID })
	if idx < 0 {
		return library.Support{}, errs.New(errs.ErrCodeCompilerNotFound, "compiler '%s' not found for %s", compilerID, language)
	}
	libs, err := client.Libraries(ctx, language, false)
	if err != nil {
		return library.Support{}, err
	}
	return library.CompilerSupport(compilers[idx], libs), nil
}

// =============================================================================
// Tables
// =============================================================================

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		})
}

func languagesTable(langs []tools.LanguageInfo) string {
	t := newTable("ID", "Name", "Extensions")
	for _, l := range langs {
		t.Row(l.ID, l.Name, strings.Join(l.Extensions, " "))
	}
	return t.Render()
}

func compilersTable(compilers []tools.CompilerInfo) string {
	t := newTable("ID", "Name", "ISA", "Version")
	for _, c := range compilers {
		version := c.Semver
		if c.IsNightly {
			version = "trunk"
		}
		t.Row(c.ID, c.Name, c.InstructionSet, version)
	}
	return t.Render()
}

func categoriesTable(groups map[string][]experimental.Compiler) string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.Sort(names)

	t := newTable("Category", "Compilers", "Examples")
	for _, name := range names {
		var ids []string
		for _, c := range groups[name][:min(3, len(groups[name]))] {
			ids = append(ids, c.ID)
		}
		t.Row(name, fmt.Sprint(len(groups[name])), strings.Join(ids, " "))
	}
	return t.Render()
}

func librariesTable(libs []library.Summary) string {
	t := newTable("ID", "Name")
	for _, l := range libs {
		t.Row(l.ID, l.Name)
	}
	return t.Render()
}

// compilerInfos keeps the [tools.CompilerInfo] entries of a find_compilers
// result.
func compilerInfos(entries []any) []tools.CompilerInfo {
	infos := make([]tools.CompilerInfo, 0, len(entries))
	for _, e := range entries {
		if info, ok := e.(tools.CompilerInfo); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

// pickCompiler runs the interactive picker and prints the chosen id.
func pickCompiler(compilers []tools.CompilerInfo) error {
	if len(compilers) == 0 {
		printWarning("No compilers to pick from")
		return nil
	}
	final, err := tea.NewProgram(newCompilerListModel(compilers), tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("compiler picker: %w", err)
	}
	if m, ok := final.(CompilerListModel); ok && m.Selected != nil {
		fmt.Println(m.Selected.ID)
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/akinalp/scaffoldr/config"
	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg/scaffold"
)

func newTemplatesCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the templates of the configured template store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(dir)
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), store)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "template directory (overrides TEMPLATES_DIR)")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var (
		dir         string
		out         string
		description string
		sets        []string
		gitInit     bool
	)

	cmd := &cobra.Command{
		Use:   "render <template> <project name>",
		Short: "Generate a project from a template without the server",
		Long: `Render runs the generation pipeline locally: the template is copied
into <out>/<project slug>, its placeholders are filled in and, with --git,
an initial commit is created. No database is involved.`,
		Example: `  scaffoldr render landing-page "My Site" --out ./sites --set CONTACT_EMAIL=me@example.com`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			templateSlug, name := args[0], strings.TrimSpace(args[1])

			overrides, err := parseSetFlags(sets)
			if err != nil {
				return err
			}

			slug := models.Slugify(name)
			if slug == "" {
				return fmt.Errorf("project name %q produces an empty slug", name)
			}

			cfg, err := config.Load(false)
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Templates.Dir = dir
			}
			store, err := openTemplateStore(cfg)
			if err != nil {
				return err
			}
			src, err := store.Open(templateSlug)
			if err != nil {
				return err
			}

			dest := filepath.Join(out, slug)
			if err := ensureEmptyDir(dest); err != nil {
				return err
			}

			res, err := scaffold.Instantiate(cmd.Context(), src, dest, scaffold.ProjectInfo{
				Name:        name,
				Description: description,
				Slug:        slug,
				Config:      overrides,
			}, scaffold.Options{
				GitInit: gitInit,
				Git: scaffold.GitOptions{
					AuthorName:  cfg.Generator.GitAuthorName,
					AuthorEmail: cfg.Generator.GitAuthorEmail,
					Message:     fmt.Sprintf("Initial commit from %s template", templateSlug),
				},
			})
			if err != nil {
				os.RemoveAll(dest)
				return err
			}

			printResult(cmd.OutOrStdout(), templateSlug, dest, res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dir, "dir", "", "template directory (overrides TEMPLATES_DIR)")
	f.StringVarP(&out, "out", "o", ".", "parent directory of the generated project")
	f.StringVarP(&description, "description", "d", "", "project description")
	f.StringArrayVar(&sets, "set", nil, "variable override KEY=VALUE (repeatable)")
	f.BoolVar(&gitInit, "git", false, "initialize a git repository with an initial commit")
	return cmd
}

func loadStore(dir string) (*scaffold.Store, error) {
	cfg, err := config.Load(false)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		cfg.Templates.Dir = dir
	}
	return openTemplateStore(cfg)
}

func printCatalog(w io.Writer, store *scaffold.Store) error {
	entries, err := store.Catalog()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tTYPE\tFILES\tSIZE\tSTATUS")
	for _, e := range entries {
		status := "active"
		if e.Inactive {
			status = "inactive"
		}

		files, size := "-", "-"
		if src, err := store.Open(e.Slug); err != nil {
			status = "missing"
		} else {
			n, bytes, err := templateSize(src)
			if err != nil {
				return fmt.Errorf("failed to read template %s: %w", e.Slug, err)
			}
			files, size = fmt.Sprint(n), humanize.Bytes(uint64(bytes))
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Slug, e.Name, e.Type, files, size, status)
	}
	return tw.Flush()
}

// templateSize counts the files a generation would copy.
func templateSize(src fs.FS) (int, int64, error) {
	var (
		files int
		bytes int64
	)
	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && scaffold.IsArtifactDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		bytes += info.Size()
		return nil
	})
	return files, bytes, err
}

func printResult(w io.Writer, templateSlug, dest string, res scaffold.Result) {
	fmt.Fprintf(w, "Rendered %s into %s\n", templateSlug, dest)
	fmt.Fprintf(w, "  copied:      %d files, %d directories, %s\n",
		res.Copy.Files, res.Copy.Dirs, humanize.Bytes(uint64(res.Copy.Bytes)))
	if res.Copy.Skipped > 0 {
		fmt.Fprintf(w, "  not copied:  %d entries\n", res.Copy.Skipped)
	}
	fmt.Fprintf(w, "  substituted: %d of %d text files\n", res.Substitute.Rewritten, res.Substitute.Scanned)
	for _, p := range res.Substitute.Skipped {
		fmt.Fprintf(w, "  binary, left as is: %s\n", p)
	}
	switch {
	case res.GitErr != nil:
		fmt.Fprintf(w, "  git init failed: %v\n", res.GitErr)
	case res.Commit != "":
		fmt.Fprintf(w, "  initial commit: %s\n", res.Commit)
	}
}

// parseSetFlags turns repeated KEY=VALUE flags into config overrides. The
// value may itself contain "=".
func parseSetFlags(sets []string) (map[string]any, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want KEY=VALUE", s)
		}
		out[key] = value
	}
	return out, nil
}

// ensureEmptyDir accepts a missing or empty directory.
func ensureEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("output directory %s is not empty", dir)
	}
	return nil
}

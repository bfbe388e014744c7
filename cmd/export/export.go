package export

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/exodash/exodash/internal/aggregate"
	"github.com/exodash/exodash/internal/app"
	"github.com/exodash/exodash/internal/buildinfo"
	"github.com/exodash/exodash/internal/classify"
	"github.com/exodash/exodash/internal/conf"
	"github.com/exodash/exodash/internal/dataset"
	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/fileutil"
	"github.com/exodash/exodash/internal/render"
)

// Chart export kinds, next to the dataset CSV kinds.
const (
	KindPie     = "pie"
	KindScatter = "scatter"
)

// Options selects what to export.
type Options struct {
	Kind     string
	Method   string
	Category string
	Output   string // "-" writes to stdout
}

// Command creates the command that writes CSV and PNG exports.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export planet tables and charts",
		Long: "Write the filtered or categorized table, the rows of one detection method, " +
			"or a pie or scatter chart as PNG.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Dataset.Watch = false

			a, err := app.New(settings, build)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.Dashboard.Start(ctx); err != nil {
				return err
			}
			snap, err := a.Dashboard.Snapshot(ctx)
			if err != nil {
				return err
			}

			if opts.Output == "-" {
				return Write(cmd.OutOrStdout(), snap, opts)
			}
			if opts.Output == "" {
				return errors.Newf("--output is required").
					Category(errors.CategoryValidation).
					Build()
			}
			err = fileutil.WriteAtomic(opts.Output, fileutil.DefaultFilePerm, func(w io.Writer) error {
				return Write(w, snap, opts)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", opts.Output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", dataset.ExportCategorized, "Export kind: filtered, categorized, subset, pie, scatter")
	cmd.Flags().StringVarP(&opts.Method, "method", "m", dataset.AllMethods, "Detection method for subset and pie")
	cmd.Flags().StringVarP(&opts.Category, "category", "c", string(classify.GasGiant), "Category for scatter")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file, - for stdout")

	return cmd
}

// Write renders the selected export to w.
func Write(w io.Writer, snap *dataset.Snapshot, opts Options) error {
	switch opts.Kind {
	case dataset.ExportFiltered:
		return snap.WriteFiltered(w)
	case dataset.ExportCategorized:
		return snap.WriteCategorized(w)
	case dataset.ExportSubset, KindPie:
		if !snap.HasMethod(opts.Method) {
			return errors.Newf("unknown detection method %q", opts.Method).
				Category(errors.CategoryNotFound).
				Context("method", opts.Method).
				Build()
		}
		if opts.Kind == dataset.ExportSubset {
			return snap.WriteSubset(w, opts.Method)
		}
		return render.WritePiePNG(w, aggregate.Aggregate(snap.Records(), opts.Method))
	case KindScatter:
		cat, ok := classify.Parse(opts.Category)
		if !ok {
			return errors.Newf("unknown category %q", opts.Category).
				Category(errors.CategoryValidation).
				Build()
		}
		points, err := aggregate.Scatter(snap.Records(), cat)
		if err != nil {
			return err
		}
		return render.WriteScatterPNG(w, cat, points)
	default:
		return errors.Newf("unknown export kind %q", opts.Kind).
			Category(errors.CategoryValidation).
			Build()
	}
}


package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/OCAP2/extractor/internal/config"
	"github.com/OCAP2/extractor/internal/extract"
	"github.com/OCAP2/extractor/internal/storage"
	"github.com/OCAP2/extractor/internal/util"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// criteriaFlags are the filter flags shared by extract and batch.
type criteriaFlags struct {
	theater    string
	coalitions []string
	categories []string
	types      []string
	alive      bool
	dead       bool
	at         string
}

func (f *criteriaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.theater, "theater", "", "theater name, overriding what the file declares")
	cmd.Flags().StringSliceVar(&f.coalitions, "coalition", nil, "keep only these coalitions (blue, red, neutral)")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "keep only these categories (aircraft, helicopter, ground, ship, navaid, other)")
	cmd.Flags().StringSliceVar(&f.types, "type", nil, "keep only units of these types")
	cmd.Flags().BoolVar(&f.alive, "alive", false, "keep only live units")
	cmd.Flags().BoolVar(&f.dead, "dead", false, "keep only dead units")
	cmd.Flags().StringVar(&f.at, "time", "", "telemetry time of interest as HH:MM:SS")
	cmd.MarkFlagsMutuallyExclusive("alive", "dead")
}

// criteria turns the flags into an extraction request for path.
func (f criteriaFlags) criteria(path string) (core.ExtractCriteria, error) {
	c := core.ExtractCriteria{
		Path:    path,
		Theater: strings.TrimSpace(f.theater),
	}

	for _, s := range f.coalitions {
		co := core.ParseCoalition(s)
		if co == core.CoalitionNeutral && !strings.EqualFold(strings.TrimSpace(s), "neutral") {
			return c, fmt.Errorf("%w: unknown coalition %q", core.ErrConfig, s)
		}
		c.Coalitions = append(c.Coalitions, co)
	}
	for _, s := range f.categories {
		cat, ok := core.ParseCategory(s)
		if !ok {
			return c, fmt.Errorf("%w: unknown category %q", core.ErrConfig, s)
		}
		c.Categories = append(c.Categories, cat)
	}
	for _, s := range f.types {
		if s = strings.TrimSpace(s); s != "" {
			c.UnitTypes = append(c.UnitTypes, s)
		}
	}

	switch {
	case f.alive && f.dead:
		return c, fmt.Errorf("%w: --alive and --dead exclude each other", core.ErrConfig)
	case f.alive:
		alive := true
		c.Alive = &alive
	case f.dead:
		alive := false
		c.Alive = &alive
	}

	if f.at != "" {
		t, err := time.Parse("15:04:05", f.at)
		if err != nil {
			return c, fmt.Errorf("%w: time must be HH:MM:SS: %v", core.ErrConfig, err)
		}
		c.TimeOfInterest = &t
	}
	return c, c.Validate()
}

func extractCmd(a *app) *cobra.Command {
	var f criteriaFlags
	cmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Extract one .miz, .acmi or .cf file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			criteria, err := f.criteria(args[0])
			if err != nil {
				return err
			}

			backend, err := a.openBackend()
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.closeBackend(backend, cmd.OutOrStdout())) }()

			svc, err := extract.New(a.registry, a.logger, extract.WithBackend(backend))
			if err != nil {
				return err
			}
			e, err := svc.Extract(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), e)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func batchCmd(a *app) *cobra.Command {
	var f criteriaFlags
	var jobs int
	cmd := &cobra.Command{
		Use:   "batch <path>...",
		Short: "Extract several files concurrently with the same filters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if jobs < 1 {
				return fmt.Errorf("%w: --jobs must be at least 1", core.ErrConfig)
			}
			requests := make([]core.ExtractCriteria, len(args))
			for i, path := range args {
				if requests[i], err = f.criteria(path); err != nil {
					return err
				}
			}

			backend, err := a.openBackend()
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.closeBackend(backend, cmd.OutOrStdout())) }()

			svc, err := extract.New(a.registry, a.logger, extract.WithBackend(&syncBackend{Backend: backend}))
			if err != nil {
				return err
			}

			results := make([]*core.Extraction, len(requests))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for i, c := range requests {
				g.Go(func() error {
					e, err := svc.Extract(ctx, c)
					if err != nil {
						return fmt.Errorf("%s: %w", c.Path, err)
					}
					results[i] = e
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for _, e := range results {
				printSummary(cmd.OutOrStdout(), e)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "files extracted at once")
	return cmd
}

func (a *app) openBackend() (storage.Backend, error) {
	backend, err := createStorageBackend(config.GetStorageConfig(), a.logger, a.sessionStart)
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	return backend, nil
}

// closeBackend closes the sink and lists whatever it wrote.
func (a *app) closeBackend(backend storage.Backend, w io.Writer) error {
	if err := backend.Close(); err != nil {
		return fmt.Errorf("closing storage backend: %w", err)
	}
	if ex, ok := backend.(storage.Exporter); ok {
		for _, path := range ex.ExportedFiles() {
			fmt.Fprintf(w, "wrote %s\n", path)
		}
	}
	return nil
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// printSummary writes a heading line and a table of groups or units.
func printSummary(w io.Writer, e *core.Extraction) {
	theater := e.Theater
	if theater == "" {
		theater = "-"
	}
	fmt.Fprintf(w, "%s (%s, %s): %d groups, %d units\n",
		filepath.Base(e.Source), e.Format, theater, len(e.Groups), e.UnitCount())

	if len(e.Groups) > 0 {
		t := newTable("GROUP", "COALITION", "CATEGORY", "UNITS", "WAYPOINTS", "TIME ON")
		for _, g := range e.Groups {
			timeOn := -1
			if len(g.Route) > 0 {
				timeOn = g.Route[0].TimeOn
			}
			t.Row(g.Name, string(g.Coalition), string(g.Category),
				strconv.Itoa(len(g.Units)), strconv.Itoa(len(g.Route)), util.FormatClock(timeOn))
		}
		fmt.Fprintln(w, t.Render())
	}

	if len(e.Units) > 0 {
		t := newTable("ID", "NAME", "TYPE", "COALITION", "CATEGORY", "ALIVE", "LAT", "LON", "ALT FT")
		for _, u := range e.Units {
			t.Row(u.UniqueID, u.Name, u.Type, string(u.Coalition), string(u.Category),
				strconv.FormatBool(u.IsAlive),
				strconv.FormatFloat(u.Position.Latitude, 'f', 5, 64),
				strconv.FormatFloat(u.Position.Longitude, 'f', 5, 64),
				strconv.FormatFloat(u.Position.Altitude, 'f', 0, 64))
		}
		fmt.Fprintln(w, t.Render())
	}
}

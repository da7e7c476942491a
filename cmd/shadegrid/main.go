// shadegrid - four shapes under four shading modes, side by side in the terminal.
//
// Rows, top to bottom: wireframe, flat, Gouraud, Phong.
// Columns, left to right: sphere, first mesh, iso-surface, second mesh.
// The cells of a column share one camera.
//
// Controls:
//
//	Mouse drag  - Orbit the column under the pointer
//	Scroll      - Dolly in/out
//	I/J/K/L     - Pan up/left/down/right
//	W/S         - Wireframe/surface for the cell under the pointer
//	R           - Reset the camera under the pointer
//	?           - Toggle labels (FPS, triangle count, cell names)
//	Q/E/Esc     - Quit
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"fortio.org/log"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/shadegrid/pkg/config"
	"github.com/taigrr/shadegrid/pkg/display"
	"github.com/taigrr/shadegrid/pkg/models"
	"github.com/taigrr/shadegrid/pkg/scene"
)

var version = "dev"

type options struct {
	configPath string
	snapshot   string
	fps        float64
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := fang.Execute(ctx, newRootCmd(),
		fang.WithVersion(version),
		fang.WithErrorHandler(logError),
	)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// logError reports a failed command through the logger instead of fang's
// styled error box.
func logError(_ io.Writer, _ fang.Styles, err error) {
	log.Errf("%v", err)
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "shadegrid <meshA> <meshB>",
		Short: "Compare wireframe, flat, Gouraud and Phong shading in the terminal",
		Long: `shadegrid - four shapes under four shading modes

Rows: wireframe, flat, Gouraud, Phong.
Columns: sphere, <meshA>, iso-surface, <meshB>.
Meshes may be OBJ, STL, GLB or glTF files.

Controls:
  Mouse drag  - Orbit the column under the pointer
  Scroll      - Dolly in/out
  I/J/K/L     - Pan
  W/S         - Wireframe/surface
  R           - Reset camera
  ?           - Toggle labels
  Q/E/Esc     - Quit`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: need <meshA> <meshB>, got %d path(s)", scene.ErrMissingArgument, len(args))
			}
			return nil
		},
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.verbose {
				log.SetLogLevel(log.Debug)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts.snapshot, args[0], args[1])
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "TOML settings file")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Render one frame to this PNG file and exit")
	cmd.Flags().Float64Var(&opts.fps, "fps", config.Default().FPS, "Target FPS")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(newInfoCmd(), newConfigCmd(opts))
	return cmd
}

// config loads the settings file, if any, and applies flags given explicitly.
func (o *options) config(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if f := cmd.Flags().Lookup("fps"); f != nil && f.Changed {
		cfg.FPS = o.fps
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// run builds the grid, frames each cell on its own shape, shares the cameras
// down each column and then either writes a snapshot or starts the viewer.
func run(ctx context.Context, cfg config.Config, snapshot, meshA, meshB string) error {
	f, err := scene.NewFactory(cfg.ScenePalette())
	if err != nil {
		return err
	}
	bg, err := f.Palette().BackgroundColor()
	if err != nil {
		return err
	}
	g, err := f.Assemble(meshA, meshB)
	if err != nil {
		return err
	}
	w, h := cfg.SurfaceSize(g.Rows, g.Cols)
	if err := g.Layout(w, h); err != nil {
		return err
	}

	rs := g.Renderers()
	scene.PrepareCameras(rs, bg, cfg.Azimuth, cfg.Elevation)
	linked := scene.LinkCameras(rs, g.Cols)
	log.Debugf("%d renderers share a camera with the cell above", linked)

	d := display.New(w, h, cfg.Title)
	d.FPS = cfg.FPS
	for _, r := range rs {
		if err := d.AddRenderer(r); err != nil {
			return err
		}
	}
	if err := d.Assemble(); err != nil {
		return err
	}

	if snapshot != "" {
		if err := d.Render(); err != nil {
			return err
		}
		if err := d.Snapshot(snapshot); err != nil {
			return err
		}
		return d.Close()
	}

	err = d.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newInfoCmd() *cobra.Command {
	var clean bool
	cmd := &cobra.Command{
		Use:   "info <mesh>",
		Short: "Display mesh information",
		Long:  "Display the format, vertex and triangle counts and the bounding box of a mesh file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.OutOrStdout(), args[0], clean)
		},
	}
	cmd.Flags().BoolVar(&clean, "clean", false, "Also remove duplicate and internal faces")
	return cmd
}

func runInfo(w io.Writer, path string, clean bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", scene.ErrResourceNotFound, err)
	}
	mesh, err := models.Load(path)
	if err != nil {
		return fmt.Errorf("load mesh: %w", err)
	}
	removed := 0
	if clean {
		removed = mesh.CleanMesh()
		mesh.CalculateBounds()
	}

	size := mesh.Size()
	center := mesh.Center()
	ext := strings.TrimPrefix(filepath.Ext(path), ".")

	fmt.Fprintf(w, "File:       %s\n", filepath.Base(path))
	fmt.Fprintf(w, "Format:     %s\n", strings.ToUpper(ext))
	fmt.Fprintf(w, "Size:       %.2f KB\n", float64(info.Size())/1024)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Vertices:   %d\n", mesh.VertexCount())
	fmt.Fprintf(w, "Triangles:  %d\n", mesh.TriangleCount())
	if clean {
		fmt.Fprintf(w, "Removed:    %d\n", removed)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Bounds Min: (%.3f, %.3f, %.3f)\n", mesh.BoundsMin.X, mesh.BoundsMin.Y, mesh.BoundsMin.Z)
	fmt.Fprintf(w, "Bounds Max: (%.3f, %.3f, %.3f)\n", mesh.BoundsMax.X, mesh.BoundsMax.Y, mesh.BoundsMax.Z)
	fmt.Fprintf(w, "Dimensions: %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
	fmt.Fprintf(w, "Center:     (%.3f, %.3f, %.3f)\n", center.X, center.Y, center.Z)
	return nil
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if opts.configPath != "" {
				var err error
				if cfg, err = config.Load(opts.configPath); err != nil {
					return err
				}
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

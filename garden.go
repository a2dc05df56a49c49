package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/webp"

	"github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/export"
	"github.com/INSANE0777/AIS-GARDEN/internal/garden"
	"github.com/INSANE0777/AIS-GARDEN/internal/localstore"
	gnet "github.com/INSANE0777/AIS-GARDEN/internal/net"
	"github.com/INSANE0777/AIS-GARDEN/internal/paths"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
	"github.com/INSANE0777/AIS-GARDEN/internal/ui"
)

var errNotJoined = errors.New("no saved identity; run `secretgarden join` first")

var (
	joinName   string
	plantColor string
	plantX     float64
	plantY     float64
	galleryPDF string
)

var joinCmd = &cobra.Command{
	Use:   "join [name]",
	Short: "Register a name to plant flowers under",
	Long: `Register a display name with the garden server and save the identity
locally. Without a name argument the name is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := interruptible(cmd)
		defer stop()

		client, err := connect(ctx)
		if err != nil {
			return err
		}
		if ok, err := client.Restore(); err != nil {
			return err
		} else if ok {
			id, _ := client.Session().Identity()
			fmt.Fprintln(cmd.OutOrStdout(), garden.Welcome(id.Name))
			return nil
		}

		name := joinName
		if len(args) == 1 {
			name = args[0]
		}
		if strings.TrimSpace(name) == "" {
			name, err = promptName(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
		}

		id, err := client.Identify(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), garden.Welcome(id.Name))
		return nil
	},
}

var plantCmd = &cobra.Command{
	Use:   "plant <drawing.png>",
	Short: "Plant a drawing from an image file",
	Long: `Plant the drawing in an image file (PNG, JPEG or WebP). The image is
scaled onto the drawing pad and checked like a drawing made by hand. Without
--x and --y the flower lands at a random spot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := interruptible(cmd)
		defer stop()

		color, err := state.ParseColor(plantColor)
		if err != nil {
			return err
		}
		img, err := readImage(args[0])
		if err != nil {
			return err
		}

		client, err := identifiedClient(ctx)
		if err != nil {
			return err
		}

		pad := canvas.NewPadFromImage(img)
		var f state.Flower
		if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
			f, err = client.PlantAt(ctx, pad, color, state.Position{X: plantX, Y: plantY})
		} else {
			f, err = client.Plant(ctx, pad, color)
		}
		if err != nil {
			return err
		}
		client.Settle()

		if client.Garden().Pending() > 0 {
			return fmt.Errorf("flower %s was not saved; see the log for details", f.ID)
		}
		planted := client.Garden().Flowers()
		last := planted[len(planted)-1]
		fmt.Fprintf(cmd.OutOrStdout(), "Planted a %s flower at (%g, %g) [%s]\n",
			last.Color, last.Position.X, last.Position.Y, last.ID)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the garden as flowers are planted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := interruptible(cmd)
		defer stop()

		client, err := identifiedClient(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var mu sync.Mutex
		seen := make(map[string]struct{})
		client.Garden().OnChange(func() {
			mu.Lock()
			defer mu.Unlock()
			flowers := client.Garden().Flowers()
			for _, f := range flowers {
				if _, ok := seen[f.ID]; ok || !f.Durable {
					continue
				}
				seen[f.ID] = struct{}{}
				fmt.Fprintf(out, "%s  %-8s %-6s (%g, %g)\n",
					f.CreatedAt.Local().Format(time.TimeOnly), f.Author, f.Color, f.Position.X, f.Position.Y)
			}
			fmt.Fprintln(out, garden.CounterText(len(flowers)))
		})

		if err := client.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		client.Wait()
		return nil
	},
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List every flower, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := interruptible(cmd)
		defer stop()

		client, err := connect(ctx)
		if err != nil {
			return err
		}
		flowers, err := client.Gallery(ctx)
		if err != nil {
			return err
		}

		if galleryPDF != "" {
			if err := export.WriteGalleryFile(galleryPDF, flowers, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d flowers to %s\n", len(flowers), galleryPDF)
			return nil
		}

		if len(flowers) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), export.EmptyText)
			return nil
		}
		return printGallery(cmd.OutOrStdout(), flowers)
	},
}

var desktopCmd = &cobra.Command{
	Use:   "desktop",
	Short: "Open the garden window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := interruptible(cmd)
		defer stop()

		client, err := connect(ctx)
		if err != nil {
			return err
		}
		return ui.Run(ctx, client, logger)
	},
}

func init() {
	joinCmd.Flags().StringVarP(&joinName, "name", "n", "", "display name")

	plantCmd.Flags().StringVarP(&plantColor, "color", "c", string(state.DefaultColor), "flower color: red, orange, yellow, pink or green")
	plantCmd.Flags().Float64Var(&plantX, "x", 50, "horizontal position in percent")
	plantCmd.Flags().Float64Var(&plantY, "y", 50, "vertical position in percent")

	galleryCmd.Flags().StringVar(&galleryPDF, "pdf", "", "write the gallery to this PDF file instead of listing it")
}

// connect resolves the server URL and returns a garden client bound to the
// saved identity store. The URL comes from --server, then client.server_url,
// then mDNS discovery.
func connect(ctx context.Context) (*garden.Client, error) {
	base := serverURL
	if base == "" {
		base = cfg.Client.ServerURL
	}
	if base == "" {
		logger.Info().Dur("timeout", cfg.Client.DiscoverTimeout).Msg("looking for a garden on the local network")
		found, err := gnet.Discover(ctx, cfg.Client.DiscoverTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w (pass --server)", err)
		}
		base = found
	}

	backend, err := gnet.NewClient(base, cfg.Client.RequestTimeout, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("server", backend.BaseURL()).Msg("using garden server")

	dir, err := paths.ResolveConfigDir(configDir)
	if err != nil {
		return nil, err
	}
	return garden.New(backend, localstore.New(dir), logger), nil
}

func identifiedClient(ctx context.Context) (*garden.Client, error) {
	client, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := client.Restore()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNotJoined
	}
	return client, nil
}

func promptName(in io.Reader, out io.Writer) (string, error) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "What should we call you? ")
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", garden.ErrEmptyName
		}
		if name := strings.TrimSpace(sc.Text()); name != "" {
			return name, nil
		}
	}
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func printGallery(w io.Writer, flowers []state.Flower) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLANTED\tAUTHOR\tCOLOR\tPOSITION\tID")
	for _, f := range flowers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t(%g, %g)\t%s\n",
			f.CreatedAt.Local().Format(time.DateTime), f.Author, f.Color, f.Position.X, f.Position.Y, f.ID)
	}
	return tw.Flush()
}

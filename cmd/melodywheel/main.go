package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/cobra"

	"github.com/mwheel/melodywheel"
)

const (
	windowW = 960
	windowH = 720
)

var (
	flagSoundFont     string
	flagDirection     string
	flagCircle        string
	flagMagnification float64
	flagLoop          bool
)

var rootCmd = &cobra.Command{
	Use:   "melodywheel <file.mid>",
	Short: "Circular melody-pattern visualizer for MIDI files",
	Long: `melodywheel plays a MIDI file through a SoundFont synthesizer and
renders a circular melody-pattern animation synchronized to playback.

Keys: space pause/resume, d direction, c circle mode,
up/down key shift, -/= magnification, q quit.`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagSoundFont, "soundfont", "s", "", "SF2 SoundFont file for synthesis (required)")
	rootCmd.Flags().StringVarP(&flagDirection, "direction", "d", "inward", "radial travel mode: inward or outward")
	rootCmd.Flags().StringVarP(&flagCircle, "circle", "c", "1/12", "pitch wheel granularity: 1/12, 7/12, 1/24, 1/48, 1/96, 1/192")
	rootCmd.Flags().Float64VarP(&flagMagnification, "magnification", "m", 100, "size scaling percentage")
	rootCmd.Flags().BoolVar(&flagLoop, "loop", true, "loop playback")
	_ = rootCmd.MarkFlagRequired("soundfont")
}

func run(cmd *cobra.Command, args []string) error {
	dir, err := parseDirection(flagDirection)
	if err != nil {
		return err
	}
	circle, err := parseCircle(flagCircle)
	if err != nil {
		return err
	}

	vis, err := melodywheel.New(
		melodywheel.WithDirection(dir),
		melodywheel.WithCircle(circle),
		melodywheel.WithMagnification(flagMagnification),
		melodywheel.WithLoop(flagLoop),
	)
	if err != nil {
		return err
	}
	if err := vis.LoadSoundFont(flagSoundFont); err != nil {
		return err
	}
	if err := vis.LoadScore(args[0]); err != nil {
		return err
	}
	if err := vis.Play(); err != nil {
		return err
	}

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("melodywheel - " + args[0])
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	g := &game{vis: vis}
	defer func() { _ = vis.Stop() }()
	return ebiten.RunGame(g)
}

func parseDirection(s string) (melodywheel.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inward":
		return melodywheel.Inward, nil
	case "outward":
		return melodywheel.Outward, nil
	default:
		return melodywheel.Inward, fmt.Errorf("unknown direction %q (want inward or outward)", s)
	}
}

func parseCircle(s string) (melodywheel.Circle, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 {
		return melodywheel.Circle{}, fmt.Errorf("circle must look like 1/12 or 7/12, got %q", s)
	}
	num, err := strconv.Atoi(parts[0])
	if err != nil || num <= 0 {
		return melodywheel.Circle{}, fmt.Errorf("bad circle numerator in %q", s)
	}
	den, err := strconv.Atoi(parts[1])
	if err != nil || den <= 0 {
		return melodywheel.Circle{}, fmt.Errorf("bad circle denominator in %q", s)
	}
	return melodywheel.Circle{Num: num, Den: den}, nil
}

type game struct {
	vis  *melodywheel.Visualizer
	w, h int
}

func (g *game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyQ), inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.vis.TogglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		g.vis.ToggleDirection()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.vis.CycleCircle()
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.vis.ShiftKey(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.vis.ShiftKey(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		g.vis.SetMagnification(g.vis.Magnification() + 10)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		g.vis.SetMagnification(g.vis.Magnification() - 10)
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.vis.Render(screen)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	if outsideW != g.w || outsideH != g.h {
		g.w = outsideW
		g.h = outsideH
		g.vis.Resize(outsideW, outsideH)
	}
	return outsideW, outsideH
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.SetFlags(0)
		log.Println(err)
		os.Exit(1)
	}
}

// csview - Terminal software-rasterizer viewer
// Renders a GLB model (or a built-in cube) with the CPU rasterizer.
//
// Controls:
//
//	Mouse drag  - Rotate model
//	Scroll      - Zoom in/out
//	W/S         - Pitch up/down
//	A/D         - Yaw left/right
//	Q/E         - Roll left/right
//	Space       - Apply random impulse
//	R           - Reset rotation
//	T           - Toggle texture sampling
//	B           - Toggle backface culling
//	P           - Save a WebP snapshot of the current frame
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/idanbeck/cs-cli/pkg/math3d"
	"github.com/idanbeck/cs-cli/pkg/models"
	"github.com/idanbeck/cs-cli/pkg/render"
)

var (
	texturePath = flag.String("texture", "", "Path to texture image (PNG/JPG/TGA/BMP)")
	msaaSamples = flag.Int("msaa", 4, "MSAA sample count (1, 4, or 16)")
	targetFPS   = flag.Int("fps", 60, "Target FPS")
	bgColor     = flag.String("bg", "30,30,40", "Background color (R,G,B)")
	snapshotDir = flag.String("snapshots", ".", "Directory for WebP snapshots")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "csview - Terminal software-rasterizer viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: csview [options] [model.glb]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Rotate model\n")
		fmt.Fprintf(os.Stderr, "  Scroll      - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Pitch and yaw\n")
		fmt.Fprintf(os.Stderr, "  Q/E         - Roll left/right\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  T           - Toggle texture\n")
		fmt.Fprintf(os.Stderr, "  B           - Toggle backface culling\n")
		fmt.Fprintf(os.Stderr, "  P           - Save WebP snapshot\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// RotationAxis tracks position and velocity for one rotation axis with
// spring decay.
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64
}

// NewRotationAxis creates an axis with a critically damped spring pulling
// its velocity back toward zero.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState holds the three rotation axes.
type RotationState struct {
	Pitch, Yaw, Roll RotationAxis
	fps              int
}

func NewRotationState(fps int) *RotationState {
	return &RotationState{
		Pitch: NewRotationAxis(fps),
		Yaw:   NewRotationAxis(fps),
		Roll:  NewRotationAxis(fps),
		fps:   fps,
	}
}

func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
	r.Roll.Update()
}

func (r *RotationState) ApplyImpulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
	r.Roll = NewRotationAxis(r.fps)
}

func loadMesh(modelPath string, r *render.Renderer) (*models.Mesh, error) {
	if modelPath == "" {
		return models.Cube(1), nil
	}

	mesh, embedded, err := models.LoadGLBWithTexture(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if embedded != nil && *texturePath == "" {
		pixels, w, h := render.ImageToRGB(embedded)
		if err := r.SetTexture(pixels, w, h); err != nil {
			return nil, err
		}
	}

	// Center and scale to a 2-unit box
	center := mesh.Center()
	size := mesh.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim > 0 {
		scale := 2.0 / maxDim
		mesh.Transform(math3d.ScaleUniform(scale).Mul(math3d.Translate(center.Negate())))
	}
	return mesh, nil
}

func run(modelPath string) error {
	var bgR, bgG, bgB uint8 = 30, 30, 40
	fmt.Sscanf(*bgColor, "%d,%d,%d", &bgR, &bgG, &bgB)

	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	// Half-block cells give two framebuffer rows per terminal row
	rend, err := render.New(width, height*2, *msaaSamples)
	if err != nil {
		return err
	}
	defer rend.Close()

	if *texturePath != "" {
		if err := rend.LoadTextureRGB(*texturePath); err != nil {
			fmt.Printf("Warning: could not load texture: %v\n", err)
		}
	}

	mesh, err := loadMesh(modelPath, rend)
	if err != nil {
		return err
	}
	if !mesh.HasNormals() {
		mesh.CalculateSmoothNormals()
	}

	rotation := NewRotationState(*targetFPS)
	texturesOn := true
	backfaceOn := true
	cameraZ := 3.0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	inputTorque := struct{ pitch, yaw, roll float64 }{}
	const torqueStrength = 3.0

	var mouseDown bool
	var lastMouseX, lastMouseY int
	snapshot := make(chan struct{}, 1)

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				if err := rend.Reinit(width, height*2, *msaaSamples); err != nil {
					cancel()
					return
				}

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					cancel()
					return
				case ev.MatchString("r"):
					rotation.Reset()
					cameraZ = 3.0
				case ev.MatchString("w", "up"):
					inputTorque.pitch = -torqueStrength
				case ev.MatchString("s", "down"):
					inputTorque.pitch = torqueStrength
				case ev.MatchString("a", "left"):
					inputTorque.yaw = -torqueStrength
				case ev.MatchString("d", "right"):
					inputTorque.yaw = torqueStrength
				case ev.MatchString("q"):
					inputTorque.roll = -torqueStrength
				case ev.MatchString("e"):
					inputTorque.roll = torqueStrength
				case ev.MatchString("space"):
					rotation.ApplyImpulse(
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
					)
				case ev.MatchString("+", "="):
					cameraZ = math.Max(1, cameraZ-0.5)
				case ev.MatchString("-", "_"):
					cameraZ = math.Min(20, cameraZ+0.5)
				case ev.MatchString("t"):
					texturesOn = !texturesOn
				case ev.MatchString("b"):
					backfaceOn = !backfaceOn
				case ev.MatchString("p"):
					select {
					case snapshot <- struct{}{}:
					default:
					}
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w"), ev.MatchString("up"), ev.MatchString("s"), ev.MatchString("down"):
					inputTorque.pitch = 0
				case ev.MatchString("a"), ev.MatchString("left"), ev.MatchString("d"), ev.MatchString("right"):
					inputTorque.yaw = 0
				case ev.MatchString("q"), ev.MatchString("e"):
					inputTorque.roll = 0
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx := ev.X - lastMouseX
					dy := ev.Y - lastMouseY
					rotation.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03, 0)
					lastMouseX, lastMouseY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					cameraZ = math.Max(1, cameraZ-0.5)
				case uv.MouseWheelDown:
					cameraZ = math.Min(20, cameraZ+0.5)
				}
			}
		}
	}()

	targetDuration := time.Second / time.Duration(*targetFPS)
	lastFrame := time.Now()

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now
		if dt > 0.1 {
			dt = 0.1
		}

		// Apply input torque and decay it (key release events unreliable)
		rotation.ApplyImpulse(
			inputTorque.pitch*dt,
			inputTorque.yaw*dt,
			inputTorque.roll*dt,
		)
		inputTorque.pitch *= 0.9
		inputTorque.yaw *= 0.9
		inputTorque.roll *= 0.9

		rotation.Update()

		model := math3d.RotateX(rotation.Pitch.Position).
			Mul(math3d.RotateY(rotation.Yaw.Position)).
			Mul(math3d.RotateZ(rotation.Roll.Position))

		fbW, fbH := rend.Dimensions()
		view := math3d.LookAt(math3d.V3(0, 0, cameraZ), math3d.Zero3(), math3d.Up())
		proj := math3d.Perspective(math.Pi/3, float64(fbW)/float64(fbH), 0.1, 100)
		mvp := proj.Mul(view).Mul(model)

		rend.SetOptions(backfaceOn, texturesOn)
		if err := rend.Clear(bgR, bgG, bgB); err != nil {
			cleanup()
			return err
		}
		if _, err := rend.RenderTriangles(mesh.Positions, mesh.Indices, mvp, mesh.Colors, mesh.Normals, mesh.UVs); err != nil {
			cleanup()
			return err
		}
		if err := rend.ResolveMSAA(); err != nil {
			cleanup()
			return err
		}

		rend.Blit(term, uv.Rect(0, 0, width, height))
		if err := term.Display(); err != nil {
			cleanup()
			return fmt.Errorf("display: %w", err)
		}

		select {
		case <-snapshot:
			name := filepath.Join(*snapshotDir, fmt.Sprintf("csview-%d.webp", time.Now().Unix()))
			_ = rend.SaveWebP(name)
		default:
		}

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

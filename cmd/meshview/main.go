// Command meshview loads a text mesh or binary STL file, reports the
// reconciled buffers and optionally previews, converts or displays it.
//
//	meshview [flags] mesh.obj
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/mesh3"
	"github.com/soypat/mesh3/camera"
	"github.com/soypat/mesh3/glview"
	"github.com/soypat/mesh3/preview"
	"github.com/soypat/mesh3/upload"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

var (
	flagPNG     = flag.String("png", "", "write a software rendered preview to `file`")
	flagSTL     = flag.String("stl", "", "write the mesh as binary STL to `file`")
	flagView    = flag.Bool("view", false, "open an OpenGL window displaying the mesh")
	flagGPU     = flag.Bool("gpu", false, "upload the mesh through the noop GPU backend and report buffer sizes")
	flagPos     = flag.Bool("posonly", false, "use the position-only vertex format")
	flagVerbose = flag.Bool("v", false, "log debug output")
	flagStrict  = flag.Bool("strict", false, "fail if any line was skipped or normals do not match vertices")
	flagWidth   = flag.Int("width", 800, "preview and window width")
	flagHeight  = flag.Int("height", 600, "preview and window height")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] mesh-file\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	level := slog.LevelInfo
	if *flagVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	mesh3.SetLogger(log)

	if err := run(flag.Arg(0), log); err != nil {
		log.Error("meshview failed", "err", err)
		os.Exit(1)
	}
}

func run(path string, log *slog.Logger) error {
	b, diag, err := mesh3.Load(path)
	if err != nil {
		return err
	}
	if *flagStrict {
		if err := diag.Err(); err != nil {
			return err
		}
	}
	bb := b.Bounds()
	fmt.Printf("%s: %d lines, %d vertices, %d indices, %d triangles\n",
		path, diag.Lines, len(b.Vertices), len(b.Indices), b.TriangleCount())
	fmt.Printf("bounds: min=%v max=%v\n", bb.Min, bb.Max)
	if n := diag.Skipped(); n > 0 {
		fmt.Printf("skipped %d lines (first at %v)\n", n, diag.SkippedLines)
	}
	if diag.DroppedFaces > 0 {
		fmt.Printf("dropped %d faces referencing missing vertices\n", diag.DroppedFaces)
	}

	var format mesh3.Format = mesh3.PositionNormalFormat{}
	if *flagPos {
		format = mesh3.PositionFormat{}
	}
	if *flagGPU {
		if err := uploadNoop(b, format); err != nil {
			return err
		}
	}
	if *flagSTL != "" {
		if err := writeSTL(*flagSTL, b); err != nil {
			return err
		}
		log.Info("wrote STL", "file", *flagSTL, "triangles", b.TriangleCount())
	}
	if *flagPNG != "" {
		cfg := preview.DefaultConfig()
		cfg.Width, cfg.Height = *flagWidth, *flagHeight
		img, err := preview.Render(b, cfg)
		if err != nil {
			return err
		}
		if err := preview.SavePNG(*flagPNG, img); err != nil {
			return err
		}
		log.Info("wrote preview", "file", *flagPNG)
	}
	if *flagView {
		return view(b, format, log)
	}
	return nil
}

func writeSTL(path string, b mesh3.Buffers) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	_, err = mesh3.WriteBinarySTL(fp, b)
	if err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}

func uploadNoop(b mesh3.Buffers, format mesh3.Format) error {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return err
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return errors.New("no noop adapter")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return err
	}
	defer openDev.Device.Destroy()

	u := upload.New(openDev.Device, openDev.Queue, format)
	model, err := u.Upload(b)
	if err != nil {
		return err
	}
	defer model.Destroy(openDev.Device)
	stride := format.Stride()
	fmt.Printf("gpu: vertex buffer %d bytes (stride %d), index buffer %d bytes, indexed=%v\n",
		int(model.VertexCount)*stride, stride, 4*int(model.IndexCount), model.Indexed())
	return nil
}

func view(b mesh3.Buffers, format mesh3.Format, log *slog.Logger) error {
	window, terminate, err := glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "meshview",
		Version: [2]int{4, 6},
		Width:   *flagWidth,
		Height:  *flagHeight,
	})
	if err != nil {
		return err
	}
	defer terminate()
	log.Debug("GL context created", "version", glgl.Version())

	prog, err := glview.NewProgram()
	if err != nil {
		return err
	}
	defer prog.Delete()
	mesh, err := glview.Upload(prog, b, format)
	if err != nil {
		return err
	}
	defer mesh.Delete()

	cam := camera.Fit(b.Bounds())
	light := glview.Light{Color: ms3.Vec{X: 1, Y: 1, Z: 1}}
	window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if yoff > 0 {
			cam.Zoom(0.9)
		} else if yoff < 0 {
			cam.Zoom(1 / 0.9)
		}
	})

	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(0.1, 0.1, 0.12, 1)
	const step = 0.02
	for !window.ShouldClose() {
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
		}
		var dyaw, dpitch float32
		if window.GetKey(glfw.KeyLeft) == glfw.Press {
			dyaw -= step
		}
		if window.GetKey(glfw.KeyRight) == glfw.Press {
			dyaw += step
		}
		if window.GetKey(glfw.KeyUp) == glfw.Press {
			dpitch += step
		}
		if window.GetKey(glfw.KeyDown) == glfw.Press {
			dpitch -= step
		}
		cam.Rotate(dyaw, dpitch)

		width, height := window.GetFramebufferSize()
		if height == 0 {
			height = 1
		}
		gl.Viewport(0, 0, int32(width), int32(height))
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		// Light follows the camera.
		light.Position = cam.Eye()
		prog.Use()
		prog.SetViewProj(cam.ViewProj(float32(width) / float32(height)))
		prog.SetLight(light)
		prog.SetColor(ms3.Vec{X: 0.8, Y: 0.6, Z: 0.4})
		mesh.Draw()

		window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

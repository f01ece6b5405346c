package main

import (
	"math"
	"time"

	"voxstream/internal/config"
	"voxstream/internal/game"
	"voxstream/internal/geom"
	"voxstream/internal/gpu"
	"voxstream/internal/logging"
	"voxstream/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	flySpeed         = 24.0
	sprintMultiplier = 4.0
	mouseSensitivity = 0.1
	fpsLimit         = 144
)

// viewLoop is a free-flying camera over the streamed world.
type viewLoop struct {
	window  *glfw.Window
	orch    *game.Orchestrator
	camera  *geom.Camera
	limiter *game.FPSLimiter
	size    int

	nearRadius, farRadius int

	firstMouse   bool
	lastX, lastY float64
	frames       int
	lastFPSCheck time.Time
	lastTime     time.Time
}

func newViewLoop(window *glfw.Window, orch *game.Orchestrator, cfg *config.Config) *viewLoop {
	cam := geom.NewCamera(winW, winH)
	cam.Position = mgl32.Vec3{0, float32(float64(cfg.World.BaseHeight) + cfg.World.Amplitude + 8), 0}
	cam.FarPlane = float32((cfg.Streaming.FarRadius + 2) * cfg.Streaming.ChunkSize)
	return &viewLoop{
		window:       window,
		orch:         orch,
		camera:       cam,
		limiter:      game.NewFPSLimiter(fpsLimit),
		size:         cfg.Streaming.ChunkSize,
		nearRadius:   cfg.Streaming.NearRadius,
		farRadius:    cfg.Streaming.FarRadius,
		firstMouse:   true,
		lastFPSCheck: time.Now(),
		lastTime:     time.Now(),
	}
}

func (l *viewLoop) bindInput() {
	l.window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if l.firstMouse {
			l.lastX, l.lastY = xpos, ypos
			l.firstMouse = false
			return
		}
		dx := float32(xpos-l.lastX) * mouseSensitivity
		dy := float32(l.lastY-ypos) * mouseSensitivity
		l.lastX, l.lastY = xpos, ypos
		l.camera.Rotate(dx, dy)
	})

	l.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyEqual, glfw.KeyKPAdd:
			l.resize(1)
		case glfw.KeyMinus, glfw.KeyKPSubtract:
			l.resize(-1)
		case glfw.KeyF:
			st := l.orch.Statistics()
			logging.Info("chunks: loaded=%d queued=%d building=%d near=%d far=%d failed=%d",
				st.Loaded, st.Queued, st.Building, st.Near, st.Far, st.Failed)
		}
	})
}

// resize grows or shrinks both radii by step chunks.
func (l *viewLoop) resize(step int) {
	near := max(1, l.nearRadius+step)
	far := max(near+1, l.farRadius+step*2)
	if near == l.nearRadius && far == l.farRadius {
		return
	}
	l.orch.SetRadii(near, far)
	l.nearRadius, l.farRadius = l.orch.Radii()
	l.camera.FarPlane = float32((l.farRadius + 2) * l.size)
	logging.Info("radii: near=%d far=%d", l.nearRadius, l.farRadius)
}

func (l *viewLoop) run() {
	gl.ClearColor(0.62, 0.76, 0.92, 1)
	for !l.window.ShouldClose() {
		now := time.Now()
		dt := now.Sub(l.lastTime).Seconds()
		l.lastTime = now

		func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()
		l.move(float32(dt))

		frustum := l.camera.Frustum()
		l.orch.Tick(l.camera.Position, frustum)

		width, height := l.window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(width), int32(height))
		if height > 0 {
			l.camera.AspectRatio = float32(width) / float32(height)
		}
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		effect := gpu.DefaultEffect(l.camera.View(), l.camera.Projection(), float32(l.farRadius*l.size))
		func() {
			defer profiling.Track("render.DrawAll")()
			l.orch.DrawAll(effect, frustum)
		}()

		func() { defer profiling.Track("glfw.SwapBuffers")(); l.window.SwapBuffers() }()
		l.frames++
		if time.Since(l.lastFPSCheck) >= time.Second {
			logging.Debug("FPS: %d", l.frames)
			l.frames = 0
			l.lastFPSCheck = time.Now()
		}
		l.limiter.Wait()
	}
}

func (l *viewLoop) move(dt float32) {
	speed := float32(flySpeed) * dt
	if l.window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		speed *= sprintMultiplier
	}
	front := l.camera.Front()
	flat := mgl32.Vec3{front.X(), 0, front.Z()}
	if flat.Len() > 0 {
		flat = flat.Normalize()
	}
	right := flat.Cross(mgl32.Vec3{0, 1, 0})

	var dir mgl32.Vec3
	if l.window.GetKey(glfw.KeyW) == glfw.Press {
		dir = dir.Add(front)
	}
	if l.window.GetKey(glfw.KeyS) == glfw.Press {
		dir = dir.Sub(front)
	}
	if l.window.GetKey(glfw.KeyD) == glfw.Press {
		dir = dir.Add(right)
	}
	if l.window.GetKey(glfw.KeyA) == glfw.Press {
		dir = dir.Sub(right)
	}
	if l.window.GetKey(glfw.KeySpace) == glfw.Press {
		dir[1]++
	}
	if l.window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		dir[1]--
	}
	if n := dir.Len(); n > 0 && !math.IsNaN(float64(n)) {
		l.camera.Position = l.camera.Position.Add(dir.Mul(speed / n))
	}
}

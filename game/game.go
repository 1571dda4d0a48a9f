// Package game wires the world, the flock and the belt into sessions and
// drives them frame by frame, with telemetry and optional rendering.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/swarm/camera"
	"github.com/pthm-cable/swarm/config"
	"github.com/pthm-cable/swarm/flock"
	"github.com/pthm-cable/swarm/geom"
	"github.com/pthm-cable/swarm/inspector"
	"github.com/pthm-cable/swarm/orbit"
	"github.com/pthm-cable/swarm/parallel"
	"github.com/pthm-cable/swarm/scene"
	"github.com/pthm-cable/swarm/telemetry"
	"github.com/pthm-cable/swarm/ui"
)

// ObstacleCellSize is the hash grid cell size of the obstacle snapshot.
const ObstacleCellSize = 4.0

// Game holds the complete game state.
type Game struct {
	cfg     *config.Config
	log     *slog.Logger
	rng     *rand.Rand
	rngSeed int64
	runID   string

	pool      *parallel.Pool
	world     *scene.World
	obstacles *scene.ObstacleField
	flock     *flock.Manager
	belt      *orbit.Belt
	scheduler *FrameScheduler

	// State
	tick           int32
	paused         bool
	stepsPerUpdate int
	inSession      bool
	enemies        int
	asteroids      int
	contactRadius  float32

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	outputManager    *telemetry.OutputManager
	trace            *telemetry.TraceWriter
	bookmarkDetector *telemetry.BookmarkDetector
	logStats         bool
	snapshotDir      string
	traceEvery       int
	observer         FramePublisher
	publishEach      int
	statsCallback    func(telemetry.WindowStats)

	// Sampling scratch, reused across windows
	speeds    []float64
	neighbors []float64
	dists     []float64

	// Rendering
	headless    bool
	camera      *camera.Camera
	followShip  bool
	hud         *ui.HUD
	perfPanel   *ui.PerfPanel
	controls    *ui.ControlsPanel
	uiRenderer  *ui.Renderer
	inspector   *inspector.Inspector
	statsPanel  ui.PanelDescriptor
	showPerf    bool
	lastStats   telemetry.WindowStats
	pickBlocked []rl.Rectangle
}

// NewGameWithOptions creates a game and starts the first session, or
// resumes one from opts.ResumePath.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settings, err := flock.NewSettings(cfg.Boids)
	if err != nil {
		return nil, fmt.Errorf("flock settings: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	pool := parallel.NewPool(cfg.Derived.WorkerCount, cfg.Workers.ParallelThreshold)

	autopilot := scene.Autopilot{
		Center: vec3(cfg.Belt.Center),
		Radius: float32(cfg.Ship.PathRadius),
		Height: float32(cfg.Ship.PathHeight),
		Speed:  float32(cfg.Ship.PathSpeed),
	}
	shipPos, _ := autopilot.PoseAt(0)
	world := scene.NewWorld(rng, shipPos, float32(cfg.Ship.ContactRadius),
		vec3(cfg.Belt.Center), geom.EulerDegrees(float32(cfg.Belt.Tilt), 0, 0))
	autopilot.Step(world, 0)

	obstacles := scene.NewObstacleField(ObstacleCellSize)
	fm, err := flock.NewManager(settings, pool, obstacles, logger)
	if err != nil {
		pool.Stop()
		return nil, err
	}
	fm.SetTarget(world.Ship())

	runID := telemetry.NewRunID()
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	fm.SetPhaseTimer(perf)

	belt := orbit.NewBelt(pool, logger)

	g := &Game{
		cfg:     cfg,
		log:     logger,
		rng:     rng,
		rngSeed: opts.Seed,
		runID:   runID,

		pool:      pool,
		world:     world,
		obstacles: obstacles,
		flock:     fm,
		belt:      belt,
		scheduler: &FrameScheduler{
			World:     world,
			Obstacles: obstacles,
			Autopilot: autopilot,
			Flock:     fm,
			Belt:      belt,
			Timer:     perf,
		},

		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
		enemies:        cfg.Spawner.Count,
		asteroids:      cfg.Belt.Count,
		contactRadius:  float32(cfg.Ship.ContactRadius),

		collector:        telemetry.NewCollector(runID, statsWindow, cfg.Derived.DT32),
		perfCollector:    perf,
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		traceEvery:       cfg.Telemetry.TraceEvery,
		observer:         opts.Observer,
		publishEach:      max(cfg.Observer.PublishEach, 1),

		headless: opts.Headless,
	}
	if opts.Enemies >= 0 {
		g.enemies = opts.Enemies
	}
	if opts.Asteroids >= 0 {
		g.asteroids = opts.Asteroids
	}

	if err := g.openOutputs(opts.OutputDir); err != nil {
		g.Unload()
		return nil, err
	}

	if !opts.Headless {
		viewDist := float32(cfg.Belt.OuterRadius) * 2.5
		g.camera = camera.New(float32(cfg.Screen.Width), float32(cfg.Screen.Height), vec3(cfg.Belt.Center), max(viewDist, 20))
		g.hud = ui.NewHUD()
		g.perfPanel = ui.NewPerfPanel(int32(cfg.Screen.Width)-300, 10)
		g.controls = ui.NewControlsPanel(10, 110, 260)
		g.uiRenderer = ui.NewRenderer()
		g.inspector = inspector.NewInspector(int32(cfg.Screen.Width), int32(cfg.Screen.Height))
		g.statsPanel = ui.FlockStatsPanel(float32(cfg.Boids.MaximumSpeed))
	}

	if opts.ResumePath != "" {
		snap, err := telemetry.LoadSnapshot(opts.ResumePath)
		if err != nil {
			g.Unload()
			return nil, err
		}
		if err := g.RestoreSnapshot(snap); err != nil {
			g.Unload()
			return nil, err
		}
	} else if err := g.StartSession(); err != nil {
		g.Unload()
		return nil, err
	}

	return g, nil
}

// openOutputs creates the CSV writers and the optional frame trace.
func (g *Game) openOutputs(dir string) error {
	om, err := telemetry.NewOutputManager(dir)
	if err != nil {
		return err
	}
	g.outputManager = om
	if err := om.WriteConfig(g.cfg); err != nil {
		return err
	}

	if g.traceEvery > 0 {
		tw, err := telemetry.NewTraceWriter(dir)
		if err != nil {
			return err
		}
		g.trace = tw
	}

	if dir != "" {
		g.log.Info("output enabled", "dir", dir, "run_id", g.runID, "trace", g.trace != nil)
	}
	return nil
}

// Update handles input and runs stepsPerUpdate simulation ticks.
func (g *Game) Update() {
	g.handleInput()

	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// UpdateHeadless runs stepsPerUpdate simulation ticks without input.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// step runs a single tick of the simulation.
func (g *Game) step() {
	g.perfCollector.StartTick(g.flock.Generation(), g.flock.Len())

	g.scheduler.Step(g.cfg.Derived.DT32)

	g.perfCollector.StartPhase(telemetry.PhaseContacts)
	g.handleContacts()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.recordFrame()

	g.perfCollector.EndTick()
	g.tick++

	g.flushTelemetry()
}

// Unload ends the session and releases workers and output files.
func (g *Game) Unload() {
	g.EndSession("session_end")
	g.pool.Stop()

	if err := g.trace.Close(); err != nil {
		g.log.Error("failed to close trace", "error", err)
	}
	if err := g.outputManager.Close(); err != nil {
		g.log.Error("failed to close output", "error", err)
	}
}

// SetBoids swaps the flocking tunables of the running game. The config is
// validated first; on error nothing changes.
func (g *Game) SetBoids(c config.BoidsConfig) error {
	settings, err := flock.NewSettings(c)
	if err != nil {
		return fmt.Errorf("flock settings: %w", err)
	}
	if err := g.flock.SetSettings(settings); err != nil {
		return err
	}
	g.cfg.Boids = c
	g.log.Debug("boid settings updated", "tick", g.tick)
	return nil
}

// Config returns the configuration the game runs with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// SetPaused pauses or resumes the simulation.
func (g *Game) SetPaused(p bool) {
	g.paused = p
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// RunID returns the identifier stamped into this run's outputs.
func (g *Game) RunID() string {
	return g.runID
}

// World returns the entity store.
func (g *Game) World() *scene.World {
	return g.world
}

// Flock returns the flock pipeline.
func (g *Game) Flock() *flock.Manager {
	return g.flock
}

// Belt returns the belt pipeline.
func (g *Game) Belt() *orbit.Belt {
	return g.belt
}

// InSession reports whether a session is running.
func (g *Game) InSession() bool {
	return g.inSession
}

// SetStatsCallback installs a function called with every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

func vec3(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

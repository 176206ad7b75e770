package main

import (
	"flag"
	"image"
	"image/color"
	"math/rand"
	"net/http"
	"time"

	"github.com/ImVexed/spacetree"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// This file is an example using spacetree to simulate a 2D lingering AoE spell causing damage
// over multiple ticks to a group of wandering enemies

type LingeringAoESpell struct {
	duration time.Duration
	dps      float64
	position mgl64.Vec3
	radius   float64
}

func (l *LingeringAoESpell) HitTestEx(m *Mob) bool {
	// Maybe factor in dodge, block, accuracy, etc. here

	dx := l.position[0] - m.position[0]
	dy := l.position[1] - m.position[1]
	distSq := dx*dx + dy*dy

	radSq := (l.radius + m.size) * (l.radius + m.size)

	return distSq <= radSq
}

func (l *LingeringAoESpell) HitTest(b spacetree.BoundingBox) bool {
	return b.Intersects(spacetree.FitBox(l.position, mgl64.Vec3{l.radius * 2, l.radius * 2, l.radius * 2}))
}

// DrawImage draws the spell outline onto a canvas covering bounds at scale.
func (l *LingeringAoESpell) DrawImage(i *image.RGBA, bounds spacetree.BoundingBox, scale float64) {
	cx := int((l.position[0] - bounds.Min[0]) * scale)
	cy := int((l.position[1] - bounds.Min[1]) * scale)
	r := int(l.radius * scale)

	x, y, dx, dy := r-1, 0, 1, 1
	err := dx - (r * 2)

	c := color.RGBA{255, 255, 0, 255}
	for x > y {
		i.Set(cx+x, cy+y, c)
		i.Set(cx+y, cy+x, c)
		i.Set(cx-y, cy+x, c)
		i.Set(cx-x, cy+y, c)
		i.Set(cx-x, cy-y, c)
		i.Set(cx-y, cy-x, c)
		i.Set(cx+y, cy-x, c)
		i.Set(cx+x, cy-y, c)

		if err <= 0 {
			y++
			err += dy
			dy += 2
		}
		if err > 0 {
			x--
			dx += 2
			err += dx - (r * 2)
		}
	}
}

type Mob struct {
	id       uuid.UUID
	health   float64
	position mgl64.Vec3
	size     float64
}

func (m *Mob) ID() uuid.UUID {
	return m.id
}

func (m *Mob) Position() mgl64.Vec3 {
	return m.position
}

func (m *Mob) Scale() mgl64.Vec3 {
	return mgl64.Vec3{m.size, m.size, m.size}
}

// wander moves a live mob up to step units in the XY plane.
func (m *Mob) wander(step float64) {
	if m.health <= 0 {
		return
	}
	m.position[0] += (rand.Float64()*2 - 1) * step
	m.position[1] += (rand.Float64()*2 - 1) * step
}

func main() {
	var (
		entityCount = flag.Int("mobs", 50_000, "number of mobs to spawn")
		configPath  = flag.String("config", "", "optional tree config file")
		metricsAddr = flag.String("metrics", "", "serve prometheus metrics on this address")
		imagePath   = flag.String("image", "./spell.bmp", "where to dump the final tree image")
	)
	flag.Parse()

	// The zone octree covers the spawn area unless a config says otherwise
	cfg := spacetree.DefaultConfig()
	cfg.Origin = []float64{5_000, 5_000, 0}
	cfg.Dimensions = []float64{12_000, 12_000, 12_000}
	cfg.Depth = 3
	if *configPath != "" {
		var err error
		if cfg, err = spacetree.LoadConfig(*configPath); err != nil {
			log.WithError(err).Fatal("loading config")
		}
	}
	log.SetLevel(cfg.Level())

	metrics := spacetree.NewMetrics(prometheus.DefaultRegisterer)
	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	rand.Seed(int64(time.Now().Nanosecond()))
	log.Infof("Allocating %d entities, this may take a moment...", *entityCount)

	mobs := make([]*Mob, *entityCount)
	scene := spacetree.NewCollection()

	// Build the scene of mobs
	for n := range mobs {
		m := &Mob{
			id:     uuid.New(),
			health: float64(rand.Intn(120)), // 100 damage is dealt over 2 seconds, so only ~20% should survive
			size:   1,
			position: mgl64.Vec3{
				float64(rand.Intn(10_000)),
				float64(rand.Intn(10_000)),
			},
		}
		mobs[n] = m
		scene.Add(m)
	}

	world, err := spacetree.NewSceneTreeFromConfig(cfg, spacetree.WithMetrics(metrics))
	if err != nil {
		log.WithError(err).Fatal("building world")
	}

	// Mob positions are already in world space
	if err := world.AddScene(scene, mgl64.Vec3{}); err != nil {
		log.WithError(err).Fatal("adding scene")
	}

	tickRate := time.Second / 30
	ticker := time.NewTicker(tickRate)

	spell := &LingeringAoESpell{
		duration: 2 * time.Second,
		dps:      50,
		position: mgl64.Vec3{
			float64(rand.Intn(10_000)),
			float64(rand.Intn(10_000)),
		},
		radius: 1000,
	}

	// Store when the spell was casted so we know when to stop
	casted := time.Now()
	ticks := 0
	deadMobs := 0
	rebuilds := 0
	log.Info("Starting simulation loop!")
	for {
		delta := time.Since(<-ticker.C)
		ticks++
		if delta.Milliseconds() > 0 {
			// The ability to maintain the tickrate is highly dependent on the underlying machine
			log.WithField("delta", delta).Warn("Tick rate slipped")
		}

		for _, m := range mobs {
			m.wander(2)
		}

		// Refit to the new positions, and rebuild once the hierarchy has drifted too far
		if err := world.Update(); err != nil {
			log.WithError(err).Fatal("updating tree")
		}
		if world.BVH.Stale() {
			if err := world.BVH.Rebuild(); err != nil {
				log.WithError(err).Fatal("rebuilding tree")
			}
			rebuilds++
		}

		// Traverse the tree and collect the entities from bounding boxes we collided with
		hits := world.BVH.Traverse(spell.HitTest)

		if time.Since(casted) > spell.duration {
			break
		}

		for _, e := range hits {
			m := e.(*Mob)

			// Do a higher precision hit test here now that we have a list of entities that we have likely colided with.
			// In our case it's an arguably simpler colision check than what's used in the tree, however, normally
			// you would do expensive things here that you couldn't afford to do on the whole tree of entities
			if !spell.HitTestEx(m) {
				continue
			}

			if m.health > 0 {
				m.health -= (spell.dps / float64(time.Second.Milliseconds())) * float64((tickRate + delta).Milliseconds())
				if m.health <= 0 {
					m.health = 0
					deadMobs++
				}
			}
		}
	}

	log.WithFields(log.Fields{
		"ticks":    ticks,
		"elapsed":  time.Since(casted),
		"killed":   deadMobs,
		"mobs":     *entityCount,
		"rebuilds": rebuilds,
	}).Info("Spell ended")

	// The zone the spell was cast in, as seen by the octree
	if zone, err := world.Octree.GetContainingNode(spell.position); err == nil {
		n := world.Octree.Node(zone)
		log.WithFields(log.Fields{
			"zone":   n.GlobalPosition,
			"depth":  n.Depth(),
			"spawns": len(n.Entities()),
		}).Info("Spell zone")
	}

	log.Infof("Dumping image of tree at %s", *imagePath)
	const scale = 0.1
	bounds := world.BVH.Bounds()
	canvas := spacetree.NewCanvas(bounds, scale)
	canvas.DrawTree(world.BVH, 8)
	spell.DrawImage(canvas.Image(), bounds, scale)
	if err := canvas.Save(*imagePath); err != nil {
		log.WithError(err).Fatal("saving image")
	}
}

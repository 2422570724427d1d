package session

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"voxelcraft.ai/guardbot/internal/agent/collab"
	"voxelcraft.ai/guardbot/internal/worldclient"
)

// Plugin installs one collaborator into a session's set.
type Plugin interface {
	Name() string
	Load(c *worldclient.Client, set *collab.Set) error
}

type pathfinderPlugin struct{}

func (pathfinderPlugin) Name() string { return "pathfinder" }

func (pathfinderPlugin) Load(c *worldclient.Client, set *collab.Set) error {
	set.Movement = c.Movement()
	return nil
}

type pvpPlugin struct{}

func (pvpPlugin) Name() string { return "pvp" }

func (pvpPlugin) Load(c *worldclient.Client, set *collab.Set) error {
	set.Combat = c.Combat()
	return nil
}

type autoEatPlugin struct {
	enabled bool
	log     *zap.Logger
}

func (autoEatPlugin) Name() string { return "autoeat" }

func (p autoEatPlugin) Load(c *worldclient.Client, set *collab.Set) error {
	c.OnEat(eatLogger{log: p.log})
	set.Consumption = c.Consumption()
	if p.enabled {
		set.Consumption.Enable()
	}
	return nil
}

// eatLogger reports autoeat notifications. They are informational only.
type eatLogger struct{ log *zap.Logger }

func (l eatLogger) EatStarted(item string) {
	l.log.Info("autoeat started", zap.String("item", item))
}

func (l eatLogger) EatFinished(item string) {
	l.log.Info("autoeat finished", zap.String("item", item))
}

func (l eatLogger) EatError(item string, err error) {
	l.log.Warn("autoeat error", zap.String("item", item), zap.Error(err))
}

func defaultPlugins(autoEat bool, logger *zap.Logger) []Plugin {
	return []Plugin{
		pathfinderPlugin{},
		pvpPlugin{},
		autoEatPlugin{enabled: autoEat, log: logger.Named("autoeat")},
	}
}

// Registry loads a fixed plugin list into each new session.
type Registry struct {
	plugins []Plugin
}

func NewRegistry(plugins ...Plugin) *Registry {
	return &Registry{plugins: plugins}
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p.Name())
	}
	return out
}

func (r *Registry) LoadAll(c *worldclient.Client, set *collab.Set, logger *zap.Logger) error {
	for _, p := range r.plugins {
		if err := p.Load(c, set); err != nil {
			return fmt.Errorf("load plugin %s: %w", p.Name(), err)
		}
		logger.Info(fmt.Sprintf("Loaded `%s` plugin", p.Name()))
	}
	return nil
}

func checkSet(set collab.Set) error {
	var missing []string
	if set.Movement == nil {
		missing = append(missing, "movement")
	}
	if set.Combat == nil {
		missing = append(missing, "combat")
	}
	if set.Inventory == nil {
		missing = append(missing, "inventory")
	}
	if set.Consumption == nil {
		missing = append(missing, "consumption")
	}
	if set.Perception == nil {
		missing = append(missing, "perception")
	}
	if set.Chat == nil {
		missing = append(missing, "chat")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing collaborators: %s", strings.Join(missing, ", "))
	}
	return nil
}

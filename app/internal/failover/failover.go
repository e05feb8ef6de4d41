package failover

import (
	"context"
	"fmt"
	"log"

	"linkwatch/app/internal/config"
	"linkwatch/app/internal/models"
)

// SceneSwitcher is the already-available client exposing scene operations.
// The wire protocol behind it is not this package's concern.
type SceneSwitcher interface {
	CurrentScene(ctx context.Context) (string, error)
	SwitchScene(ctx context.Context, name string) error
}

// Notifier receives operator-facing messages about failover activity.
type Notifier interface {
	Notify(ctx context.Context, msg string, sev models.Severity)
}

// Controller reacts to detector transitions: it captures the pre-failure
// scene, switches to the fallback scene, and restores on recovery. It keeps
// re-attempting the fallback switch every cycle while the link stays failed
// and the fallback scene is not yet active.
type Controller struct {
	cfg      *config.Config
	switcher SceneSwitcher
	notifier Notifier

	lastKnownGoodScene string
}

// New creates a controller.
func New(cfg *config.Config, switcher SceneSwitcher, notifier Notifier) *Controller {
	return &Controller{cfg: cfg, switcher: switcher, notifier: notifier}
}

// LastKnownGoodScene returns the scene that was active immediately before
// the fallback switch, or "" once restored.
func (c *Controller) LastKnownGoodScene() string {
	return c.lastKnownGoodScene
}

// HandleTransition runs the side effects of a detector transition.
func (c *Controller) HandleTransition(ctx context.Context, tr models.Transition, h models.EncoderHealth) {
	switch tr {
	case models.TransitionEnterFailed:
		c.enterFailed(ctx, h)
	case models.TransitionEnterHealthy:
		c.enterHealthy(ctx)
	}
}

// Reconcile runs once per cycle after any transition has been handled. While
// the link is failed it re-attempts the fallback switch if the fallback
// scene is not yet active, so a rejected switch heals on the next cycle.
func (c *Controller) Reconcile(ctx context.Context, phase models.Phase) {
	if phase != models.PhaseFailed {
		return
	}
	current, err := c.switcher.CurrentScene(ctx)
	if err != nil {
		log.Printf("failover: current scene query failed: %v", err)
		return
	}
	if current == c.cfg.FallbackScene {
		return
	}
	if err := c.switcher.SwitchScene(ctx, c.cfg.FallbackScene); err != nil {
		log.Printf("failover: fallback switch retry failed: %v", err)
		return
	}
	log.Printf("failover: fallback switch retry succeeded, now on %q", c.cfg.FallbackScene)
}

// enterFailed captures the active scene and switches to the fallback scene.
// A failed switch is only logged; Reconcile retries it on the next cycle.
func (c *Controller) enterFailed(ctx context.Context, h models.EncoderHealth) {
	current, err := c.switcher.CurrentScene(ctx)
	if err != nil {
		log.Printf("failover: could not read current scene: %v", err)
	} else if current != c.cfg.FallbackScene {
		c.lastKnownGoodScene = current
	}

	if err := c.switcher.SwitchScene(ctx, c.cfg.FallbackScene); err != nil {
		log.Printf("failover: switch to fallback scene %q failed: %v", c.cfg.FallbackScene, err)
		return
	}

	reason := h.Error
	if reason == "" {
		reason = "connection failed"
	}
	log.Printf("failover: connection lost (%s), switched to %q", reason, c.cfg.FallbackScene)
	c.notifier.Notify(ctx,
		fmt.Sprintf("Connection lost! Switched to %s. Reason: %s", c.cfg.FallbackScene, reason),
		models.SeverityWarning)
}

// enterHealthy restores the scene chosen by the configured return behavior.
// A failed restore is not retried: the detector is already healthy again, so
// the operator is told instead.
func (c *Controller) enterHealthy(ctx context.Context) {
	target, ok := c.cfg.ResolveReturnScene(c.lastKnownGoodScene)
	if !ok {
		log.Printf("failover: connection restored, manual scene control required")
		c.notifier.Notify(ctx, "Connection restored! Manual scene control required.", models.SeverityInfo)
		return
	}

	if err := c.switcher.SwitchScene(ctx, target); err != nil {
		log.Printf("failover: restore switch to %q failed: %v", target, err)
		c.notifier.Notify(ctx,
			fmt.Sprintf("Connection restored, but switching back to %s failed. Switch scenes manually.", target),
			models.SeverityError)
		return
	}

	c.lastKnownGoodScene = ""
	log.Printf("failover: connection restored, switched back to %q", target)
	c.notifier.Notify(ctx,
		fmt.Sprintf("Connection restored! Switched back to %s.", target),
		models.SeverityInfo)
}

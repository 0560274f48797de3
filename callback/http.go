package callback

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"

	"github.com/routinely/authkit"
)

//go:embed views
var viewsFS embed.FS

// DefaultRoute is where providers send the browser back.
const DefaultRoute = "/auth/google/callback"

const viewName = "callback"

// ViewEngine returns a django view engine loaded with the embedded
// callback templates. Pass it to fiber.Config.Views.
func ViewEngine() (*django.Engine, error) {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to scope embedded views")
	}
	return django.NewFileSystem(http.FS(views), ".html"), nil
}

// Controller serves the redirect landing page. Each request gets a fresh
// one-shot Handler; the page itself navigates onward via meta refresh after
// the configured delay.
type Controller struct {
	completer Completer
	config    Config
	logger    authkit.Logger
	route     string
}

// ControllerOption customizes the HTTP controller.
type ControllerOption func(*Controller)

// WithRoute overrides the callback route.
func WithRoute(route string) ControllerOption {
	return func(c *Controller) {
		if route != "" {
			c.route = route
		}
	}
}

// WithControllerLogger overrides the controller logger.
func WithControllerLogger(logger authkit.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates the callback HTTP controller.
func NewController(completer Completer, cfg Config, opts ...ControllerOption) *Controller {
	c := &Controller{
		completer: completer,
		config:    cfg.withDefaults(),
		logger:    authkit.DefaultLogger(),
		route:     DefaultRoute,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Register mounts the callback route on the app.
func (c *Controller) Register(app *fiber.App) {
	app.Get(c.route, c.handle)
}

func (c *Controller) handle(ctx *fiber.Ctx) error {
	params := Params{
		Code:         ctx.Query("code"),
		Error:        ctx.Query("error"),
		AccessToken:  ctx.Query("access_token"),
		RefreshToken: ctx.Query("refresh_token"),
	}

	handler := NewHandler(c.completer, c.config, WithHandlerLogger(c.logger))
	result, err := handler.Process(ctx.UserContext(), params)
	if err != nil {
		return err
	}

	// Meta refresh only understands whole seconds; round up so a short
	// delay never becomes an instant redirect.
	seconds := int((result.RedirectAfter + time.Second - 1) / time.Second)

	return ctx.Render(viewName, fiber.Map{
		"status":           string(result.Status),
		"message":          result.Message,
		"redirect_to":      result.RedirectTo,
		"redirect_seconds": seconds,
		"login_route":      c.config.LoginRoute,
	})
}

package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/character-service/internal/api/dto"
	"github.com/spec-kit/character-service/internal/api/http/handlers"
	"github.com/spec-kit/character-service/internal/api/schema"
	"github.com/spec-kit/character-service/internal/auth"
	"github.com/spec-kit/character-service/internal/domain"
	"github.com/spec-kit/character-service/internal/observability"
	apperrors "github.com/spec-kit/character-service/pkg/util"
)

// Route binds a method and path pattern to an operation. Pattern segments
// starting with ':' bind one non-empty path segment.
type Route struct {
	Method  string
	Pattern string
	// Roles admitted; empty means any authenticated caller.
	Roles auth.RoleSet
	// Shape, when set, makes the route read and validate a JSON body.
	Shape     *schema.Shape
	Operation handlers.Operation

	segments []string
}

// Router matches requests against its routes in registration order and runs
// the admission pipeline: authenticate, authorize, bind body, execute.
type Router struct {
	routes   []Route
	verifier *auth.Verifier
}

// NewRouter creates an empty router.
func NewRouter(verifier *auth.Verifier) *Router {
	return &Router{verifier: verifier}
}

// Register appends a route. Routes are immutable once the app serves traffic.
func (r *Router) Register(route Route) {
	route.segments = splitPath(route.Pattern)
	r.routes = append(r.routes, route)
}

// Match returns the first route whose method and pattern match, with the
// bound path parameters.
func (r *Router) Match(method, path string) (*Route, map[string]string, bool) {
	segments := splitPath(path)
	for i := range r.routes {
		route := &r.routes[i]
		if route.Method != method {
			continue
		}
		if params, ok := matchSegments(route.segments, segments); ok {
			return route, params, true
		}
	}
	return nil, nil, false
}

// Dispatch is the catch-all fiber handler for routed resources. It either
// writes the operation result or returns a typed error for the error
// middleware; it never returns without one of the two.
func (r *Router) Dispatch(c *fiber.Ctx) error {
	route, params, ok := r.Match(c.Method(), c.Path())
	if !ok {
		return apperrors.NewRouteNotFound(c.Method(), c.Path())
	}
	observability.SetRouteLabel(c, route.Pattern)

	ctx := c.UserContext()

	principal, err := r.verifier.Authenticate(ctx, c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return authenticationError(err)
	}
	auth.SetPrincipal(c, principal)

	if err := auth.Authorize(principal.Identity, route.Roles); err != nil {
		return apperrors.NewForbidden(apperrors.CodeInsufficientRole, "Forbidden", err)
	}

	var fields map[string]string
	if route.Shape != nil {
		fields, err = handlers.BindFields(c, route.Shape)
		if err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return apperrors.NewRequestTimeout(err)
	}

	result, err := route.Operation(ctx, &handlers.Request{
		Principal: principal,
		Params:    params,
		Fields:    fields,
	})
	if err != nil {
		return err
	}
	if result.Body == nil {
		return c.SendStatus(result.Status)
	}
	return c.Status(result.Status).JSON(result.Body)
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Users      *handlers.UsersHandler
	Characters *handlers.CharactersHandler
	Verifier   *auth.Verifier
}

// RegisterRoutes wires HTTP routes. Public endpoints are plain fiber routes;
// everything else goes through the Router, which answers unmatched requests.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) *Router {
	app.Get("/health/live", labelRoute, cfg.Health.Live)
	app.Get("/health/ready", labelRoute, cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", labelRoute, cfg.Users.Register)
	authGroup.Post("/login", labelRoute, cfg.Users.Login)

	anyRole := auth.Roles()
	adminOnly := auth.Roles(domain.RoleAdmin)
	adminOrUser := auth.Roles(domain.RoleAdmin, domain.RoleUser)

	router := NewRouter(cfg.Verifier)
	router.Register(Route{Method: fiber.MethodGet, Pattern: "/characters", Roles: anyRole, Operation: cfg.Characters.List})
	router.Register(Route{Method: fiber.MethodGet, Pattern: "/characters/:id", Roles: anyRole, Operation: cfg.Characters.Get})
	router.Register(Route{Method: fiber.MethodPost, Pattern: "/characters", Roles: adminOrUser, Shape: dto.CharacterShape, Operation: cfg.Characters.Create})
	router.Register(Route{Method: fiber.MethodPut, Pattern: "/characters/:id", Roles: adminOrUser, Shape: dto.CharacterShape, Operation: cfg.Characters.Update})
	router.Register(Route{Method: fiber.MethodDelete, Pattern: "/characters/:id", Roles: adminOnly, Operation: cfg.Characters.Delete})
	router.Register(Route{Method: fiber.MethodPost, Pattern: "/auth/logout", Roles: anyRole, Operation: cfg.Users.Logout})
	router.Register(Route{Method: fiber.MethodPost, Pattern: "/auth/revoke", Roles: adminOnly, Shape: dto.RevokeShape, Operation: cfg.Users.Revoke})
	router.Register(Route{Method: fiber.MethodGet, Pattern: "/metrics", Roles: adminOnly, Operation: cfg.Health.Metrics})

	app.Use(router.Dispatch)
	return router
}

// labelRoute tags public fiber routes with their registered path.
func labelRoute(c *fiber.Ctx) error {
	observability.SetRouteLabel(c, c.Route().Path)
	return c.Next()
}

func authenticationError(err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return apperrors.NewUnauthorized(apperrors.CodeMissingCredentials, "Unauthorized", err)
	case errors.Is(err, auth.ErrMalformedCredentials):
		return apperrors.NewUnauthorized(apperrors.CodeMalformedCredentials, "Unauthorized", err)
	case errors.Is(err, auth.ErrExpiredCredentials):
		return apperrors.NewUnauthorized(apperrors.CodeExpiredCredentials, "Token expired", err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apperrors.NewUnauthorized(apperrors.CodeInvalidCredentials, "Unauthorized", err)
	case errors.Is(err, auth.ErrRevokedCredentials):
		return apperrors.NewForbidden(apperrors.CodeRevokedCredentials, "Forbidden", err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func splitPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

func matchSegments(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range pattern {
		if name, isParam := strings.CutPrefix(seg, ":"); isParam {
			if path[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, 1)
			}
			params[name] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

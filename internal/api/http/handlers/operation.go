package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/character-service/internal/api/schema"
	"github.com/spec-kit/character-service/internal/auth"
	apperrors "github.com/spec-kit/character-service/pkg/util"
)

// Request is what a resource operation receives once the caller has been
// authenticated, authorized and its payload validated.
type Request struct {
	Principal *auth.Principal
	Params    map[string]string
	// Fields holds the validated payload, nil for routes without a shape.
	Fields map[string]string
}

// Result is the successful outcome of an operation. A nil Body sends the
// status alone.
type Result struct {
	Status int
	Body   any
}

// Operation is a resource operation bound to a route.
type Operation func(ctx context.Context, req *Request) (Result, error)

// OK wraps body in a 200 result.
func OK(body any) Result {
	return Result{Status: http.StatusOK, Body: body}
}

// Created wraps body in a 201 result.
func Created(body any) Result {
	return Result{Status: http.StatusCreated, Body: body}
}

// NoContent is a bodiless 204 result.
func NoContent() Result {
	return Result{Status: http.StatusNoContent}
}

// BindFields parses the JSON body and validates it against shape. A body that
// is not JSON is a bad request; shape violations carry the issue list.
func BindFields(c *fiber.Ctx, shape *schema.Shape) (map[string]string, error) {
	var payload any
	if err := c.App().Config().JSONDecoder(c.Body(), &payload); err != nil {
		return nil, apperrors.NewBadRequest("Invalid JSON body", err)
	}
	fields, issues := shape.Validate(payload)
	if len(issues) > 0 {
		return nil, apperrors.NewValidationError(issues)
	}
	return fields, nil
}

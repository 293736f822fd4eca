package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/spec-kit/character-service/internal/api/dto"
	"github.com/spec-kit/character-service/internal/repository"
	"github.com/spec-kit/character-service/internal/service"
	apperrors "github.com/spec-kit/character-service/pkg/util"
)

const characterResource = "Character"

// CharactersHandler binds character operations to routes.
type CharactersHandler struct {
	service *service.CharacterService
}

// NewCharactersHandler constructs handler.
func NewCharactersHandler(characterService *service.CharacterService) *CharactersHandler {
	return &CharactersHandler{service: characterService}
}

// List GET /characters.
func (h *CharactersHandler) List(ctx context.Context, _ *Request) (Result, error) {
	characters, err := h.service.List(ctx)
	if err != nil {
		return Result{}, err
	}
	return OK(characters), nil
}

// Get GET /characters/:id.
func (h *CharactersHandler) Get(ctx context.Context, req *Request) (Result, error) {
	id, err := characterID(req)
	if err != nil {
		return Result{}, err
	}
	character, err := h.service.Get(ctx, id)
	if err != nil {
		return Result{}, mapCharacterError(err)
	}
	return OK(character), nil
}

// Create POST /characters.
func (h *CharactersHandler) Create(ctx context.Context, req *Request) (Result, error) {
	character, err := h.service.Create(ctx, req.Principal.Identity, dto.CharacterFromFields(req.Fields))
	if err != nil {
		return Result{}, err
	}
	return Created(character), nil
}

// Update PUT /characters/:id.
func (h *CharactersHandler) Update(ctx context.Context, req *Request) (Result, error) {
	id, err := characterID(req)
	if err != nil {
		return Result{}, err
	}
	character, err := h.service.Update(ctx, req.Principal.Identity, id, dto.CharacterFromFields(req.Fields))
	if err != nil {
		return Result{}, mapCharacterError(err)
	}
	return OK(character), nil
}

// Delete DELETE /characters/:id.
func (h *CharactersHandler) Delete(ctx context.Context, req *Request) (Result, error) {
	id, err := characterID(req)
	if err != nil {
		return Result{}, err
	}
	if err := h.service.Delete(ctx, req.Principal.Identity, id); err != nil {
		return Result{}, mapCharacterError(err)
	}
	return NoContent(), nil
}

// characterID parses the :id parameter. Ids that cannot name a stored
// character are reported as not found.
func characterID(req *Request) (int64, error) {
	id, err := strconv.ParseInt(req.Params["id"], 10, 64)
	if err != nil || id < 0 {
		return 0, apperrors.NewNotFound(characterResource)
	}
	return id, nil
}

func mapCharacterError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(characterResource)
	}
	return err
}

package dto

import (
	"github.com/spec-kit/character-service/internal/api/schema"
	"github.com/spec-kit/character-service/internal/domain"
)

// Minimum rune length of character names.
const CharacterNameMinLength = 6

// CharacterShape validates create and update payloads.
var CharacterShape = schema.Object(
	schema.String("name", CharacterNameMinLength),
	schema.String("lastName", CharacterNameMinLength),
)

// CharacterFromFields builds a character from fields validated by CharacterShape.
// The id is always left to the store.
func CharacterFromFields(fields map[string]string) domain.Character {
	return domain.Character{
		Name:     fields["name"],
		LastName: fields["lastName"],
	}
}

package shortener

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

const (
	DefaultCodeLength   = 6
	EscalatedCodeLength = 8
)

// CodeGenerator generates random short codes.
type CodeGenerator func() string

// CodeChecker reports whether a code is already taken within an organization.
type CodeChecker interface {
	CodeExists(ctx context.Context, orgID uuid.UUID, code Code) (bool, error)
}

// Generated is the outcome of a successful code generation.
type Generated struct {
	Code Code
	// Collision is true when the first random code was taken and the longer code was used.
	Collision bool
}

// Generator produces short codes that are free within an organization.
// It only checks existing records; the caller performs the insert.
type Generator struct {
	checker   CodeChecker
	short     CodeGenerator
	escalated CodeGenerator
}

// NewGenerator creates a generator with explicit code sources.
func NewGenerator(checker CodeChecker, short, escalated CodeGenerator) *Generator {
	return &Generator{
		checker:   checker,
		short:     short,
		escalated: escalated,
	}
}

// NewNanoidGenerator creates a generator using URL-safe nanoid codes of the default lengths.
func NewNanoidGenerator(checker CodeChecker) (*Generator, error) {
	short, err := nanoid.Standard(DefaultCodeLength)
	if err != nil {
		return nil, err
	}

	escalated, err := nanoid.Standard(EscalatedCodeLength)
	if err != nil {
		return nil, err
	}

	return NewGenerator(checker, short, escalated), nil
}

// Generate returns requested when it is valid and free, or a random code when requested is empty.
// A random collision escalates once to the longer length; a second collision is ErrGenerationExhausted.
func (g *Generator) Generate(ctx context.Context, requested string, orgID uuid.UUID) (Generated, error) {
	if requested != "" {
		if err := ValidateCode(requested); err != nil {
			return Generated{}, err
		}

		taken, err := g.checker.CodeExists(ctx, orgID, Code(requested))
		if err != nil {
			return Generated{}, fmt.Errorf("check code: %w", err)
		}

		if taken {
			return Generated{}, ErrCodeConflict
		}

		return Generated{Code: Code(requested)}, nil
	}

	code := Code(g.short())

	taken, err := g.unavailable(ctx, orgID, code)
	if err != nil {
		return Generated{}, err
	}

	if !taken {
		return Generated{Code: code}, nil
	}

	code = Code(g.escalated())

	taken, err = g.unavailable(ctx, orgID, code)
	if err != nil {
		return Generated{}, err
	}

	if taken {
		return Generated{}, ErrGenerationExhausted
	}

	return Generated{Code: code, Collision: true}, nil
}

func (g *Generator) unavailable(ctx context.Context, orgID uuid.UUID, code Code) (bool, error) {
	if Reserved(string(code)) {
		return true, nil
	}

	taken, err := g.checker.CodeExists(ctx, orgID, code)
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}

	return taken, nil
}

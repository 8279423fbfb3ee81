package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"flux/internal/client"
	"flux/internal/logging"
	"flux/internal/models"
)

// DefaultMaxAttempts bounds structured generation. Two attempts cover the
// common case of one transient schema miss without burning quota on a model
// that keeps producing garbage.
const DefaultMaxAttempts = 2

// ErrEmptyProject marks a descriptor that validates structurally but contains
// no files. An application with nothing to write is treated as a failed
// generation, not a success.
var ErrEmptyProject = errors.New("generated project contains no files")

// ExhaustedError reports that every generation attempt failed validation.
// LastRaw carries the model's final raw output so the user can inspect what
// came back.
type ExhaustedError struct {
	Attempts int
	LastRaw  string
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("structured generation failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// validator attempts to extract a descriptor from one generation result.
// Validators run in priority order; the first success wins.
type validator func(res *client.StructuredResult) (*models.ApplicationDescriptor, error)

// Retrier turns a prompt into a validated application descriptor, retrying
// generation a bounded number of times when validation fails.
type Retrier struct {
	gateway     client.Gateway
	maxAttempts int
	validators  []validator
}

// NewRetrier creates a retrier with the strict-then-fallback validation
// chain. maxAttempts below 1 falls back to the default.
func NewRetrier(gateway client.Gateway, maxAttempts int) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Retrier{
		gateway:     gateway,
		maxAttempts: maxAttempts,
		validators:  []validator{validateStrict, validateFallback},
	}
}

// Generate runs bounded attempts until one produces a valid descriptor. Each
// attempt is a fresh model call; within an attempt, validators run in priority
// order and a later validator only gets the result an earlier one rejected.
func (r *Retrier) Generate(ctx context.Context, prompt string) (*models.ApplicationDescriptor, error) {
	var (
		lastRaw string
		lastErr error
	)

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		res, err := r.gateway.GenerateStructured(ctx, prompt)
		if err != nil {
			// Transport failures are terminal; validation retries only cover
			// malformed output.
			return nil, err
		}
		lastRaw = res.RawText

		for _, validate := range r.validators {
			desc, verr := validate(res)
			if verr == nil {
				logging.Info("structured generation succeeded", "attempt", attempt, "files", len(desc.Files))
				return desc, nil
			}
			lastErr = verr
		}
		logging.Warn("structured generation attempt rejected", "attempt", attempt, "error", lastErr)
	}

	return nil, &ExhaustedError{
		Attempts: r.maxAttempts,
		LastRaw:  lastRaw,
		LastErr:  lastErr,
	}
}

// validateStrict accepts only the schema-constrained channel: the result's
// pre-validated JSON object.
func validateStrict(res *client.StructuredResult) (*models.ApplicationDescriptor, error) {
	if res.Object == nil {
		return nil, client.ErrSchemaViolation
	}
	var desc models.ApplicationDescriptor
	if err := json.Unmarshal(res.Object, &desc); err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrSchemaViolation, err)
	}
	if err := checkDescriptor(&desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// validateFallback salvages a descriptor from raw text the structured channel
// rejected, slicing from the first '{' to the last '}' to strip prose or
// markdown fences wrapped around the JSON.
func validateFallback(res *client.StructuredResult) (*models.ApplicationDescriptor, error) {
	raw := res.RawText
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in output", client.ErrSchemaViolation)
	}

	var desc models.ApplicationDescriptor
	if err := json.Unmarshal([]byte(raw[start:end+1]), &desc); err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrSchemaViolation, err)
	}
	if err := checkDescriptor(&desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// checkDescriptor enforces the semantic rules the JSON schema cannot express.
func checkDescriptor(desc *models.ApplicationDescriptor) error {
	if strings.TrimSpace(desc.FolderName) == "" {
		return fmt.Errorf("%w: missing folder name", client.ErrSchemaViolation)
	}
	if len(desc.Files) == 0 {
		return ErrEmptyProject
	}
	for _, f := range desc.Files {
		if strings.TrimSpace(f.Path) == "" {
			return fmt.Errorf("%w: file with empty path", client.ErrSchemaViolation)
		}
	}
	return nil
}

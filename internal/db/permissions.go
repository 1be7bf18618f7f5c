package db

import (
	"context"
	"fmt"

	"compotube/internal/model"
)

const (
	permissionPrefix = "permission:"
	grantGranted     = "granted"
	grantDenied      = "denied"
)

// PrefStore is the subset of Store the permission service needs.
type PrefStore interface {
	LoadString(ctx context.Context, name string, def *string) (*string, error)
	SaveString(ctx context.Context, name, value string) error
}

// Prompter asks the user whether to grant a permission. It blocks until answered.
type Prompter interface {
	Prompt(ctx context.Context, permission string) (bool, error)
}

// StaticPrompter answers every prompt with the same value.
type StaticPrompter bool

// Prompt returns the fixed answer.
func (p StaticPrompter) Prompt(ctx context.Context, permission string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(p), nil
}

// Permissions keeps permission grants in a preference store.
type Permissions struct {
	store    PrefStore
	prompter Prompter
}

// NewPermissions creates a permission service.
func NewPermissions(store PrefStore, prompter Prompter) *Permissions {
	return &Permissions{store: store, prompter: prompter}
}

// Check returns the recorded grant; permissions never answered are denied.
func (p *Permissions) Check(ctx context.Context, permission string) (model.PermissionResult, error) {
	value, err := p.store.LoadString(ctx, permissionPrefix+permission, nil)
	if err != nil {
		return model.PermissionDenied, fmt.Errorf("failed to check permission: %w", err)
	}
	if value != nil && *value == grantGranted {
		return model.PermissionGranted, nil
	}
	return model.PermissionDenied, nil
}

// Request prompts for permission and records the answer.
func (p *Permissions) Request(ctx context.Context, permission string) (model.PermissionResult, error) {
	granted, err := p.prompter.Prompt(ctx, permission)
	if err != nil {
		return model.PermissionDenied, fmt.Errorf("permission prompt failed: %w", err)
	}

	value, result := grantDenied, model.PermissionDenied
	if granted {
		value, result = grantGranted, model.PermissionGranted
	}
	if err := p.store.SaveString(ctx, permissionPrefix+permission, value); err != nil {
		return result, fmt.Errorf("failed to record permission: %w", err)
	}
	return result, nil
}

// Revoke forgets a recorded grant.
func (p *Permissions) Revoke(ctx context.Context, permission string) error {
	if err := p.store.SaveString(ctx, permissionPrefix+permission, grantDenied); err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	return nil
}

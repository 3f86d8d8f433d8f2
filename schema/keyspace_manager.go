package schema

import (
	"context"
	"strings"
)

// KeyspaceManager creates and drops keyspaces and runs CQL scripts.
// Its executor must not be bound to a keyspace that it drops.
type KeyspaceManager struct {
	runner
}

// NewKeyspaceManager creates a KeyspaceManager executing through exec.
func NewKeyspaceManager(exec Executor, opts ...Option) *KeyspaceManager {
	return &KeyspaceManager{runner: newRunner(exec, opts)}
}

// Create executes the keyspace creations in order.
func (m *KeyspaceManager) Create(ctx context.Context, specs ...*CreateKeyspaceSpec) error {
	for _, spec := range specs {
		if err := m.run(ctx, "create_keyspace", spec); err != nil {
			return err
		}
	}

	return nil
}

// Drop drops the named keyspaces if they exist.
func (m *KeyspaceManager) Drop(ctx context.Context, names ...string) error {
	for _, name := range names {
		if err := m.run(ctx, "drop_keyspace", DropKeyspace(name).IfExists()); err != nil {
			return err
		}
	}

	return nil
}

// RunScripts executes each script as one statement. Blank scripts are
// skipped.
func (m *KeyspaceManager) RunScripts(ctx context.Context, action string, scripts ...string) error {
	for _, script := range scripts {
		script = strings.TrimSpace(script)
		if script == "" {
			continue
		}
		if err := m.run(ctx, action, Script(script)); err != nil {
			return err
		}
	}

	return nil
}

// Script is a raw CQL statement used as a Spec.
type Script string

// Statements implements Spec.
func (s Script) Statements() []string { return []string{string(s)} }

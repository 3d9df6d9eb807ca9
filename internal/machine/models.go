// Package machine tracks the virtual machine inventory per workspace.
package machine

import (
	"net"
	"strings"
	"time"

	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// Machine is a virtual machine record scoped to a workspace.
type Machine struct {
	ID          id.MachineID
	WorkspaceID id.WorkspaceID
	Name        string
	Client      string
	OS          string
	Status      id.MachineStatus
	IP          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Draft is the input for registering a machine.
type Draft struct {
	WorkspaceID id.WorkspaceID
	Name        string
	Client      string
	OS          string
	Status      id.MachineStatus
	IP          string
}

// Validate checks the draft before it reaches the store.
func (d Draft) Validate() error {
	if d.WorkspaceID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "workspace_id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if d.IP != "" && net.ParseIP(d.IP) == nil {
		return dErrors.New(dErrors.CodeValidation, "ip is not a valid address")
	}
	return nil
}

// UpdateInput carries the mutable machine fields. Nil fields are left
// unchanged.
type UpdateInput struct {
	Name   *string
	Client *string
	OS     *string
	Status *id.MachineStatus
	IP     *string
}

package hiveapi

import (
	"encoding/json"
	"fmt"
)

// Kind enumerates the resource kinds the registry hosts. The set is closed:
// every switch over Kind in this codebase handles both members explicitly.
type Kind int

const (
	KindApp Kind = iota
	KindDevice
)

func (k Kind) String() string {
	switch k {
	case KindApp:
		return "app"
	case KindDevice:
		return "device"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Label is the capitalized form used in user-facing confirmations.
func (k Kind) Label() string {
	switch k {
	case KindApp:
		return "App"
	case KindDevice:
		return "Device"
	default:
		return k.String()
	}
}

// Ref identifies one resource. A device is only ever identified together
// with its owning app; App is meaningless (and must be empty) for apps.
type Ref struct {
	Kind Kind
	ID   string
	App  string
}

func (r Ref) String() string {
	if r.Kind == KindDevice {
		return fmt.Sprintf("device %q in app %q", r.ID, r.App)
	}
	return fmt.Sprintf("app %q", r.ID)
}

// Validate checks the ref before any network traffic happens.
//
// Errors:
//
//    - hivectl-error-validation -- id is empty, or a device ref has no app
func (r Ref) Validate() error {
	if r.ID == "" {
		return ErrorValidation(fmt.Sprintf("missing %s id", r.Kind))
	}
	if r.Kind == KindDevice && r.App == "" {
		return ErrorValidation("missing app argument and no default app specified in config file",
			[2]string{"device", r.ID})
	}
	return nil
}

// Metadata is the envelope the registry expects around a created resource.
type Metadata struct {
	Name        string `json:"name"`
	Application string `json:"application,omitempty"`
}

// CreateRequest is the body of a create call. Spec is carried verbatim; the
// client never interprets the payload schema.
type CreateRequest struct {
	Metadata Metadata        `json:"metadata"`
	Spec     json.RawMessage `json:"spec"`
}

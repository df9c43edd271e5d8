package edit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/serum-errors/go-serum"

	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/logging"
	"github.com/hivetools/hivectl/pkg/registry"
)

// Flow is the fetch / edit / submit sequence behind the edit verb.
//
// The fetched body goes to an external editor verbatim and whatever comes
// back is submitted verbatim: parsing only validates, it never re-serializes.
// An edit that leaves the buffer untouched therefore submits bytes equal to
// what was read.
//
// There is no optimistic-concurrency guard between fetch and submit; a
// concurrent modification on the server is overwritten by the edited copy.
type Flow struct {
	Client *registry.Client

	// Editor is the argv of the editor to spawn, with the file path
	// appended. Empty means $VISUAL, then $EDITOR, then vi.
	Editor []string

	// Streams handed to the editor process. Nil values mean the real
	// terminal.
	Stdin          io.Reader
	Stdout, Stderr io.Writer
}

// Run edits a resource interactively.
//
// A malformed buffer is not fatal: the parse error is reported and the
// editor reopens on the user's text so it can be corrected. Saving an empty
// buffer abandons the edit.
//
// Errors:
//
//    - hivectl-error-fetch -- the mandatory read step failed
//    - hivectl-error-io -- the editor could not be spawned or the temp file handled
//    - hivectl-error-edit-cancelled -- the user abandoned the edit
//    - hivectl-error-validation -- the ref is incomplete
//    - hivectl-error-transport -- the registry became unreachable on submit
//    - hivectl-error-server -- the registry rejected the update
func (f *Flow) Run(ctx context.Context, ref hiveapi.Ref) error {
	logger := logging.Ctx(ctx)

	fetched, err := f.fetch(ctx, ref)
	if err != nil {
		return err
	}

	current := fetched
	for {
		edited, err := f.spawnEditor(ctx, current)
		if err != nil {
			return err
		}
		if len(bytes.TrimSpace(edited)) == 0 {
			return hiveapi.ErrorEditCancelled(ref.String())
		}
		if err := validateJSON(edited); err != nil {
			logger.Error("edit", "the edited text is not valid JSON: %s", err)
			logger.Error("edit", "reopening the editor so you can fix it; save an empty file to cancel")
			current = edited
			continue
		}
		return f.Client.Update(ctx, ref, edited)
	}
}

// RunFile edits a resource from a file instead of an interactive editor.
// The fetch still happens first: an update is never issued for a resource
// that could not be read.
//
// Errors:
//
//    - hivectl-error-fetch -- the mandatory read step failed
//    - hivectl-error-io -- the payload file cannot be read
//    - hivectl-error-validation -- the ref is incomplete or the file is not valid JSON
//    - hivectl-error-transport -- the registry became unreachable on submit
//    - hivectl-error-server -- the registry rejected the update
func (f *Flow) RunFile(ctx context.Context, ref hiveapi.Ref, filename string) error {
	if _, err := f.fetch(ctx, ref); err != nil {
		return err
	}
	body, err := os.ReadFile(filename)
	if err != nil {
		return hiveapi.ErrorIo("cannot read payload file", filename, err)
	}
	if err := validateJSON(body); err != nil {
		return hiveapi.ErrorValidation(fmt.Sprintf("payload file %q is not valid JSON: %s", filename, err))
	}
	return f.Client.Update(ctx, ref, body)
}

// fetch performs the mandatory read step. Any failure here, including a
// server rejection, is a pre-flight failure, not a rejected operation.
// An empty body (a 204, or a 200 with nothing in it) counts as a failure
// too: an editor opened on an empty buffer is indistinguishable from a
// cancelled edit.
func (f *Flow) fetch(ctx context.Context, ref hiveapi.Ref) ([]byte, error) {
	body, err := f.Client.Read(ctx, ref)
	if err != nil {
		if serum.Code(err) == hiveapi.ECodeValidation {
			return nil, err
		}
		return nil, hiveapi.ErrorFetch(ref.String(), err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, hiveapi.ErrorFetch(ref.String(),
			fmt.Errorf("the registry returned an empty body"))
	}
	return body, nil
}

func (f *Flow) spawnEditor(ctx context.Context, content []byte) ([]byte, error) {
	tmp, err := os.CreateTemp("", "hivectl-edit-*.json")
	if err != nil {
		return nil, hiveapi.ErrorIo("cannot create temp file for editing", "", err)
	}
	name := tmp.Name()
	defer os.Remove(name)
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, hiveapi.ErrorIo("cannot write temp file for editing", name, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, hiveapi.ErrorIo("cannot flush temp file for editing", name, err)
	}

	argv := f.Editor
	if len(argv) == 0 {
		argv = resolveEditor()
	}
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], name)...)
	cmd.Stdin = f.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = f.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = f.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return nil, hiveapi.ErrorIo(fmt.Sprintf("editor %q did not exit cleanly", argv[0]), name, err)
	}

	edited, err := os.ReadFile(name)
	if err != nil {
		return nil, hiveapi.ErrorIo("cannot read the edited file back", name, err)
	}
	return edited, nil
}

func resolveEditor() []string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return strings.Fields(v)
		}
	}
	return []string{"vi"}
}

func validateJSON(data []byte) error {
	var js json.RawMessage
	return json.Unmarshal(data, &js)
}

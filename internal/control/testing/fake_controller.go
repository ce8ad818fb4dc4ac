// Package testing provides test doubles for the control package.
package testing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rileyhilliard/relaystat/internal/control"
)

// ErrUnknownKey is returned by GetInfo for keys with no canned value.
var ErrUnknownKey = &control.ReplyError{Code: 552, Message: "Unrecognized key"}

// FakeController simulates an authenticated control-port session.
type FakeController struct {
	mu sync.Mutex

	// Canned responses
	Version    string
	VersionErr error
	Info       map[string]string
	InfoErr    map[string]error
	Status     map[string]*control.RouterStatus
	StatusErr  error
	AuthErr    error

	// Call tracking
	Calls  []string
	Closed bool
}

// NewFakeController creates a fake with an empty GETINFO table.
func NewFakeController() *FakeController {
	return &FakeController{
		Info:    make(map[string]string),
		InfoErr: make(map[string]error),
		Status:  make(map[string]*control.RouterStatus),
	}
}

func (f *FakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
	if f.Closed {
		return errors.New("session closed")
	}
	return nil
}

// Authenticate returns AuthErr.
func (f *FakeController) Authenticate(ctx context.Context) error {
	if err := f.record("AUTHENTICATE"); err != nil {
		return err
	}
	return f.AuthErr
}

// GetInfo returns the canned value or error for key.
func (f *FakeController) GetInfo(ctx context.Context, key string) (string, error) {
	if err := f.record("GETINFO " + key); err != nil {
		return "", err
	}
	if err, ok := f.InfoErr[key]; ok {
		return "", err
	}
	v, ok := f.Info[key]
	if !ok {
		return "", fmt.Errorf("getinfo %s: %w", key, ErrUnknownKey)
	}
	return v, nil
}

// GetVersion returns Version or VersionErr.
func (f *FakeController) GetVersion(ctx context.Context) (string, error) {
	if err := f.record("GETINFO version"); err != nil {
		return "", err
	}
	if f.VersionErr != nil {
		return "", f.VersionErr
	}
	return f.Version, nil
}

// GetNetworkStatus returns the canned entry for fingerprint.
func (f *FakeController) GetNetworkStatus(ctx context.Context, fingerprint string) (*control.RouterStatus, error) {
	if err := f.record("GETINFO ns/id/" + fingerprint); err != nil {
		return nil, err
	}
	if f.StatusErr != nil {
		return nil, f.StatusErr
	}
	rs, ok := f.Status[fingerprint]
	if !ok {
		return nil, fmt.Errorf("getinfo ns/id/%s: %w", fingerprint, ErrUnknownKey)
	}
	return rs, nil
}

// Close marks the session closed.
func (f *FakeController) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "QUIT")
	f.Closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (f *FakeController) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Closed
}

// FakeDialer hands out a FakeController per dial, or DialErr.
type FakeDialer struct {
	mu sync.Mutex

	// NewController builds the session for each dial. Defaults to a fresh
	// NewFakeController.
	NewController func() *FakeController
	DialErr       error

	Dials    int
	Sessions []*FakeController
}

// Dial satisfies control.DialFunc. Authentication runs as part of the dial,
// as with control.Dialer.
func (d *FakeDialer) Dial(ctx context.Context) (control.Controller, error) {
	d.mu.Lock()
	d.Dials++
	dialErr := d.DialErr
	build := d.NewController
	d.mu.Unlock()

	if dialErr != nil {
		return nil, dialErr
	}
	if build == nil {
		build = NewFakeController
	}
	fc := build()

	d.mu.Lock()
	d.Sessions = append(d.Sessions, fc)
	d.mu.Unlock()

	if err := fc.Authenticate(ctx); err != nil {
		fc.Close()
		return nil, err
	}
	return fc, nil
}

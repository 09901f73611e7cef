// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"bytes"

	"github.com/luxfi/ids"
)

// IsOperational reports whether the access gate admits mutating operations.
func (s *State) IsOperational() (bool, error) {
	b, err := s.singletonDB.Get(operationalKey)
	if err != nil {
		return false, err
	}
	return bytes.Equal(b, trueByte), nil
}

// RequireOperational returns ErrNotOperational when the gate is closed.
func (s *State) RequireOperational() error {
	operational, err := s.IsOperational()
	if err != nil {
		return err
	}
	if !operational {
		return ErrNotOperational
	}
	return nil
}

func (s *State) Owner() (ids.ShortID, error) {
	b, err := s.singletonDB.Get(ownerKey)
	if err != nil {
		return ids.ShortEmpty, err
	}
	return ids.ToShortID(b)
}

// SetOperatingStatus opens or closes the gate. Only the owner may call it, and
// it is accepted whether or not the gate is currently open.
func (s *State) SetOperatingStatus(caller ids.ShortID, operational bool) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if operational {
		return s.singletonDB.Put(operationalKey, trueByte)
	}
	return s.singletonDB.Put(operationalKey, falseByte)
}

// AuthorizeCaller adds [app] to the identities allowed to mutate the ledger.
func (s *State) AuthorizeCaller(caller, app ids.ShortID) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	return s.callerDB.Put(app[:], trueByte)
}

// DeauthorizeCaller removes [app] from the allow-list.
func (s *State) DeauthorizeCaller(caller, app ids.ShortID) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	return s.callerDB.Delete(app[:])
}

func (s *State) IsAuthorizedCaller(app ids.ShortID) (bool, error) {
	return s.callerDB.Has(app[:])
}

func (s *State) requireOwner(caller ids.ShortID) error {
	owner, err := s.Owner()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	return nil
}

// Package codec serializes hierarchy state for snapshot capture and restore.
package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/anchor-ecs/anchor/hierarchy"
)

func Decode[T any](bz []byte) (T, error) {
	value := new(T)
	err := json.Unmarshal(bz, value)
	if err != nil {
		return *value, eris.Wrap(err, "")
	}
	return *value, nil
}

func Encode(value any) ([]byte, error) {
	bz, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrap(err, "")
	}
	return bz, nil
}

// EncodeSnapshot serializes a captured component table. The sequence order
// is preserved; a restore reintroduces objects in the order they were
// captured, which keeps enumeration deterministic across a rollback.
func EncodeSnapshot(comps []hierarchy.Component) ([]byte, error) {
	return Encode(comps)
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(bz []byte) ([]hierarchy.Component, error) {
	return Decode[[]hierarchy.Component](bz)
}

package storage

import (
	"bytes"
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

var (
	ErrNoSchemaFound  = eris.New("no schema found")
	ErrSchemaMismatch = eris.New("stored schema does not match")
)

// SchemaStorage persists the JSON schema of component types alongside the
// rest of the durable state. A session compares the stored schema against the
// schema of the code it is running with, so state written by an older
// component layout is detected before it can be misinterpreted.
type SchemaStorage struct {
	Client *redis.Client
}

func NewSchemaStorage(client *redis.Client) SchemaStorage {
	return SchemaStorage{
		Client: client,
	}
}

func (r *SchemaStorage) GetSchema(ctx context.Context, namespace, componentName string) ([]byte, error) {
	schemaBytes, err := r.Client.HGet(ctx, r.schemaStorageKey(namespace), componentName).Bytes()
	if eris.Is(err, redis.Nil) {
		return nil, eris.Wrap(ErrNoSchemaFound, componentName)
	} else if err != nil {
		return nil, eris.Wrap(err, "")
	}
	return schemaBytes, nil
}

func (r *SchemaStorage) SetSchema(ctx context.Context, namespace, componentName string, schemaData []byte) error {
	return eris.Wrap(r.Client.HSet(ctx, r.schemaStorageKey(namespace), componentName, schemaData).Err(), "")
}

// ValidateSchema stores the given schema if none exists yet, and errors if a
// different schema was already stored for the component.
func (r *SchemaStorage) ValidateSchema(ctx context.Context, namespace, componentName string, schemaData []byte) error {
	stored, err := r.GetSchema(ctx, namespace, componentName)
	if eris.Is(eris.Cause(err), ErrNoSchemaFound) {
		return r.SetSchema(ctx, namespace, componentName, schemaData)
	} else if err != nil {
		return err
	}
	if !bytes.Equal(stored, schemaData) {
		return eris.Wrap(ErrSchemaMismatch, componentName)
	}
	return nil
}

func (r *SchemaStorage) schemaStorageKey(namespace string) string {
	return "ANCHOR:" + namespace + ":SCHEMA"
}

package hierarchy

import (
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
)

// Schema returns the JSON schema of the hierarchy component. Sessions that
// share durable storage persist this schema and compare it on startup, so
// state written by a different component layout is caught before it is
// decoded.
func Schema() ([]byte, error) {
	componentSchema := jsonschema.Reflect(Component{})
	bz, err := componentSchema.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "component must be json serializable")
	}
	return bz, nil
}

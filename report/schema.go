package report

import (
	"reflect"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/plugtest/plugtest/tester"
	"github.com/samber/mo"
)

// Schema returns the JSON schema of Report.
func Schema() *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.Mapper = func(t reflect.Type) *jsonschema.Schema {
		switch t {
		case reflect.TypeOf(uuid.UUID{}):
			return &jsonschema.Schema{Type: "string", Format: "uuid"}
		case reflect.TypeOf(tester.Idle):
			return &jsonschema.Schema{
				Type: "string",
				Enum: []any{"idle", "running", "ok", "ok-empty", "fail"},
			}
		case reflect.TypeOf(mo.Option[int]{}):
			return &jsonschema.Schema{Type: "integer", Description: "Absent for movies"}
		}
		return nil
	}

	return reflector.Reflect(&Report{})
}

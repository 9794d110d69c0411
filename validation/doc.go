// Package validation validates request payloads and configuration.
//
// Struct tag validation uses go-playground/validator and reports field
// paths by their json names:
//
//	type ExecuteRequest struct {
//	    Tasks []orchestrator.Task `json:"tasks" validate:"required,min=1,dive"`
//	}
//	err := validation.Validate(req) // tasks[1].name: is required
//
// The programmatic Validator collects checks that tags cannot express.
package validation

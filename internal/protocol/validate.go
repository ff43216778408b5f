package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformed marks a request rejected at the boundary.
var ErrMalformed = errors.New("malformed request")

const idPattern = `^[A-Za-z0-9_-]{1,64}$`

var idRe = regexp.MustCompile(idPattern)

// ValidID reports whether s is a well-formed session or player identifier.
func ValidID(s string) bool {
	return idRe.MatchString(s)
}

var (
	submitInputSchema = jsonschema.MustCompileString("submit_input.json", `{
		"type": "object",
		"required": ["playerId", "sessionId", "sequence"],
		"properties": {
			"playerId":  {"type": "string", "pattern": "`+idPattern+`"},
			"sessionId": {"type": "string", "pattern": "`+idPattern+`"},
			"moveX":     {"type": "number"},
			"moveY":     {"type": "number"},
			"aimX":      {"type": "number"},
			"aimY":      {"type": "number"},
			"attack":    {"type": "boolean"},
			"shoot":     {"type": "boolean"},
			"sequence":  {"type": "integer", "minimum": 0}
		}
	}`)

	joinSchema = jsonschema.MustCompileString("join.json", `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"playerId": {"type": "string", "pattern": "`+idPattern+`"},
			"name":     {"type": "string", "minLength": 1, "maxLength": 32}
		}
	}`)

	leaveSchema = jsonschema.MustCompileString("leave.json", `{
		"type": "object",
		"required": ["playerId"],
		"properties": {
			"playerId": {"type": "string", "pattern": "`+idPattern+`"}
		}
	}`)

	damageSchema = jsonschema.MustCompileString("damage.json", `{
		"type": "object",
		"required": ["amount"],
		"properties": {
			"amount": {"type": "number", "exclusiveMinimum": 0}
		}
	}`)
)

func decodeValidated(data []byte, schema *jsonschema.Schema, v any) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// DecodeSubmitInput validates and decodes an input submission.
func DecodeSubmitInput(data []byte) (SubmitInputRequest, error) {
	var req SubmitInputRequest
	err := decodeValidated(data, submitInputSchema, &req)
	return req, err
}

// DecodeJoin validates and decodes a join request.
func DecodeJoin(data []byte) (JoinRequest, error) {
	var req JoinRequest
	err := decodeValidated(data, joinSchema, &req)
	return req, err
}

// DecodeLeave validates and decodes a leave request.
func DecodeLeave(data []byte) (LeaveRequest, error) {
	var req LeaveRequest
	err := decodeValidated(data, leaveSchema, &req)
	return req, err
}

// DecodeDamage validates and decodes a damage report.
func DecodeDamage(data []byte) (DamageRequest, error) {
	var req DamageRequest
	err := decodeValidated(data, damageSchema, &req)
	return req, err
}

package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, raw string) {
		t.Helper()
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("sample json: %v", err)
		}
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	reject := func(s *jsonschema.Schema, raw string) {
		t.Helper()
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("sample json: %v", err)
		}
		if err := s.Validate(v); err == nil {
			t.Fatalf("schema accepted a bad sample: %s", raw)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	solveSchema := compile("solve.schema.json")
	progressSchema := compile("progress.schema.json")
	resultSchema := compile("result.schema.json")
	errorSchema := compile("error.schema.json")

	validate(helloSchema, `{
	  "type":"HELLO",
	  "protocol_version":"rs.v1",
	  "client_name":"cli"
	}`)

	validate(welcomeSchema, `{
	  "type":"WELCOME",
	  "protocol_version":"rs.v1",
	  "session_id":"s-1",
	  "presets":{"digest":"deadbeef","count":4},
	  "limits":{
	    "max_rooms":8,
	    "max_depth":8,
	    "max_board_bytes":16384,
	    "max_expansions":2000000,
	    "max_solve_ms":30000
	  }
	}`)

	validate(solveSchema, `{
	  "type":"SOLVE",
	  "protocol_version":"rs.v1",
	  "req_id":"r-1",
	  "board":"#########\n#.......#\n###B#A###\n  #####",
	  "want_path":true,
	  "progress_every":1000
	}`)
	validate(solveSchema, `{
	  "type":"SOLVE",
	  "protocol_version":"rs.v1",
	  "req_id":"r-2",
	  "preset":"classic-2"
	}`)
	// Exactly one of board/preset.
	reject(solveSchema, `{
	  "type":"SOLVE",
	  "protocol_version":"rs.v1",
	  "req_id":"r-3",
	  "board":"#",
	  "preset":"classic-2"
	}`)
	reject(solveSchema, `{
	  "type":"SOLVE",
	  "protocol_version":"rs.v1",
	  "req_id":"r-4"
	}`)

	validate(progressSchema, `{
	  "type":"PROGRESS",
	  "protocol_version":"rs.v1",
	  "req_id":"r-1",
	  "expanded":25000,
	  "enqueued":81000,
	  "distinct":64000,
	  "best_bound":12021,
	  "elapsed_ms":412
	}`)

	validate(resultSchema, `{
	  "type":"RESULT",
	  "protocol_version":"rs.v1",
	  "req_id":"r-1",
	  "outcome":"solved",
	  "cost":12521,
	  "moves":[{"token":"B","from_room":3,"from_pos":1,"to_room":0,"to_pos":4,"distance":3,"cost":30}],
	  "expanded":9000,
	  "enqueued":30000,
	  "distinct":25000,
	  "elapsed_ms":118,
	  "board_digest":"9e1aa6d87b2451cc0c0b97aaa2bd6b087ea5f44ba0c3c013c97e6a779beebc0a"
	}`)
	reject(resultSchema, `{
	  "type":"RESULT",
	  "protocol_version":"rs.v1",
	  "req_id":"r-1",
	  "outcome":"maybe",
	  "cost":0,
	  "expanded":0,
	  "enqueued":0,
	  "distinct":0,
	  "elapsed_ms":0,
	  "board_digest":"9e1aa6d87b2451cc0c0b97aaa2bd6b087ea5f44ba0c3c013c97e6a779beebc0a"
	}`)

	validate(errorSchema, `{
	  "type":"ERROR",
	  "protocol_version":"rs.v1",
	  "req_id":"r-1",
	  "code":"E_BAD_BOARD",
	  "message":"board: 3 tokens of kind A, want 2"
	}`)
	reject(errorSchema, `{
	  "type":"ERROR",
	  "protocol_version":"rs.v1",
	  "code":"oops",
	  "message":""
	}`)
}

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

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	clickSchema := compile("click.schema.json")
	scrollSchema := compile("scroll.schema.json")
	slotSchema := compile("slot.schema.json")
	propertySchema := compile("property.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "player_name":"alice",
	  "capabilities":{"max_queue":8}
	}`), &hello)
	validate(helloSchema, hello)

	var click any
	_ = json.Unmarshal([]byte(`{
	  "type":"CLICK",
	  "protocol_version":"1.0",
	  "view_id":"v1",
	  "target":"3",
	  "button":"primary",
	  "shift":true
	}`), &click)
	validate(clickSchema, click)

	var scroll any
	_ = json.Unmarshal([]byte(`{
	  "type":"SCROLL",
	  "protocol_version":"1.0",
	  "view_id":"v1",
	  "target":"next_page",
	  "x":0,
	  "y":-1
	}`), &scroll)
	validate(scrollSchema, scroll)

	var slot any
	_ = json.Unmarshal([]byte(`{
	  "type":"SLOT",
	  "protocol_version":"1.0",
	  "view_id":"v1",
	  "slot":4,
	  "item":{"item":"STONE","count":12}
	}`), &slot)
	validate(slotSchema, slot)

	var emptySlot any
	_ = json.Unmarshal([]byte(`{
	  "type":"SLOT",
	  "protocol_version":"1.0",
	  "view_id":"v1",
	  "slot":4,
	  "item":null
	}`), &emptySlot)
	validate(slotSchema, emptySlot)

	var property any
	_ = json.Unmarshal([]byte(`{
	  "type":"PROPERTY",
	  "protocol_version":"1.0",
	  "view_id":"v1",
	  "name":"page",
	  "value":2
	}`), &property)
	validate(propertySchema, property)
}

func TestSchemas_RejectBadButton(t *testing.T) {
	p := filepath.Join("..", "..", "schemas", "click.schema.json")
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var click any
	_ = json.Unmarshal([]byte(`{
	  "type":"CLICK",
	  "protocol_version":"1.0",
	  "view_id":"v1",
	  "target":"3",
	  "button":"middle"
	}`), &click)
	if err := s.Validate(click); err == nil {
		t.Fatalf("expected middle button rejected")
	}
}

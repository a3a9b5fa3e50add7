package transport

import (
	"encoding/json"
	"testing"
)

func TestMultiplexResponseDecode(t *testing.T) {
	body := `{"objects":[
		{"type":"orders_counters","id":630231,"tag":"a1","data":{"buyer":1}},
		{"type":"chat_node","id":"users-1-2","tag":"00000000","data":{"messages":[]}},
		{"type":"chat_node","id":{"weird":true},"tag":"00000000","data":null}
	]}`

	var resp MultiplexResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Objects) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(resp.Objects))
	}
	if resp.Objects[0].ID.String() != "630231" {
		t.Errorf("expected numeric id 630231, got %q", resp.Objects[0].ID)
	}
	if resp.Objects[1].ID.String() != "users-1-2" {
		t.Errorf("expected string id users-1-2, got %q", resp.Objects[1].ID)
	}
	if resp.Objects[2].ID != "" {
		t.Errorf("expected empty id for unrecognized shape, got %q", resp.Objects[2].ID)
	}
}

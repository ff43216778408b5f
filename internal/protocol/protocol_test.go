package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func sampleState() StateResponse {
	return StateResponse{
		SessionID: "arena-1",
		Version:   42,
		Timestamp: 1708444800000,
		Players: []PlayerState{
			{ID: "p1", Name: "Alice", X: 1.5, Y: -2, HP: 90, MaxHP: 100, Sequence: 17},
		},
		Enemies: []EnemyState{
			{ID: "e1", Type: "goblin", X: 2, Y: 2, HP: 50, MaxHP: 50, Status: "chasing"},
		},
		Projectiles: []ProjectileState{
			{ID: "b1", OwnerID: "p1", X: 0.5, Y: 0, DirX: 1, DirY: 0, Radius: 0.3},
		},
	}
}

func TestCodecsCarryFullState(t *testing.T) {
	for _, codec := range []Codec{JSON, Msgpack, Protobuf} {
		t.Run(codec.MediaType(), func(t *testing.T) {
			original := sampleState()

			data, err := codec.Marshal(original)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}

			var decoded StateResponse
			if err := codec.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if !reflect.DeepEqual(original, decoded) {
				t.Errorf("state changed in transit:\nwant %+v\ngot  %+v", original, decoded)
			}
		})
	}
}

func TestCodecFor(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{"", MediaJSON},
		{"application/json", MediaJSON},
		{"application/msgpack", MediaMsgpack},
		{"application/x-protobuf; q=0.9", MediaProtobuf},
		{"text/html, application/x-msgpack", MediaMsgpack},
		{"*/*", MediaJSON},
		{"not a media type", MediaJSON},
	}
	for _, tt := range tests {
		if got := CodecFor(tt.header).MediaType(); got != tt.expected {
			t.Errorf("CodecFor(%q) = %s, want %s", tt.header, got, tt.expected)
		}
	}
}

func TestDecodeSubmitInput(t *testing.T) {
	req, err := DecodeSubmitInput([]byte(`{"playerId":"p1","sessionId":"s1","moveX":0.5,"moveY":-1,"shoot":true,"sequence":3}`))
	if err != nil {
		t.Fatalf("DecodeSubmitInput failed: %v", err)
	}
	if req.PlayerID != "p1" || req.SessionID != "s1" || req.MoveX != 0.5 || req.MoveY != -1 || !req.Shoot || req.Sequence != 3 {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		decode func([]byte) error
		body   string
	}{
		{"not json", func(b []byte) error { _, err := DecodeSubmitInput(b); return err }, `{"playerId":`},
		{"missing session", func(b []byte) error { _, err := DecodeSubmitInput(b); return err }, `{"playerId":"p1","sequence":1}`},
		{"bad player id", func(b []byte) error { _, err := DecodeSubmitInput(b); return err }, `{"playerId":"p 1!","sessionId":"s1","sequence":1}`},
		{"negative sequence", func(b []byte) error { _, err := DecodeSubmitInput(b); return err }, `{"playerId":"p1","sessionId":"s1","sequence":-1}`},
		{"string move", func(b []byte) error { _, err := DecodeSubmitInput(b); return err }, `{"playerId":"p1","sessionId":"s1","sequence":1,"moveX":"left"}`},
		{"empty name", func(b []byte) error { _, err := DecodeJoin(b); return err }, `{"name":""}`},
		{"leave without player", func(b []byte) error { _, err := DecodeLeave(b); return err }, `{}`},
		{"zero damage", func(b []byte) error { _, err := DecodeDamage(b); return err }, `{"amount":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode([]byte(tt.body))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestValidID(t *testing.T) {
	valid := []string{"p1", "arena_1", "a-b-c", "ABCdef0123"}
	invalid := []string{"", "has space", "slash/id", "dot.id", string(make([]byte, 65))}
	for _, id := range valid {
		if !ValidID(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}
	for _, id := range invalid {
		if ValidID(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func BenchmarkMarshalState(b *testing.B) {
	for _, codec := range []Codec{JSON, Msgpack, Protobuf} {
		b.Run(codec.MediaType(), func(b *testing.B) {
			state := sampleState()
			for i := 0; i < b.N; i++ {
				_, _ = codec.Marshal(state)
			}
		})
	}
}

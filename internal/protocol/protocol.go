// Package protocol defines the HTTP wire messages and their encodings.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Media types understood by the codecs.
const (
	MediaJSON     = "application/json"
	MediaMsgpack  = "application/msgpack"
	MediaProtobuf = "application/x-protobuf"
)

// Codec serializes wire messages for one media type. Every codec carries
// the same full message; none of them compresses or diffs.
type Codec interface {
	MediaType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	JSON     Codec = jsonCodec{}
	Msgpack  Codec = msgpackCodec{}
	Protobuf Codec = protobufCodec{}
)

var codecs = map[string]Codec{
	MediaJSON:               JSON,
	MediaMsgpack:            Msgpack,
	"application/x-msgpack": Msgpack,
	MediaProtobuf:           Protobuf,
	"application/protobuf":  Protobuf,
}

// CodecFor picks the first codec named in an Accept or Content-Type header.
// Unknown or empty headers get JSON.
func CodecFor(header string) Codec {
	for _, part := range strings.Split(header, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if c, ok := codecs[mediaType]; ok {
			return c
		}
	}
	return JSON
}

type jsonCodec struct{}

func (jsonCodec) MediaType() string { return MediaJSON }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}
	return nil
}

// msgpackCodec reuses the json struct tags so field names match on the wire.
type msgpackCodec struct{}

func (msgpackCodec) MediaType() string { return MediaMsgpack }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("unmarshal msgpack: %w", err)
	}
	return nil
}

// protobufCodec carries messages as a google.protobuf.Struct, which keeps
// the wire schema identical to the JSON one without generated types.
type protobufCodec struct{}

func (protobufCodec) MediaType() string { return MediaProtobuf }

func (protobufCodec) Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal protobuf: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("marshal protobuf: message is not an object: %w", err)
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal protobuf: %w", err)
	}
	return proto.Marshal(st)
}

func (protobufCodec) Unmarshal(data []byte, v any) error {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("unmarshal protobuf: %w", err)
	}
	raw, err := json.Marshal(st.AsMap())
	if err != nil {
		return fmt.Errorf("unmarshal protobuf: %w", err)
	}
	return json.Unmarshal(raw, v)
}

package storage

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/wedding-planner/backend/internal/models"
)

// EncodeScene serialises a scene document as msgpack, keyed by the JSON
// field names so both encodings share one schema.
func EncodeScene(doc models.SceneDocument) ([]byte, error) {
	return encode(doc)
}

// DecodeScene is the inverse of EncodeScene.
func DecodeScene(data []byte) (models.SceneDocument, error) {
	var doc models.SceneDocument
	if err := decode(data, &doc); err != nil {
		return models.SceneDocument{}, fmt.Errorf("decoding scene: %w", err)
	}
	return doc, nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

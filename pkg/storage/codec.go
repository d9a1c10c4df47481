package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"mangashelf/pkg/models"
)

// Codec turns the collection into bytes and back.
type Codec interface {
	Name() string
	Marshal(mangas []models.Manga) ([]byte, error)
	Unmarshal(data []byte, out *[]models.Manga) error
}

// CodecFor picks a codec from the file extension. No extension means JSON.
func CodecFor(path string) (Codec, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "", ".json":
		return jsonCodec{}, nil
	case ".yaml", ".yml":
		return yamlCodec{}, nil
	case ".cbor":
		return cborCodec{}, nil
	default:
		return nil, fmt.Errorf("no codec for extension %q", ext)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(mangas []models.Manga) ([]byte, error) {
	b, err := json.MarshalIndent(mangas, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func (jsonCodec) Unmarshal(data []byte, out *[]models.Manga) error {
	return json.Unmarshal(data, out)
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Marshal(mangas []models.Manga) ([]byte, error) {
	return yaml.Marshal(mangas)
}

func (yamlCodec) Unmarshal(data []byte, out *[]models.Manga) error {
	return yaml.Unmarshal(data, out)
}

type cborCodec struct{}

func (cborCodec) Name() string { return "cbor" }

func (cborCodec) Marshal(mangas []models.Manga) ([]byte, error) {
	return cbor.Marshal(mangas)
}

func (cborCodec) Unmarshal(data []byte, out *[]models.Manga) error {
	return cbor.Unmarshal(data, out)
}

package manga

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangashelf/pkg/models"
)

func validPayload() map[string]any {
	return map[string]any{
		"title":           "A",
		"author":          "B",
		"genres":          []any{"Action"},
		"volumeCount":     float64(1),
		"publicationDate": "2020-01-01",
		"synopsis":        "0123456789",
		"rating":          float64(5),
		"publisher":       "C",
	}
}

func requireValidationError(t *testing.T, err error, field string) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, field, verr.Field)
	return verr
}

func TestValidateStrictAcceptsValidPayload(t *testing.T) {
	p, err := NewValidator().Validate(validPayload(), Strict)
	require.NoError(t, err)

	m := p.Apply(models.Manga{})
	assert.Equal(t, "A", m.Title)
	assert.Equal(t, []string{"Action"}, m.Genres)
	assert.Equal(t, 1, m.VolumeCount)
	assert.Equal(t, 5.0, m.Rating)
}

func TestValidateStrictMissingField(t *testing.T) {
	for _, field := range []string{"title", "author", "genres", "volumeCount", "publicationDate", "synopsis", "rating", "publisher"} {
		t.Run(field, func(t *testing.T) {
			payload := validPayload()
			delete(payload, field)

			_, err := NewValidator().Validate(payload, Strict)
			verr := requireValidationError(t, err, field)
			assert.Equal(t, "is required", verr.Rule)
		})
	}
}

func TestValidateFieldRules(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value any
		rule  string
	}{
		{"empty title", "title", "", "must not be empty"},
		{"numeric title", "title", 5.0, "must be a string"},
		{"null author", "author", nil, "must be a string"},
		{"empty genres", "genres", []any{}, "must contain at least 1 item(s)"},
		{"unknown genre", "genres", []any{"Action", "Romance"}, `contains unknown genre "Romance" (allowed: Adventure, Action, Comedy, Drama, Fantasy, Supernatural, Dark)`},
		{"genre not string", "genres", []any{1.0}, "must contain only strings"},
		{"genres not array", "genres", "Action", "must be an array"},
		{"zero volumes", "volumeCount", 0.0, "must be greater than or equal to 1"},
		{"fractional volumes", "volumeCount", 1.5, "must be an integer"},
		{"bad date", "publicationDate", "01/02/2020", "must be an ISO-8601 date"},
		{"impossible date", "publicationDate", "2020-02-30", "must be an ISO-8601 date"},
		{"short synopsis", "synopsis", "too short", "must be at least 10 characters long"},
		{"rating too high", "rating", 11.0, "must be less than or equal to 10"},
		{"negative rating", "rating", -0.5, "must be greater than or equal to 0"},
		{"rating as string", "rating", "5", "must be a number"},
		{"empty publisher", "publisher", "", "must not be empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := validPayload()
			payload[tc.field] = tc.value

			_, err := NewValidator().Validate(payload, Strict)
			verr := requireValidationError(t, err, tc.field)
			assert.Equal(t, tc.rule, verr.Rule)
			assert.Equal(t, tc.field+" "+tc.rule, verr.Error())
		})
	}
}

func TestValidateAcceptsISOTimestamps(t *testing.T) {
	for _, date := range []string{"2020-01-01", "2020-01-01T10:00:00Z", "2020-01-01T10:00:00.123+09:00", "2020-01-01T10:00:00"} {
		payload := validPayload()
		payload["publicationDate"] = date
		_, err := NewValidator().Validate(payload, Strict)
		assert.NoError(t, err, date)
	}
}

func TestValidateReportsFirstFieldInDeclarationOrder(t *testing.T) {
	payload := validPayload()
	payload["publisher"] = ""
	payload["rating"] = 42.0
	payload["volumeCount"] = 0.0

	_, err := NewValidator().Validate(payload, Strict)
	requireValidationError(t, err, "volumeCount")
}

func TestValidateUnknownKeys(t *testing.T) {
	payload := validPayload()
	payload["zeta"] = 1
	payload["isbn"] = "x"

	_, err := NewValidator().Validate(payload, Strict)
	verr := requireValidationError(t, err, "isbn")
	assert.Equal(t, "is not allowed", verr.Rule)

	payload = validPayload()
	payload["id"] = 99.0
	_, err = NewValidator().Validate(payload, Strict)
	assert.NoError(t, err)
}

func TestValidatePartial(t *testing.T) {
	v := NewValidator()

	p, err := v.Validate(map[string]any{}, Partial)
	require.NoError(t, err)
	assert.Equal(t, Patch{}, p)

	p, err = v.Validate(map[string]any{"synopsis": "x"}, Partial)
	require.NoError(t, err)
	require.NotNil(t, p.Synopsis)
	assert.Equal(t, "x", *p.Synopsis)

	_, err = v.Validate(map[string]any{"synopsis": ""}, Partial)
	requireValidationError(t, err, "synopsis")

	_, err = v.Validate(map[string]any{"rating": 11.0}, Partial)
	verr := requireValidationError(t, err, "rating")
	assert.Equal(t, "must be less than or equal to 10", verr.Rule)

	_, err = v.Validate(nil, Partial)
	assert.NoError(t, err)
}
